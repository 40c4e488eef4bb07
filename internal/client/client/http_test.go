package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewHTTPClient(srv.URL, 0, logging.Discard())
	require.NoError(t, err)
	c.newID = func() string { return "req-1" }
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestNewHTTPClient_RejectsBadURL(t *testing.T) {
	_, err := NewHTTPClient("ftp://example.com", 0, nil)
	require.Error(t, err)

	_, err = NewHTTPClient("://nope", 0, nil)
	require.Error(t, err)
}

func TestCaptcha_OK(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/captcha", r.URL.Path)
		assert.Equal(t, "req-1", r.Header.Get(common.RequestIDHeader))
		writeJSON(t, w, http.StatusOK, map[string]string{
			"captcha_id": "c-1",
			"captcha":    "data:image/png;base64,AAAA",
		})
	})

	resp, err := c.Captcha(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "c-1", resp.CaptchaID)
	assert.Equal(t, "data:image/png;base64,AAAA", resp.Captcha)
}

func TestCaptcha_EmptyIDIsBadResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]string{"captcha": "x"})
	})

	_, err := c.Captcha(context.Background())
	require.ErrorIs(t, err, ErrBadResponse)
}

func TestLogin_SendsPayloadAndReturnsToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var got map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, map[string]string{
			"email":        "a@b.c",
			"password":     "Abcdef1!",
			"captcha_id":   "c-1",
			"captcha_code": "XyZ9",
		}, got)

		writeJSON(t, w, http.StatusOK, map[string]any{
			"token":   "tok",
			"message": "Login successful",
			"user":    map[string]string{"id": "1", "email": "a@b.c", "username": "alice"},
		})
	})

	resp, err := c.Login(context.Background(), LoginRequest{
		Email: "a@b.c", Password: "Abcdef1!", CaptchaID: "c-1", CaptchaCode: "XyZ9",
	})
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.Token)
	assert.Equal(t, "Login successful", resp.Message)
	require.NotNil(t, resp.User)
	assert.Equal(t, "alice", resp.User.Username)
}

func TestLogin_ServerErrorMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"error": "Invalid CAPTCHA"})
	})

	_, err := c.Login(context.Background(), LoginRequest{Email: "a", Password: "b"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid CAPTCHA", apiErr.Message)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "Invalid CAPTCHA", ServerMessage(err))
}

func TestLogin_ErrorWithoutBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.Login(context.Background(), LoginRequest{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Empty(t, apiErr.Message)
	assert.Empty(t, ServerMessage(err))
	assert.NotErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, err.Error(), "500")
}

func TestLogin_MissingTokenIsBadResponse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]string{"message": "ok"})
	})

	_, err := c.Login(context.Background(), LoginRequest{})
	require.ErrorIs(t, err, ErrBadResponse)
}

func TestLogin_MalformedJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	})

	_, err := c.Login(context.Background(), LoginRequest{})
	require.ErrorIs(t, err, ErrBadResponse)
}

func TestRegister_Created(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/register", r.URL.Path)

		var got RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, RegisterRequest{Email: "a@b.c", Username: "alice", Password: "Abcdef1!"}, got)

		writeJSON(t, w, http.StatusCreated, map[string]any{
			"message": "User registered successfully",
			"user":    map[string]string{"id": "7", "username": "alice"},
		})
	})

	resp, err := c.Register(context.Background(), RegisterRequest{Email: "a@b.c", Username: "alice", Password: "Abcdef1!"})
	require.NoError(t, err)
	assert.Equal(t, "User registered successfully", resp.Message)
	require.NotNil(t, resp.User)
	assert.Equal(t, "7", resp.User.ID)
}

func TestRegister_Conflict(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusConflict, map[string]string{"error": "User already exists"})
	})

	_, err := c.Register(context.Background(), RegisterRequest{})
	assert.Equal(t, "User already exists", ServerMessage(err))
}

func TestDo_TransportErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c, err := NewHTTPClient(url, time.Second, nil)
	require.NoError(t, err)

	_, err = c.Captcha(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestDo_CanceledContextIsNotUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Captcha(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, errors.Is(err, ErrUnavailable))
}

func TestNewHTTPClient_TrailingSlash(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		writeJSON(t, w, http.StatusOK, map[string]string{"captcha_id": "x", "captcha": ""})
	}))
	defer srv.Close()

	c, err := NewHTTPClient(srv.URL+"/api/", 0, nil)
	require.NoError(t, err)

	_, err = c.Captcha(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/api/captcha", path)
}
