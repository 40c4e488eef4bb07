package captcha

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/authkeeper/internal/client/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngDataURL(t *testing.T) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 4, 2))
	img.Set(1, 1, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

// fakeFetcher hands out sequential ids; block, when set, is received from
// before the n-th call (1-based) returns.
type fakeFetcher struct {
	mu      sync.Mutex
	calls   int
	image   string
	ids     []string
	errs    map[int]error
	block   map[int]chan struct{}
	started chan int
}

func (f *fakeFetcher) Captcha(ctx context.Context) (*client.CaptchaResponse, error) {
	f.mu.Lock()
	f.calls++
	n := f.calls
	wait := f.block[n]
	err := f.errs[n]
	id := fmt.Sprintf("cap-%d", n)
	if n <= len(f.ids) {
		id = f.ids[n-1]
	}
	f.mu.Unlock()

	if f.started != nil {
		f.started <- n
	}
	if wait != nil {
		<-wait
	}
	if err != nil {
		return nil, err
	}
	return &client.CaptchaResponse{CaptchaID: id, Captcha: f.image}, nil
}

func (f *fakeFetcher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestDecodeImage_DataURL(t *testing.T) {
	img, err := DecodeImage(pngDataURL(t))
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIME)
	assert.Equal(t, ".png", img.Ext)
	assert.NotEmpty(t, img.Data)
}

func TestDecodeImage_BareBase64(t *testing.T) {
	url := pngDataURL(t)
	_, raw, _ := strings.Cut(url, ",")
	img, err := DecodeImage(raw)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.MIME)
}

func TestDecodeImage_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		is   error
	}{
		{name: "empty", in: "", is: ErrNotImage},
		{name: "not base64", in: "data:image/png;base64,@@@"},
		{name: "not base64 encoded data url", in: "data:text/plain,hello"},
		{name: "text payload", in: base64.StdEncoding.EncodeToString([]byte("just some text")), is: ErrNotImage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeImage(tt.in)
			require.Error(t, err)
			if tt.is != nil {
				require.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestImage_WriteFile(t *testing.T) {
	img, err := DecodeImage(pngDataURL(t))
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "nested")
	path, err := img.WriteFile(dir, "abc")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "captcha-abc.png"), path)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, img.Data, got)
}

func TestManager_EnsureFetchesOnce(t *testing.T) {
	f := &fakeFetcher{image: pngDataURL(t)}
	m := NewManager(f, nil)
	ctx := context.Background()

	assert.Equal(t, StateEmpty, m.State())

	ch, err := m.Ensure(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cap-1", ch.ID)
	assert.Equal(t, StateReady, m.State())

	again, err := m.Ensure(ctx)
	require.NoError(t, err)
	assert.Same(t, ch, again)
	assert.Equal(t, 1, f.count())
}

func TestManager_ConsumeIsSingleUse(t *testing.T) {
	f := &fakeFetcher{image: pngDataURL(t)}
	m := NewManager(f, nil)
	_, err := m.Ensure(context.Background())
	require.NoError(t, err)

	ch, ok := m.Consume()
	require.True(t, ok)
	assert.Equal(t, "cap-1", ch.ID)
	assert.Nil(t, m.Current())
	assert.Equal(t, StateEmpty, m.State())

	_, ok = m.Consume()
	assert.False(t, ok)
}

func TestManager_FailRefreshesWithNewID(t *testing.T) {
	f := &fakeFetcher{image: pngDataURL(t)}
	m := NewManager(f, nil)
	ctx := context.Background()

	_, err := m.Ensure(ctx)
	require.NoError(t, err)
	used, _ := m.Consume()

	next, err := m.Fail(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, used.ID, next.ID)
	assert.Equal(t, StateReady, m.State())
	assert.Same(t, next, m.Current())
}

func TestManager_FailRejectsReusedID(t *testing.T) {
	f := &fakeFetcher{image: pngDataURL(t), ids: []string{"same", "same"}}
	m := NewManager(f, nil)
	ctx := context.Background()

	_, err := m.Ensure(ctx)
	require.NoError(t, err)
	m.Consume()

	_, err = m.Fail(ctx)
	require.ErrorIs(t, err, ErrFetchFailed)
	require.ErrorIs(t, err, ErrReusedChallenge)
	assert.Nil(t, m.Current())
}

func TestManager_FetchErrorLeavesEmpty(t *testing.T) {
	boom := errors.New("connection refused")
	f := &fakeFetcher{image: pngDataURL(t), errs: map[int]error{1: boom}}
	m := NewManager(f, nil)

	_, err := m.Ensure(context.Background())
	require.ErrorIs(t, err, ErrFetchFailed)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, StateEmpty, m.State())
	assert.Nil(t, m.Current())
}

func TestManager_BadImageIsFetchFailure(t *testing.T) {
	f := &fakeFetcher{image: "data:image/png;base64,bm90IGFuIGltYWdl"}
	m := NewManager(f, nil)

	_, err := m.Refresh(context.Background())
	require.ErrorIs(t, err, ErrFetchFailed)
	require.ErrorIs(t, err, ErrNotImage)
}

func TestManager_StaleResponseDoesNotOverwriteNewer(t *testing.T) {
	release := make(chan struct{})
	f := &fakeFetcher{
		image:   pngDataURL(t),
		block:   map[int]chan struct{}{1: release},
		started: make(chan int, 2),
	}
	m := NewManager(f, nil)
	ctx := context.Background()

	type result struct {
		ch  *Challenge
		err error
	}
	slow := make(chan result, 1)
	go func() {
		ch, err := m.Refresh(ctx)
		slow <- result{ch, err}
	}()
	require.Equal(t, 1, <-f.started)

	newer, err := m.Refresh(ctx)
	require.NoError(t, err)
	<-f.started
	assert.Equal(t, "cap-2", newer.ID)

	close(release)
	r := <-slow
	require.ErrorIs(t, r.err, ErrStaleChallenge)
	assert.Nil(t, r.ch)

	assert.Equal(t, "cap-2", m.Current().ID)
	assert.Equal(t, StateReady, m.State())
}

func TestManager_Discard(t *testing.T) {
	f := &fakeFetcher{image: pngDataURL(t)}
	m := NewManager(f, nil)
	_, err := m.Ensure(context.Background())
	require.NoError(t, err)

	m.Discard()
	assert.Nil(t, m.Current())
	assert.Equal(t, StateEmpty, m.State())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "refreshing", StateRefreshing.String())
	assert.Equal(t, "State(42)", State(42).String())
}
