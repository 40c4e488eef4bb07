package client

import (
	"context"
	"time"
)

// Client is the transport-agnostic contract of the authentication API.
type Client interface {
	Captcha(ctx context.Context) (*CaptchaResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
}

// CaptchaResponse is the body of GET /captcha. Captcha holds the image as a
// data URL ("data:image/png;base64,...").
type CaptchaResponse struct {
	CaptchaID string `json:"captcha_id"`
	Captcha   string `json:"captcha"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	CaptchaID   string `json:"captcha_id"`
	CaptchaCode string `json:"captcha_code"`
}

// LoginResponse is the success body of POST /login.
type LoginResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
	User    *User  `json:"user,omitempty"`
}

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterResponse is the success body of POST /register.
type RegisterResponse struct {
	Message string `json:"message"`
	User    *User  `json:"user,omitempty"`
}

// User is the public account record echoed back by the API.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}
