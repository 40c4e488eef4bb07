// Package models defines the typed form records the client collects from the
// user. Each form is validated at the boundary before an outbound request
// payload is built from it.
package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/authkeeper/internal/client/client"
	"github.com/dmitrijs2005/authkeeper/internal/client/policy"
	"github.com/dmitrijs2005/authkeeper/internal/common"
)

// ErrMissingFields is returned when a required field is empty.
var ErrMissingFields = errors.New("All fields are required")

// WeakPasswordError reports a signup password that fails the policy.
type WeakPasswordError struct {
	Result policy.Result
}

func (e *WeakPasswordError) Error() string {
	return "password does not meet the requirements: " + strings.ToLower(strings.Join(e.Result.Failed(), ", "))
}

// LoginForm is the state of the login view.
type LoginForm struct {
	Email         string
	Password      string
	CaptchaAnswer string
}

// Validate checks that email and password are present. The CAPTCHA answer is
// required only when a challenge is active.
func (f LoginForm) Validate(captchaActive bool) error {
	if common.IsBlank(f.Email) || f.Password == "" {
		return ErrMissingFields
	}
	if captchaActive && common.IsBlank(f.CaptchaAnswer) {
		return ErrMissingFields
	}
	return nil
}

// Request builds the POST /login payload for the given challenge id.
func (f LoginForm) Request(captchaID string) client.LoginRequest {
	return client.LoginRequest{
		Email:       strings.TrimSpace(f.Email),
		Password:    f.Password,
		CaptchaID:   captchaID,
		CaptchaCode: strings.TrimSpace(f.CaptchaAnswer),
	}
}

// SignupForm is the state of the signup view.
type SignupForm struct {
	Email    string
	Username string
	Password string
}

// Policy evaluates the current password against the signup policy.
func (f SignupForm) Policy() policy.Result {
	return policy.Evaluate(f.Password)
}

// Validate checks required fields first and the password policy second.
func (f SignupForm) Validate() error {
	if common.IsBlank(f.Email) || common.IsBlank(f.Username) || f.Password == "" {
		return ErrMissingFields
	}
	if r := f.Policy(); !r.Admissible() {
		return &WeakPasswordError{Result: r}
	}
	return nil
}

// Request builds the POST /register payload.
func (f SignupForm) Request() client.RegisterRequest {
	return client.RegisterRequest{
		Email:    strings.TrimSpace(f.Email),
		Username: strings.TrimSpace(f.Username),
		Password: f.Password,
	}
}

func (f SignupForm) String() string {
	return fmt.Sprintf("SignupForm{Email:%q Username:%q Password:<redacted>}", f.Email, f.Username)
}

func (f LoginForm) String() string {
	return fmt.Sprintf("LoginForm{Email:%q Password:<redacted>}", f.Email)
}
