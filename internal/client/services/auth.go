// Package services contains application services for the authkeeper client.
// This file defines the authentication service: login with CAPTCHA, register
// and logout, on top of the API client, the CAPTCHA manager and the session.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/authkeeper/internal/client/captcha"
	"github.com/dmitrijs2005/authkeeper/internal/client/client"
	"github.com/dmitrijs2005/authkeeper/internal/client/models"
	"github.com/dmitrijs2005/authkeeper/internal/client/session"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
)

const (
	msgLoginOK     = "Login successful"
	msgLoginFailed = "Login failed"
	msgRegisterOK  = "Registration successful"
	msgRegisterErr = "Registration failed"
)

// ErrBusy is returned when a submission is attempted while another one is
// still in flight.
var ErrBusy = errors.New("a request is already in progress")

// State is the phase of the credential submission flow.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Error is a submission failure ready to be shown to the user. Message is the
// text a view renders; Err is the underlying cause.
type Error struct {
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// LoginResult is what a successful login hands back to the view.
type LoginResult struct {
	Message string
	User    *session.Profile
}

// RegisterResult is what a successful registration hands back to the view.
type RegisterResult struct {
	Message string
	User    *client.User
}

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: validate the form, send one login request carrying the active
//     CAPTCHA and persist the token on success. A failed attempt fetches a
//     fresh CAPTCHA.
//   - Register: validate the form including the password policy and send one
//     register request.
//   - Logout: drop the session locally.
//   - PrepareLogin / RefreshCaptcha / CurrentCaptcha: make a CAPTCHA
//     available to the view.
//
// Login and Register share one busy flag; while either is in flight the other
// returns ErrBusy without touching the network.
type AuthService interface {
	PrepareLogin(ctx context.Context) (*captcha.Challenge, error)
	RefreshCaptcha(ctx context.Context) (*captcha.Challenge, error)
	CurrentCaptcha() *captcha.Challenge
	Login(ctx context.Context, form models.LoginForm) (*LoginResult, error)
	Register(ctx context.Context, form models.SignupForm) (*RegisterResult, error)
	Logout(ctx context.Context) error
	State() State
	Busy() bool
}

type authService struct {
	client  client.Client
	captcha *captcha.Manager
	session *session.Session
	log     logging.Logger

	mu    sync.Mutex
	busy  bool
	state State
}

// NewAuthService constructs an AuthService bound to the given API client,
// CAPTCHA manager and session.
func NewAuthService(c client.Client, cm *captcha.Manager, s *session.Session, log logging.Logger) AuthService {
	if log == nil {
		log = logging.Discard()
	}
	return &authService{client: c, captcha: cm, session: s, log: log}
}

func (a *authService) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *authService) Busy() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.busy
}

// acquire claims the busy flag. The returned func returns the flow to idle.
func (a *authService) acquire(ctx context.Context, op string) (func(), error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.busy {
		a.log.Debug(ctx, "submission rejected", "op", op, "state", a.state)
		return nil, &Error{Op: op, Message: ErrBusy.Error(), Err: ErrBusy}
	}
	a.busy = true
	return func() {
		a.mu.Lock()
		a.busy = false
		a.state = StateIdle
		a.mu.Unlock()
	}, nil
}

func (a *authService) transition(ctx context.Context, op string, to State) {
	a.mu.Lock()
	from := a.state
	a.state = to
	a.mu.Unlock()
	a.log.Debug(ctx, "auth state", "op", op, "from", from, "to", to)
}

func (a *authService) PrepareLogin(ctx context.Context) (*captcha.Challenge, error) {
	return a.captcha.Ensure(ctx)
}

func (a *authService) RefreshCaptcha(ctx context.Context) (*captcha.Challenge, error) {
	return a.captcha.Refresh(ctx)
}

// CurrentCaptcha returns the challenge the next login will carry, if any.
func (a *authService) CurrentCaptcha() *captcha.Challenge {
	return a.captcha.Current()
}

// Login submits the login form. The active challenge is consumed by this
// attempt whatever the outcome. Validation failures never reach the network.
func (a *authService) Login(ctx context.Context, form models.LoginForm) (*LoginResult, error) {
	const op = "login"

	release, err := a.acquire(ctx, op)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := form.Validate(a.captcha.Current() != nil); err != nil {
		return nil, &Error{Op: op, Message: err.Error(), Err: err}
	}

	a.transition(ctx, op, StateSubmitting)

	var captchaID string
	if ch, ok := a.captcha.Consume(); ok {
		captchaID = ch.ID
	}

	resp, err := a.client.Login(ctx, form.Request(captchaID))
	if err == nil {
		var user *session.Profile
		if resp.User != nil {
			user = &session.Profile{ID: resp.User.ID, Email: resp.User.Email, Username: resp.User.Username}
		}
		if err = a.session.Set(ctx, resp.Token, user); err == nil {
			a.transition(ctx, op, StateSuccess)
			a.captcha.Discard()
			a.log.Info(ctx, "logged in", "email", form.Email)
			return &LoginResult{Message: orDefault(resp.Message, msgLoginOK), User: user}, nil
		}
	}

	a.transition(ctx, op, StateFailed)
	a.log.Warn(ctx, "login failed", "error", err)
	if _, cerr := a.captcha.Fail(ctx); cerr != nil && !errors.Is(cerr, captcha.ErrStaleChallenge) {
		a.log.Warn(ctx, "captcha refresh after failed login", "error", cerr)
	}
	return nil, &Error{Op: op, Message: orDefault(client.ServerMessage(err), msgLoginFailed), Err: err}
}

// Register submits the signup form after checking required fields and the
// password policy.
func (a *authService) Register(ctx context.Context, form models.SignupForm) (*RegisterResult, error) {
	const op = "register"

	release, err := a.acquire(ctx, op)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := form.Validate(); err != nil {
		return nil, &Error{Op: op, Message: err.Error(), Err: err}
	}

	a.transition(ctx, op, StateSubmitting)

	resp, err := a.client.Register(ctx, form.Request())
	if err != nil {
		a.transition(ctx, op, StateFailed)
		a.log.Warn(ctx, "registration failed", "error", err)
		return nil, &Error{Op: op, Message: orDefault(client.ServerMessage(err), msgRegisterErr), Err: err}
	}

	a.transition(ctx, op, StateSuccess)
	a.log.Info(ctx, "registered", "username", form.Username)
	return &RegisterResult{Message: orDefault(resp.Message, msgRegisterOK), User: resp.User}, nil
}

// Logout clears the local session. There is no server round-trip; the token
// is simply forgotten.
func (a *authService) Logout(ctx context.Context) error {
	a.captcha.Discard()
	if err := a.session.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	a.log.Info(ctx, "logged out")
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
