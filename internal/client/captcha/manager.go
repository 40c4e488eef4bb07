// Package captcha manages the single-use CAPTCHA challenge shown on the login
// view.
//
// Lifecycle
//
//	Empty ──Ensure/Refresh──▶ Fetching ──ok──▶ Ready ──Consume──▶ Empty
//	                              └──error──▶ Empty
//	Ready/Empty ──Fail──▶ Failed ──▶ Refreshing ──ok──▶ Ready
//	                                     └──error──▶ Empty
//
// A challenge is consumed by the submission that carries it, whatever the
// outcome. Every fetch is stamped with a generation; a response that arrives
// after a newer fetch has started is dropped with ErrStaleChallenge.
package captcha

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/client/client"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
)

var (
	ErrFetchFailed     = errors.New("could not load CAPTCHA")
	ErrStaleChallenge  = errors.New("stale CAPTCHA response dropped")
	ErrReusedChallenge = errors.New("server returned an already used CAPTCHA")
)

// State is the lifecycle phase of the login view's CAPTCHA.
type State int

const (
	StateEmpty State = iota
	StateFetching
	StateReady
	StateFailed
	StateRefreshing
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateFetching:
		return "fetching"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateRefreshing:
		return "refreshing"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Challenge is one server-issued CAPTCHA.
type Challenge struct {
	ID        string
	Image     Image
	FetchedAt time.Time
}

// Fetcher loads a new challenge. client.Client satisfies it.
type Fetcher interface {
	Captcha(ctx context.Context) (*client.CaptchaResponse, error)
}

// Manager owns the single active challenge and its fetches.
type Manager struct {
	mu       sync.Mutex
	fetcher  Fetcher
	log      logging.Logger
	now      func() time.Time
	state    State
	current  *Challenge
	gen      uint64
	consumed string
}

// NewManager creates a Manager that loads challenges through f.
func NewManager(f Fetcher, log logging.Logger) *Manager {
	if log == nil {
		log = logging.Discard()
	}
	return &Manager{fetcher: f, log: log, now: time.Now}
}

// State reports the current lifecycle phase.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Current returns the active challenge without consuming it.
func (m *Manager) Current() *Challenge {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Ensure makes sure a challenge is active, fetching one only if needed.
func (m *Manager) Ensure(ctx context.Context) (*Challenge, error) {
	if ch := m.Current(); ch != nil {
		return ch, nil
	}
	return m.fetch(ctx, StateFetching)
}

// Refresh replaces the active challenge with a freshly fetched one.
func (m *Manager) Refresh(ctx context.Context) (*Challenge, error) {
	return m.fetch(ctx, StateFetching)
}

// Consume hands out the active challenge and discards it. The boolean is
// false when there was none.
func (m *Manager) Consume() (*Challenge, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := m.current
	if ch == nil {
		return nil, false
	}
	m.current = nil
	m.consumed = ch.ID
	m.state = StateEmpty
	return ch, true
}

// Discard drops the active challenge without fetching a new one, as when the
// user leaves the login view or a login succeeded.
func (m *Manager) Discard() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = nil
	m.state = StateEmpty
}

// Fail records a failed submission and immediately fetches a replacement so
// the view is never left without a usable challenge while idle.
func (m *Manager) Fail(ctx context.Context) (*Challenge, error) {
	m.mu.Lock()
	m.current = nil
	m.state = StateFailed
	m.mu.Unlock()

	return m.fetch(ctx, StateRefreshing)
}

func (m *Manager) fetch(ctx context.Context, pending State) (*Challenge, error) {
	m.mu.Lock()
	m.gen++
	gen := m.gen
	m.state = pending
	m.mu.Unlock()

	ch, err := m.load(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen {
		m.log.Debug(ctx, "captcha response dropped", "generation", gen, "latest", m.gen)
		return nil, ErrStaleChallenge
	}
	if err == nil && m.consumed != "" && ch.ID == m.consumed {
		err = ErrReusedChallenge
	}
	if err != nil {
		m.current = nil
		m.state = StateEmpty
		m.log.Warn(ctx, "captcha fetch failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	m.current = ch
	m.state = StateReady
	m.log.Debug(ctx, "captcha ready", "captcha_id", ch.ID, "mime", ch.Image.MIME)
	return ch, nil
}

func (m *Manager) load(ctx context.Context) (*Challenge, error) {
	resp, err := m.fetcher.Captcha(ctx)
	if err != nil {
		return nil, err
	}
	if resp.CaptchaID == "" {
		return nil, errors.New("captcha without id")
	}
	img, err := DecodeImage(resp.Captcha)
	if err != nil {
		return nil, err
	}
	return &Challenge{ID: resp.CaptchaID, Image: img, FetchedAt: m.now()}, nil
}
