package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
)

// ErrNoSession is returned by Store.Load when nothing is persisted.
var ErrNoSession = errors.New("no stored session")

// Profile is the signed-in account as echoed back by the login endpoint.
type Profile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Record is what a Store persists for one session.
type Record struct {
	Token   string
	User    *Profile
	SavedAt time.Time
}

// Store persists the session record under a fixed key.
type Store interface {
	Load(ctx context.Context) (*Record, error)
	Save(ctx context.Context, rec Record) error
	Clear(ctx context.Context) error
}

// SQLiteStore keeps the token under key and the profile under key+".user"
// in the local metadata table.
type SQLiteStore struct {
	db  *sql.DB
	key string
}

// NewSQLiteStore constructs a SQLiteStore keeping the token under key.
func NewSQLiteStore(db *sql.DB, key string) *SQLiteStore {
	return &SQLiteStore{db: db, key: key}
}

func (s *SQLiteStore) userKey() string { return s.key + ".user" }

func (s *SQLiteStore) Load(ctx context.Context) (*Record, error) {
	repo := metadata.NewSQLiteRepository(s.db)

	tok, err := repo.Get(ctx, s.key)
	if errors.Is(err, metadata.ErrNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}

	rec := &Record{Token: string(tok.Value), SavedAt: tok.UpdatedAt}

	u, err := repo.Get(ctx, s.userKey())
	switch {
	case errors.Is(err, metadata.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		var p Profile
		if err := json.Unmarshal(u.Value, &p); err != nil {
			return nil, fmt.Errorf("decode stored profile: %w", err)
		}
		rec.User = &p
	}
	return rec, nil
}

// Save overwrites the stored token and profile in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, rec Record) error {
	var profile []byte
	if rec.User != nil {
		b, err := json.Marshal(rec.User)
		if err != nil {
			return fmt.Errorf("encode profile: %w", err)
		}
		profile = b
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, s.key, []byte(rec.Token)); err != nil {
			return err
		}
		if profile == nil {
			return repo.Delete(ctx, s.userKey())
		}
		return repo.Set(ctx, s.userKey(), profile)
	})
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	return metadata.NewSQLiteRepository(s.db).Delete(ctx, s.key, s.userKey())
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu  sync.Mutex
	rec *Record
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(context.Context) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rec == nil {
		return nil, ErrNoSession
	}
	rec := *m.rec
	return &rec, nil
}

func (m *MemoryStore) Save(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if rec.SavedAt.IsZero() {
		rec.SavedAt = time.Now()
	}
	m.rec = &rec
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rec = nil
	return nil
}
