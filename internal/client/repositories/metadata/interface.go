// Package metadata is a small key/value repository over the local SQLite
// "metadata" table. The session layer keeps the token and the signed-in user
// profile in it.
package metadata

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("metadata key not found")

// Item is a stored value together with the time it was last written.
type Item struct {
	Key       string
	Value     []byte
	UpdatedAt time.Time
}

type Repository interface {
	Get(ctx context.Context, key string) (*Item, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}
