// Package cache is the local, write-first persistence tier. Every session
// mutation lands here synchronously before the remote store is touched, so
// the UI always reads its own writes even when the network is down.
package cache

import (
	"context"

	"openlift/tracking-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the cache layer.
var (
	ErrNotFound = CacheError("not found in cache")
)

// CacheError helps distinguish cache errors.
type CacheError string

func (e CacheError) Error() string {
	return string(e)
}

// SessionCache stores whole session trees keyed by session id. All operations
// are synchronous; a failure here is fatal to the calling operation.
type SessionCache interface {
	Put(ctx context.Context, session *domain.WorkoutSession) error
	Get(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutSession, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	// GetByAuthor returns every cached session for a user, most recently
	// modified first.
	GetByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]domain.WorkoutSession, error)
	Close() error
}
