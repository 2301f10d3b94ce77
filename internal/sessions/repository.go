package sessions

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned for unknown tokens and for sessions whose exp has passed.
	ErrNotFound = errors.New("sessions: session not found")
	// ErrDuplicateToken is returned when the token is already stored in the collection.
	ErrDuplicateToken = errors.New("sessions: duplicate token")
)

// Store persists one session type keyed by its token.
type Store[S any] interface {
	Insert(ctx context.Context, s *S) error
	Get(ctx context.Context, token string) (*S, error)
	Delete(ctx context.Context, token string) error
	// DeleteByUser removes every session owned by userID and returns the
	// tokens that were removed.
	DeleteByUser(ctx context.Context, userID int64) ([]string, error)
}
