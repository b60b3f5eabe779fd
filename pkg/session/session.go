// Package session remembers a viewer's viewport between requests.
//
// Implementations:
//   - [MemoryStore]: in-process, for a single server
//   - [FileStore]: JSON files, for the terminal UI
//   - [RedisStore]: shared across server instances
//
// # Usage
//
//	sess := session.New(viewport.Default(), session.DefaultTTL)
//	_ = store.Set(ctx, sess)
//
//	sess, err := store.Get(ctx, id)
//	if err != nil {
//	    return err
//	}
//	if sess == nil {
//	    // not found or expired
//	}
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	mserrors "github.com/matzehuels/mapstyle/pkg/errors"
	"github.com/matzehuels/mapstyle/pkg/viewport"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidID is returned for IDs that are neither UUIDs nor LocalID.
	ErrInvalidID = errors.New("invalid session id")
)

// LocalID is the fixed session used by the terminal UI.
const LocalID = "local"

// DefaultTTL is the default session duration.
const DefaultTTL = 24 * time.Hour

// Session stores one viewer's view.
type Session struct {
	ID        string            `json:"id"`
	View      viewport.Location `json:"view"`
	Style     string            `json:"style,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Touch moves the expiry ttl into the future.
func (s *Session) Touch(ttl time.Duration) {
	s.ExpiresAt = time.Now().Add(ttl)
}

// New creates a session with a random UUID.
func New(view viewport.Location, ttl time.Duration) *Session {
	return newWithID(uuid.NewString(), view, ttl)
}

// NewLocal creates the terminal UI's session.
func NewLocal(view viewport.Location, ttl time.Duration) *Session {
	return newWithID(LocalID, view, ttl)
}

func newWithID(id string, view viewport.Location, ttl time.Duration) *Session {
	now := time.Now()
	return &Session{ID: id, View: view, CreatedAt: now, ExpiresAt: now.Add(ttl)}
}

// ValidateID rejects IDs that could not have come from New or NewLocal.
func ValidateID(id string) error {
	if id == LocalID {
		return nil
	}
	if _, err := uuid.Parse(id); err != nil {
		return mserrors.Wrap(mserrors.ErrCodeInvalidInput, ErrInvalidID, "session %q", id)
	}
	return nil
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by ID.
	// Returns nil, nil if the session doesn't exist or has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Set stores a session.
	Set(ctx context.Context, sess *Session) error

	// Delete removes a session.
	Delete(ctx context.Context, id string) error

	// Cleanup removes expired sessions (may be a no-op for Redis).
	Cleanup(ctx context.Context) error

	Close() error
}

// Lookup is Get that reports a missing or expired session as ErrNotFound.
func Lookup(ctx context.Context, s Store, id string) (*Session, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrNotFound
	}
	return sess, nil
}
