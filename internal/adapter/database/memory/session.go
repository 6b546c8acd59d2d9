package memory

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"taskmanager/internal/core/port"
)

type sessionStore struct {
	revoked *gocache.Cache
}

// NewSessionStore keeps a denylist of token ids. Entries disappear once the
// token would have expired anyway.
func NewSessionStore() port.SessionStore {
	return &sessionStore{revoked: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func (s *sessionStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)

	if ttl <= 0 {
		return nil
	}

	s.revoked.Set(tokenID, struct{}{}, ttl)

	return nil
}

func (s *sessionStore) IsRevoked(ctx context.Context, tokenID string) bool {
	_, found := s.revoked.Get(tokenID)

	return found
}
