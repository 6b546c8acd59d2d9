package memory

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/port"
)

type undoStore struct {
	mu      sync.Mutex
	tickets *gocache.Cache
}

func NewUndoStore() port.UndoStore {
	return &undoStore{tickets: gocache.New(gocache.NoExpiration, cleanupInterval)}
}

func (u *undoStore) Put(ctx context.Context, ticket domain.UndoTicket) error {
	ttl := time.Until(ticket.ExpiresAt)

	if ttl <= 0 {
		return nil
	}

	u.tickets.Set(ticket.ID, ticket, ttl)

	return nil
}

// Take returns the ticket at most once, and only to its owner.
func (u *undoStore) Take(ctx context.Context, id string, userId int) (domain.UndoTicket, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	value, found := u.tickets.Get(id)

	if !found {
		return domain.UndoTicket{}, false
	}

	ticket := value.(domain.UndoTicket)

	if ticket.UserId != userId {
		return domain.UndoTicket{}, false
	}

	u.tickets.Delete(id)

	return ticket, true
}
