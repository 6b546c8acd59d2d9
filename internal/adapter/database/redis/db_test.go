package redis_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/gomega"

	taskredis "taskmanager/internal/adapter/database/redis"
	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/port"
)

var ctx = context.Background()

// Requires a reachable Redis; REDIS_ADDR overrides localhost:6379.
func setup(t *testing.T) taskredis.Config {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")

	if addr == "" {
		addr = "localhost:6379"
	}

	config := taskredis.Config{Addr: addr, Prefix: "test:" + uuid.NewString()[:8] + ":"}

	client, err := taskredis.NewClient(ctx, config)

	if err != nil {
		t.Skipf("Redis not available at %s: %v", addr, err)
	}

	client.Close()

	return config
}

func TestCacheRepository(t *testing.T) {
	RegisterTestingT(t)

	config := setup(t)
	client, _ := taskredis.NewClient(ctx, config)
	cache := taskredis.NewCacheRepository(client, config.Prefix)
	defer cache.Close()

	_, err := cache.Get(ctx, "tasks:user:1")
	Expect(err).To(MatchError(port.ErrCacheMiss))

	Expect(cache.Set(ctx, "tasks:user:1", []byte(`[{"title":"a"}]`), time.Minute)).To(Succeed())
	Expect(cache.Set(ctx, "tasks:user:2", []byte(`[]`), time.Minute)).To(Succeed())

	value, err := cache.Get(ctx, "tasks:user:1")
	Expect(err).To(BeNil())
	Expect(string(value)).To(Equal(`[{"title":"a"}]`))

	Expect(cache.Delete(ctx, "tasks:user:1")).To(Succeed())
	_, err = cache.Get(ctx, "tasks:user:1")
	Expect(err).To(MatchError(port.ErrCacheMiss))

	Expect(cache.DeleteByPrefix(ctx, "tasks:")).To(Succeed())
	_, err = cache.Get(ctx, "tasks:user:2")
	Expect(err).To(MatchError(port.ErrCacheMiss))
}

func TestUndoStore(t *testing.T) {
	RegisterTestingT(t)

	config := setup(t)
	client, _ := taskredis.NewClient(ctx, config)
	defer client.Close()

	store := taskredis.NewUndoStore(client, config.Prefix)

	ticket := domain.UndoTicket{
		ID:        uuid.NewString(),
		UserId:    7,
		TaskUUID:  uuid.New(),
		ExpiresAt: time.Now().Add(5 * time.Second),
	}

	Expect(store.Put(ctx, ticket)).To(Succeed())

	_, ok := store.Take(ctx, ticket.ID, 8)
	Expect(ok).To(BeFalse())

	got, ok := store.Take(ctx, ticket.ID, 7)
	Expect(ok).To(BeTrue())
	Expect(got.UserId).To(Equal(7))
	Expect(got.TaskUUID).To(Equal(ticket.TaskUUID))

	_, ok = store.Take(ctx, ticket.ID, 7)
	Expect(ok).To(BeFalse())
}

func TestSessionStore(t *testing.T) {
	RegisterTestingT(t)

	config := setup(t)
	client, _ := taskredis.NewClient(ctx, config)
	defer client.Close()

	store := taskredis.NewSessionStore(client, config.Prefix)

	Expect(store.IsRevoked(ctx, "jti")).To(BeFalse())
	Expect(store.Revoke(ctx, "jti", time.Now().Add(time.Minute))).To(Succeed())
	Expect(store.IsRevoked(ctx, "jti")).To(BeTrue())
}
