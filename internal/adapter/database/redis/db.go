package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/port"
)

const (
	DefaultPrefix = "taskmanager:"

	scanBatch = 100
)

type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewClient connects and pings; callers fall back to the memory adapter on error.
func NewClient(ctx context.Context, config Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", config.Addr, err)
	}

	return client, nil
}

type cacheRepository struct {
	client *redis.Client
	prefix string
}

func NewCacheRepository(client *redis.Client, prefix string) port.CacheRepository {
	return &cacheRepository{client: client, prefix: prefix}
}

func (c *cacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}

	return nil
}

func (c *cacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, port.ErrCacheMiss
		}

		return nil, fmt.Errorf("cache get error: %w", err)
	}

	return data, nil
}

func (c *cacheRepository) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		return fmt.Errorf("cache delete error: %w", err)
	}

	return nil
}

func (c *cacheRepository) DeleteByPrefix(ctx context.Context, prefix string) error {
	return deleteMatching(ctx, c.client, c.prefix+prefix+"*")
}

func (c *cacheRepository) Close() error {
	return c.client.Close()
}

func deleteMatching(ctx context.Context, client *redis.Client, pattern string) error {
	var cursor uint64

	for {
		keys, next, err := client.Scan(ctx, cursor, pattern, scanBatch).Result()

		if err != nil {
			return fmt.Errorf("cache scan error: %w", err)
		}

		if len(keys) > 0 {
			if err := client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache delete error: %w", err)
			}
		}

		cursor = next

		if cursor == 0 {
			return nil
		}
	}
}

type undoStore struct {
	client *redis.Client
	prefix string
}

// NewUndoStore shares undo tickets between API instances.
func NewUndoStore(client *redis.Client, prefix string) port.UndoStore {
	return &undoStore{client: client, prefix: prefix + "undo:"}
}

func (u *undoStore) Put(ctx context.Context, ticket domain.UndoTicket) error {
	ttl := time.Until(ticket.ExpiresAt)

	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(ticket)

	if err != nil {
		return err
	}

	return u.client.Set(ctx, u.prefix+ticket.ID, data, ttl).Err()
}

// Take reads the ticket and deletes it only for its owner. The DEL count
// decides which of two concurrent owners wins.
func (u *undoStore) Take(ctx context.Context, id string, userId int) (domain.UndoTicket, bool) {
	key := u.prefix + id

	data, err := u.client.Get(ctx, key).Bytes()

	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Error("Undo#Take", "error", err, "ticket", id)
		}

		return domain.UndoTicket{}, false
	}

	var ticket domain.UndoTicket

	if err := json.Unmarshal(data, &ticket); err != nil {
		slog.Error("Undo#Take", "decode", err, "ticket", id)
		return domain.UndoTicket{}, false
	}

	if ticket.UserId != userId {
		return domain.UndoTicket{}, false
	}

	deleted, err := u.client.Del(ctx, key).Result()

	if err != nil {
		slog.Error("Undo#Take", "error", err, "ticket", id)
		return domain.UndoTicket{}, false
	}

	return ticket, deleted == 1
}

type sessionStore struct {
	client *redis.Client
	prefix string
}

func NewSessionStore(client *redis.Client, prefix string) port.SessionStore {
	return &sessionStore{client: client, prefix: prefix + "revoked:"}
}

func (s *sessionStore) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := time.Until(until)

	if ttl <= 0 {
		return nil
	}

	return s.client.Set(ctx, s.prefix+tokenID, 1, ttl).Err()
}

// IsRevoked treats a Redis failure as not revoked; the token signature and
// expiry were already checked.
func (s *sessionStore) IsRevoked(ctx context.Context, tokenID string) bool {
	n, err := s.client.Exists(ctx, s.prefix+tokenID).Result()

	if err != nil {
		slog.Error("Session#IsRevoked", "error", err)
		return false
	}

	return n > 0
}
