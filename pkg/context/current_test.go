package context

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrent_SetGet(t *testing.T) {
	current := NewCurrent()
	current.Set(RequestIDKey, "req-1")
	current.Set(UserIDKey, 42)

	assert.Equal(t, "req-1", current.RequestID())
	assert.Equal(t, 42, current.UserID())
	assert.True(t, current.Exists(UserIDKey))
	assert.False(t, current.Exists(TokenIDKey))

	_, ok := current.GetInt(RequestIDKey)
	assert.False(t, ok)

	all := current.All()
	all["mutated"] = true
	assert.False(t, current.Exists("mutated"))
}

func TestCurrent_Context(t *testing.T) {
	ctx := context.Background()

	_, ok := FromContext(ctx)
	assert.False(t, ok)
	assert.Equal(t, 0, GetCurrent(ctx).UserID())

	current := NewCurrent()
	current.Set(UserIDKey, 7)
	ctx = WithCurrent(ctx, current)

	assert.Same(t, current, GetCurrent(ctx))
	assert.Equal(t, 7, GetCurrent(ctx).UserID())
}
