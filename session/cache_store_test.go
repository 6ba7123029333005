package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/umakantv/go-utils/cache"
)

func TestCacheStore(t *testing.T) {
	c, err := cache.New(cache.Config{Type: "memory"})
	require.NoError(t, err)
	defer c.Close()

	store := NewCacheStore(c)
	ctx := context.Background()

	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)

	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, store.Save(ctx, &Session{Token: "abc", ExpiresAt: expires}))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", got.Token)
	assert.True(t, expires.Equal(got.ExpiresAt))

	require.NoError(t, store.Clear(ctx))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
}
