package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore is a minimal Store for provider tests
type memoryStore struct {
	sess    *Session
	loadErr error
	saves   int
}

func (m *memoryStore) Load(ctx context.Context) (*Session, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.sess == nil {
		return nil, ErrNoSession
	}
	s := *m.sess
	return &s, nil
}

func (m *memoryStore) Save(ctx context.Context, s *Session) error {
	cp := *s
	m.sess = &cp
	m.saves++
	return nil
}

func (m *memoryStore) Clear(ctx context.Context) error {
	m.sess = nil
	return nil
}

func TestProviderLoggedOut(t *testing.T) {
	p := NewProvider(&memoryStore{})

	token, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.False(t, p.LoggedIn(context.Background()))
}

func TestProviderEstablishAndEnd(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := &memoryStore{}
	p := NewProvider(store, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	require.NoError(t, p.Establish(ctx, "tok", 3600))
	assert.Equal(t, now.Add(time.Hour), store.sess.ExpiresAt)

	token, err := p.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", token)

	require.NoError(t, p.End(ctx))
	assert.False(t, p.LoggedIn(ctx))
}

func TestProviderEstablishRejectsEmptyToken(t *testing.T) {
	p := NewProvider(&memoryStore{})
	assert.Error(t, p.Establish(context.Background(), "", 0))
}

func TestProviderExpiredSessionKeepsTokenByDefault(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := &memoryStore{sess: &Session{Token: "stale", ExpiresAt: now.Add(-time.Minute)}}
	p := NewProvider(store, WithClock(func() time.Time { return now }))

	token, err := p.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "stale", token)
	assert.Zero(t, store.saves)
}

func TestProviderRefresherHook(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	t.Run("replacement is saved", func(t *testing.T) {
		store := &memoryStore{sess: &Session{Token: "stale", ExpiresAt: now.Add(-time.Minute)}}
		p := NewProvider(store,
			WithClock(func() time.Time { return now }),
			WithRefresher(RefresherFunc(func(_ context.Context, s *Session) (*Session, error) {
				return &Session{Token: "fresh", ExpiresAt: now.Add(time.Hour)}, nil
			})))

		token, err := p.Token(ctx)
		require.NoError(t, err)
		assert.Equal(t, "fresh", token)
		assert.Equal(t, "fresh", store.sess.Token)
	})

	t.Run("nil means logged out", func(t *testing.T) {
		store := &memoryStore{sess: &Session{Token: "stale", ExpiresAt: now.Add(-time.Minute)}}
		p := NewProvider(store,
			WithClock(func() time.Time { return now }),
			WithRefresher(RefresherFunc(func(context.Context, *Session) (*Session, error) { return nil, nil })))

		assert.False(t, p.LoggedIn(ctx))
	})

	t.Run("error propagates", func(t *testing.T) {
		store := &memoryStore{sess: &Session{Token: "stale", ExpiresAt: now.Add(-time.Minute)}}
		boom := errors.New("boom")
		p := NewProvider(store,
			WithClock(func() time.Time { return now }),
			WithRefresher(RefresherFunc(func(context.Context, *Session) (*Session, error) { return nil, boom })))

		_, err := p.Token(ctx)
		assert.ErrorIs(t, err, boom)
	})
}

func TestProviderStoreError(t *testing.T) {
	boom := errors.New("disk gone")
	p := NewProvider(&memoryStore{loadErr: boom})

	_, err := p.Token(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, p.LoggedIn(context.Background()))
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	var nilSession *Session

	assert.False(t, nilSession.Expired(now))
	assert.False(t, (&Session{Token: "t"}).Expired(now))
	assert.True(t, (&Session{Token: "t", ExpiresAt: now}).Expired(now))
	assert.False(t, (&Session{Token: "t", ExpiresAt: now.Add(time.Second)}).Expired(now))
}
