package session

import (
	"context"
	"time"

	"github.com/umakantv/go-utils/cache"
)

// sessionKeyPrefix matches the key layout used for server-side sessions
const sessionKeyPrefix = "session:"

// defaultTTL applies when the backend did not report an expiry
const defaultTTL = 24 * time.Hour

// CacheStore keeps the session in a go-utils cache. With the memory driver the
// session lives only as long as the process.
type CacheStore struct {
	cache cache.Cache
	key   string
}

// NewCacheStore creates a store using the given cache
func NewCacheStore(c cache.Cache) *CacheStore {
	return &CacheStore{cache: c, key: sessionKeyPrefix + "current"}
}

// Load returns the cached session
func (s *CacheStore) Load(ctx context.Context) (*Session, error) {
	cached, err := s.cache.Get(s.key)
	if err != nil || cached == nil {
		return nil, ErrNoSession
	}

	data, ok := cached.(map[string]interface{})
	if !ok {
		return nil, ErrNoSession
	}
	token, _ := data["token"].(string)
	if token == "" {
		return nil, ErrNoSession
	}

	sess := &Session{Token: token}
	if raw, _ := data["expires_at"].(string); raw != "" {
		if expiresAt, err := time.Parse(time.RFC3339, raw); err == nil {
			sess.ExpiresAt = expiresAt
		}
	}
	return sess, nil
}

// Save stores the session with its remaining lifetime as TTL
func (s *CacheStore) Save(ctx context.Context, sess *Session) error {
	data := map[string]interface{}{
		"token": sess.Token,
	}
	ttl := defaultTTL
	if !sess.ExpiresAt.IsZero() {
		data["expires_at"] = sess.ExpiresAt.UTC().Format(time.RFC3339)
		if remaining := time.Until(sess.ExpiresAt); remaining > 0 {
			ttl = remaining
		}
	}
	s.cache.Set(s.key, data, ttl)
	return nil
}

// Clear drops the cached session
func (s *CacheStore) Clear(ctx context.Context) error {
	s.cache.Delete(s.key)
	return nil
}
