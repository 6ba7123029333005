package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrNoSession is returned by a Store when no token has been saved
var ErrNoSession = errors.New("no session")

// Session holds the opaque bearer token obtained from login or signup
// ExpiresAt is zero when the backend did not report an expiry
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Expired reports whether the session has a known expiry that has passed
func (s *Session) Expired(now time.Time) bool {
	return s != nil && !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Store persists the current session
type Store interface {
	Load(ctx context.Context) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Clear(ctx context.Context) error
}

// Refresher is the hook consulted when a stored session has expired.
// Returning the session unchanged keeps sending the stale token, which
// the backend then rejects.
type Refresher interface {
	Refresh(ctx context.Context, s *Session) (*Session, error)
}

// RefresherFunc adapts a function to the Refresher interface
type RefresherFunc func(ctx context.Context, s *Session) (*Session, error)

// Refresh calls f(ctx, s)
func (f RefresherFunc) Refresh(ctx context.Context, s *Session) (*Session, error) {
	return f(ctx, s)
}

var keepSession = RefresherFunc(func(_ context.Context, s *Session) (*Session, error) {
	return s, nil
})

// Provider is the session object injected into the API client and the list model.
// The token is read from the store on every call, so a login or logout done
// elsewhere is picked up on the next request.
type Provider struct {
	store     Store
	refresher Refresher
	now       func() time.Time
	logger    *zap.Logger
}

// ProviderOption configures a Provider
type ProviderOption func(*Provider)

// WithRefresher installs an expiry hook
func WithRefresher(r Refresher) ProviderOption {
	return func(p *Provider) { p.refresher = r }
}

// WithClock overrides the time source (tests)
func WithClock(now func() time.Time) ProviderOption {
	return func(p *Provider) { p.now = now }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) ProviderOption {
	return func(p *Provider) { p.logger = l }
}

// NewProvider creates a provider over the given store
func NewProvider(store Store, opts ...ProviderOption) *Provider {
	p := &Provider{
		store:     store,
		refresher: keepSession,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Current returns the active session, or nil when logged out
func (p *Provider) Current(ctx context.Context) (*Session, error) {
	s, err := p.store.Load(ctx)
	if errors.Is(err, ErrNoSession) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	if !s.Expired(p.now()) {
		return s, nil
	}

	p.logger.Debug("Session expired, consulting refresher", zap.Time("expires_at", s.ExpiresAt))
	refreshed, err := p.refresher.Refresh(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}
	if refreshed == nil {
		return nil, nil
	}
	if refreshed != s {
		if err := p.store.Save(ctx, refreshed); err != nil {
			return nil, fmt.Errorf("save refreshed session: %w", err)
		}
	}
	return refreshed, nil
}

// Token returns the bearer token, or "" when logged out
func (p *Provider) Token(ctx context.Context) (string, error) {
	s, err := p.Current(ctx)
	if err != nil || s == nil {
		return "", err
	}
	return s.Token, nil
}

// LoggedIn reports whether a token is present
func (p *Provider) LoggedIn(ctx context.Context) bool {
	token, err := p.Token(ctx)
	if err != nil {
		p.logger.Error("Failed to read session", zap.Error(err))
		return false
	}
	return token != ""
}

// Establish stores a new session. A positive expiresIn (seconds) sets the expiry.
func (p *Provider) Establish(ctx context.Context, token string, expiresIn int) error {
	if token == "" {
		return errors.New("empty token")
	}
	s := &Session{Token: token}
	if expiresIn > 0 {
		s.ExpiresAt = p.now().Add(time.Duration(expiresIn) * time.Second)
	}
	if err := p.store.Save(ctx, s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	p.logger.Info("Session established")
	return nil
}

// End removes the stored session
func (p *Provider) End(ctx context.Context) error {
	if err := p.store.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	p.logger.Info("Session cleared")
	return nil
}
