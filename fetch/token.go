package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

// TokenSource supplies the bearer token attached by WithAuthorization.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns a fixed token.
type StaticTokenSource struct {
	token string
}

var _ TokenSource = (*StaticTokenSource)(nil)

// NewStaticTokenSource wraps a literal token.
func NewStaticTokenSource(token string) *StaticTokenSource {
	return &StaticTokenSource{token: token}
}

func (s *StaticTokenSource) Token(ctx context.Context) (string, error) {
	if s.token == "" {
		return "", ErrNoToken
	}
	return s.token, nil
}

// RefreshFunc obtains a fresh token from wherever tokens come from.
type RefreshFunc func(ctx context.Context) (string, error)

// RefreshingTokenSource caches a token and refreshes it shortly before it
// expires. Expiry is read from the token's JWT exp claim when present;
// opaque tokens fall back to a fixed TTL. Concurrent refreshes collapse
// into one, and a failed refresh keeps serving the cached token until it is
// genuinely expired.
type RefreshingTokenSource struct {
	refresh RefreshFunc
	leeway  time.Duration
	ttl     time.Duration

	mu     sync.RWMutex
	token  string
	expiry time.Time

	group singleflight.Group
}

var _ TokenSource = (*RefreshingTokenSource)(nil)

// TokenOption configures a RefreshingTokenSource.
type TokenOption func(*RefreshingTokenSource)

// WithLeeway sets how long before expiry a refresh is attempted.
// Default: 30s.
func WithLeeway(d time.Duration) TokenOption {
	return func(s *RefreshingTokenSource) { s.leeway = d }
}

// WithFallbackTTL sets the assumed lifetime of tokens that carry no exp
// claim. Default: 5m.
func WithFallbackTTL(d time.Duration) TokenOption {
	return func(s *RefreshingTokenSource) { s.ttl = d }
}

// NewRefreshingTokenSource builds a source around a refresh function.
func NewRefreshingTokenSource(refresh RefreshFunc, opts ...TokenOption) (*RefreshingTokenSource, error) {
	if refresh == nil {
		return nil, ErrNilRefresh
	}
	s := &RefreshingTokenSource{
		refresh: refresh,
		leeway:  30 * time.Second,
		ttl:     5 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *RefreshingTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.RLock()
	token, expiry := s.token, s.expiry
	s.mu.RUnlock()
	if token != "" && time.Now().Before(expiry.Add(-s.leeway)) {
		return token, nil
	}

	v, err, _ := s.group.Do("refresh", func() (any, error) {
		return s.doRefresh(ctx)
	})
	if err != nil {
		// Degrade gracefully: the cached token stays good until its real
		// expiry even though the early refresh failed.
		s.mu.RLock()
		defer s.mu.RUnlock()
		if s.token != "" && time.Now().Before(s.expiry) {
			return s.token, nil
		}
		return "", err
	}
	return v.(string), nil
}

func (s *RefreshingTokenSource) doRefresh(ctx context.Context) (string, error) {
	token, err := s.refresh(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch: refresh token: %w", err)
	}
	if token == "" {
		return "", ErrNoToken
	}
	expiry := time.Now().Add(s.ttl)
	if exp, ok := tokenExpiry(token); ok {
		expiry = exp
	}
	s.mu.Lock()
	s.token, s.expiry = token, expiry
	s.mu.Unlock()
	return token, nil
}

// tokenExpiry reads the exp claim without verifying the signature; the
// client only schedules refreshes with it, validation is the server's job.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// WithAuthorization decorates a Fetcher so every request without an explicit
// Authorization header gets a bearer token from src. A nil src returns next
// unchanged.
func WithAuthorization(next Fetcher, src TokenSource) Fetcher {
	if src == nil {
		return next
	}
	return FetcherFunc(func(ctx context.Context, req Request) (*RawResponse, error) {
		if req.Header.Get("Authorization") == "" {
			token, err := src.Token(ctx)
			if err != nil {
				return nil, fmt.Errorf("fetch: authorize request: %w", err)
			}
			if req.Header == nil {
				req.Header = make(map[string][]string)
			} else {
				req.Header = req.Header.Clone()
			}
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return next.Fetch(ctx, req)
	})
}
