package gateway

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"minishield-dashboard/internal/store"
)

// sessionCookie is the cookie the gateway issues on login.
const sessionCookie = "auth_token"

// Credentials holds the session cookie, persisted so CLI invocations share
// one session. Callers of the client never touch it directly; the client
// attaches and refreshes it on every call.
type Credentials struct {
	mu       sync.RWMutex
	settings *store.Store
	token    string
	loaded   bool
}

func NewCredentials(settings *store.Store) *Credentials {
	return &Credentials{settings: settings}
}

// Token returns the current session token, loading the persisted value on
// first use. Empty means no session.
func (c *Credentials) Token(ctx context.Context) string {
	c.mu.RLock()
	if c.loaded {
		defer c.mu.RUnlock()
		return c.token
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.token
	}
	c.loaded = true
	if c.settings != nil {
		v, err := c.settings.Get(ctx, store.KeyAuthToken)
		if err == nil {
			c.token = v
		} else if !errors.Is(err, store.ErrNotFound) {
			return ""
		}
	}
	return c.token
}

// SetToken stores a fresh session token; empty clears the session.
func (c *Credentials) SetToken(ctx context.Context, token string) {
	c.mu.Lock()
	c.token = token
	c.loaded = true
	c.mu.Unlock()

	if c.settings == nil {
		return
	}
	if token == "" {
		_ = c.settings.Delete(ctx, store.KeyAuthToken)
		return
	}
	_ = c.settings.Set(ctx, store.KeyAuthToken, token)
}

// Claims is what the client can read out of the session token without
// verifying it. Verification belongs to the gateway; the dashboard only
// uses expiry to pre-empt a doomed auth check.
type Claims struct {
	UserID    string
	ExpiresAt time.Time
}

// Inspect parses the session token without signature verification and
// returns its claims. ErrUnauthenticated when no token is held or the
// token is not a readable JWT.
func (c *Credentials) Inspect(ctx context.Context) (Claims, error) {
	raw := c.Token(ctx)
	if raw == "" {
		return Claims{}, ErrUnauthenticated
	}

	token, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return Claims{}, ErrUnauthenticated
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, ErrUnauthenticated
	}

	var out Claims
	if id, ok := claims["user_id"].(string); ok {
		out.UserID = id
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// Expired reports whether the held token is known to be past its expiry.
// A missing or unreadable token counts as expired.
func (c *Credentials) Expired(ctx context.Context, now time.Time) bool {
	claims, err := c.Inspect(ctx)
	if err != nil {
		return true
	}
	if claims.ExpiresAt.IsZero() {
		return false
	}
	return now.After(claims.ExpiresAt)
}
