package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/hoorayapp/hooray-sync/internal/models"
)

// ErrNoSession is returned by CurrentUser when no access token is set.
var ErrNoSession = errors.New("no authenticated session")

// AuthClient talks to the hosted auth provider. It resolves the bearer
// token of the current session into a user identity and notifies watchers
// when that identity changes, which is what lets the sync workflow refuse
// to replay one user's offline draft under another user's session.
type AuthClient struct {
	baseURL string
	anonKey string
	http    *http.Client
	logger  *slog.Logger

	mu       sync.Mutex
	token    string
	current  *User
	watchers []func(*User)
}

// User is the identity reported by the auth provider.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Snapshot freezes the identity into the form queued actions carry.
func (u *User) Snapshot() models.UserSnapshot {
	return models.UserSnapshot{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
	}
}

func NewAuthClient(baseURL, anonKey string, logger *slog.Logger) *AuthClient {
	return &AuthClient{
		baseURL: baseURL,
		anonKey: anonKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		logger:  logger,
	}
}

// SetSession installs an access token, resolves it to a user, and fires
// auth-state watchers if the identity changed. An empty token signs out.
func (c *AuthClient) SetSession(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		c.setCurrent(nil, "")
		return nil
	}

	user, err := c.fetchUser(ctx, accessToken)
	if err != nil {
		return err
	}
	c.setCurrent(user, accessToken)
	return nil
}

// CurrentUser returns the identity of the active session, fetching it from
// the provider if it has not been resolved yet.
func (c *AuthClient) CurrentUser(ctx context.Context) (*User, error) {
	c.mu.Lock()
	token, current := c.token, c.current
	c.mu.Unlock()

	if token == "" {
		return nil, ErrNoSession
	}
	if current != nil {
		return current, nil
	}

	user, err := c.fetchUser(ctx, token)
	if err != nil {
		return nil, err
	}
	c.setCurrent(user, token)
	return user, nil
}

// OnAuthStateChange registers fn to run on every identity change. fn
// receives nil on sign-out.
func (c *AuthClient) OnAuthStateChange(fn func(*User)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watchers = append(c.watchers, fn)
}

func (c *AuthClient) fetchUser(ctx context.Context, token string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("build auth request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if c.anonKey != "" {
		req.Header.Set("apikey", c.anonKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, ErrNoSession
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("auth provider returned %d: %s", resp.StatusCode, body)
	}

	// Provider payload: identity fields live under user_metadata
	var payload struct {
		ID           string `json:"id"`
		Email        string `json:"email"`
		UserMetadata struct {
			Name      string `json:"name"`
			AvatarURL string `json:"avatar_url"`
		} `json:"user_metadata"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode auth response: %w", err)
	}
	if payload.ID == "" {
		return nil, fmt.Errorf("auth provider returned empty user id")
	}

	return &User{
		ID:        payload.ID,
		Email:     payload.Email,
		Name:      payload.UserMetadata.Name,
		AvatarURL: payload.UserMetadata.AvatarURL,
	}, nil
}

func (c *AuthClient) setCurrent(user *User, token string) {
	c.mu.Lock()
	prev := c.current
	c.current = user
	c.token = token
	watchers := make([]func(*User), len(c.watchers))
	copy(watchers, c.watchers)
	c.mu.Unlock()

	if sameIdentity(prev, user) {
		return
	}

	c.logger.Info("Auth state changed", "signed_in", user != nil)
	for _, fn := range watchers {
		fn(user)
	}
}

func sameIdentity(a, b *User) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID
}
