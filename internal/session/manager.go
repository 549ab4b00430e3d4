package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xtclovver/tourgate/internal/models"
	"github.com/xtclovver/tourgate/pkg/token"
)

// ErrSessionExpired indicates the refresh token was rejected and the session
// cannot be recovered without a fresh login
var ErrSessionExpired = errors.New("session expired")

// Refresher exchanges a refresh token for a new token pair. Implemented by the
// upstream auth client with a plain (non-intercepted) HTTP client, so a
// refresh can never trigger another refresh.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error)
}

// refreshCall is a single in-flight refresh shared by every request that hit
// a 401 while it runs
type refreshCall struct {
	done        chan struct{}
	accessToken string
	err         error
}

// Manager owns the process-wide token pair and the refresh-once protocol.
// Only the Manager (and the initializer through it) writes the pair; every
// other caller reads it transitively via the attached bearer header.
type Manager struct {
	store     TokenStore
	refresher Refresher
	inspector *token.Inspector
	leeway    time.Duration
	logger    *logrus.Logger

	mu            sync.Mutex
	pair          models.TokenPair
	loaded        bool
	authenticated bool
	inflight      *refreshCall
	onExpired     func()
}

// NewManager creates a session token manager. leeway controls proactive
// refresh: a JWT access token expiring within leeway is renewed before use.
func NewManager(store TokenStore, refresher Refresher, logger *logrus.Logger, leeway time.Duration) *Manager {
	return &Manager{
		store:     store,
		refresher: refresher,
		inspector: token.NewInspector(),
		leeway:    leeway,
		logger:    logger,
	}
}

// OnSessionExpired registers the hook fired when a refresh fails and the
// session transitions to unauthenticated (the login redirect)
func (m *Manager) OnSessionExpired(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpired = fn
}

// HTTPClient returns an http.Client whose transport attaches the bearer
// header and drives the 401 refresh-and-replay protocol
func (m *Manager) HTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: m.Transport(http.DefaultTransport),
	}
}

// Transport wraps a base RoundTripper with session handling
func (m *Manager) Transport(base http.RoundTripper) http.RoundTripper {
	return &authTransport{manager: m, base: base}
}

// AccessToken returns the current access token, lazily hydrating the pair
// from the durable store on first use. An empty string means no session.
func (m *Manager) AccessToken(ctx context.Context) (string, error) {
	pair, err := m.currentPair(ctx)
	if err != nil {
		return "", err
	}
	return pair.AccessToken, nil
}

// IsAuthenticated reports whether the session has been confirmed by a
// successful profile fetch or token refresh
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authenticated
}

// SetTokens installs a new token pair (the login path) and persists it
func (m *Manager) SetTokens(ctx context.Context, pair models.TokenPair) error {
	if err := m.store.Save(ctx, pair); err != nil {
		return err
	}

	m.mu.Lock()
	m.pair = pair
	m.loaded = true
	m.authenticated = pair.AccessToken != ""
	m.mu.Unlock()
	return nil
}

// Logout clears the token pair and marks the session unauthenticated
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	m.pair = models.TokenPair{}
	m.loaded = true
	m.authenticated = false
	m.mu.Unlock()
	return m.store.Clear(ctx)
}

// markAuthenticated is called by the initializer after a successful profile fetch
func (m *Manager) markAuthenticated() {
	m.mu.Lock()
	m.authenticated = true
	m.mu.Unlock()
}

// currentPair lazily loads the pair from the store
func (m *Manager) currentPair(ctx context.Context) (models.TokenPair, error) {
	m.mu.Lock()
	if m.loaded {
		pair := m.pair
		m.mu.Unlock()
		return pair, nil
	}
	m.mu.Unlock()

	pair, err := m.store.Load(ctx)
	if err != nil {
		return models.TokenPair{}, err
	}

	m.mu.Lock()
	if !m.loaded {
		m.pair = pair
		m.loaded = true
	}
	pair = m.pair
	m.mu.Unlock()
	return pair, nil
}

// refresh renews the token pair, coalescing concurrent callers onto a single
// upstream refresh call. staleToken is the access token the caller just saw
// fail; if another caller already replaced it, the fresh token is returned
// without issuing a second refresh.
func (m *Manager) refresh(ctx context.Context, staleToken string) (string, error) {
	m.mu.Lock()

	if call := m.inflight; call != nil {
		m.mu.Unlock()
		select {
		case <-call.done:
			return call.accessToken, call.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if m.pair.AccessToken != "" && m.pair.AccessToken != staleToken {
		// Another caller refreshed between our 401 and now.
		tok := m.pair.AccessToken
		m.mu.Unlock()
		return tok, nil
	}

	refreshToken := m.pair.RefreshToken
	call := &refreshCall{done: make(chan struct{})}
	m.inflight = call
	m.mu.Unlock()

	call.accessToken, call.err = m.doRefresh(ctx, refreshToken)

	m.mu.Lock()
	m.inflight = nil
	m.mu.Unlock()
	close(call.done)

	return call.accessToken, call.err
}

func (m *Manager) doRefresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		m.expire(ctx)
		return "", ErrSessionExpired
	}

	pair, err := m.refresher.Refresh(ctx, refreshToken)
	if err != nil {
		m.logger.WithError(err).Warn("token refresh failed, clearing session")
		m.expire(ctx)
		return "", fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}

	m.mu.Lock()
	m.pair = pair
	m.loaded = true
	m.authenticated = true
	m.mu.Unlock()

	if err := m.store.Save(ctx, pair); err != nil {
		m.logger.WithError(err).Warn("failed to persist refreshed token pair")
	}

	m.logger.Debug("token pair refreshed")
	return pair.AccessToken, nil
}

// expire clears the session and fires the expiry hook
func (m *Manager) expire(ctx context.Context) {
	m.mu.Lock()
	m.pair = models.TokenPair{}
	m.loaded = true
	m.authenticated = false
	hook := m.onExpired
	m.mu.Unlock()

	if err := m.store.Clear(ctx); err != nil {
		m.logger.WithError(err).Warn("failed to clear token store")
	}

	if hook != nil {
		hook()
	}
}

// authTransport attaches the bearer header and performs at most one
// refresh-and-replay cycle per request
type authTransport struct {
	manager *Manager
	base    http.RoundTripper
}

// RoundTrip sends the request with the current access token. On a 401 it
// refreshes the pair once and replays the original request with the new
// token; a second 401 is returned as-is. The replay is structural, not
// recursive, so a request can never be refreshed twice.
func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	accessToken, err := t.manager.AccessToken(ctx)
	if err != nil {
		return nil, err
	}

	if accessToken != "" && t.manager.leeway > 0 && t.manager.inspector.ExpiresWithin(accessToken, t.manager.leeway) {
		// Proactive renewal; on failure fall through and let the 401 path decide.
		if fresh, err := t.manager.refresh(ctx, accessToken); err == nil {
			accessToken = fresh
		}
	}

	resp, err := t.base.RoundTrip(t.withBearer(req, accessToken))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	if !t.replayable(req) {
		return resp, nil
	}

	freshToken, refreshErr := t.manager.refresh(ctx, accessToken)
	if refreshErr != nil {
		return resp, nil // surface the original 401; session is already cleared
	}

	replay, err := t.rewind(req)
	if err != nil {
		return resp, nil
	}

	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	return t.base.RoundTrip(t.withBearer(replay, freshToken))
}

// withBearer clones the request with the Authorization header set
func (t *authTransport) withBearer(req *http.Request, accessToken string) *http.Request {
	clone := req.Clone(req.Context())
	if accessToken != "" {
		clone.Header.Set("Authorization", "Bearer "+accessToken)
	}
	return clone
}

// replayable reports whether the request body can be sent again
func (t *authTransport) replayable(req *http.Request) bool {
	return req.Body == nil || req.GetBody != nil
}

// rewind produces a fresh copy of the request with a rewound body
func (t *authTransport) rewind(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		clone.Body = body
	}
	return clone, nil
}
