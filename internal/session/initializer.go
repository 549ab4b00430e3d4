package session

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/xtclovver/tourgate/internal/models"
)

// InitState is the explicit state of the one-shot session bootstrap
type InitState string

const (
	InitStateUninitialized InitState = "uninitialized"
	InitStateInitializing  InitState = "initializing"
	InitStateDone          InitState = "done"
)

// ProfileFetcher loads the current user's profile from the upstream auth service
type ProfileFetcher interface {
	CurrentUser(ctx context.Context) (*models.User, error)
}

// Initializer hydrates the session from a persisted token at process start.
// The state advances Uninitialized -> Initializing -> Done exactly once; the
// guard is set before the profile fetch and never reset, so re-entrant calls
// can never trigger a second fetch.
type Initializer struct {
	manager *Manager
	profile ProfileFetcher
	logger  *logrus.Logger

	mu    sync.Mutex
	state InitState
	user  *models.User
}

// NewInitializer creates a session initializer
func NewInitializer(manager *Manager, profile ProfileFetcher, logger *logrus.Logger) *Initializer {
	return &Initializer{
		manager: manager,
		profile: profile,
		logger:  logger,
		state:   InitStateUninitialized,
	}
}

// Initialize performs the one-shot bootstrap. Without a persisted token it
// completes immediately; with one it fetches the profile exactly once. A
// fetch failure leaves the session unauthenticated and does not propagate:
// startup must not block on it.
func (i *Initializer) Initialize(ctx context.Context) {
	i.mu.Lock()
	if i.state != InitStateUninitialized {
		i.mu.Unlock()
		return
	}
	i.state = InitStateInitializing
	i.mu.Unlock()

	defer func() {
		i.mu.Lock()
		i.state = InitStateDone
		i.mu.Unlock()
	}()

	accessToken, err := i.manager.AccessToken(ctx)
	if err != nil {
		i.logger.WithError(err).Warn("session bootstrap: token store unavailable")
		return
	}
	if accessToken == "" {
		i.logger.Debug("session bootstrap: no persisted token")
		return
	}

	if i.manager.IsAuthenticated() {
		return
	}

	user, err := i.profile.CurrentUser(ctx)
	if err != nil {
		i.logger.WithError(err).Warn("session bootstrap: profile fetch failed, continuing unauthenticated")
		return
	}

	i.mu.Lock()
	i.user = user
	i.mu.Unlock()
	i.manager.markAuthenticated()

	i.logger.WithField("user_id", user.ID).Info("session restored from persisted token")
}

// State returns the current bootstrap state
func (i *Initializer) State() InitState {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// User returns the profile loaded during bootstrap, if any
func (i *Initializer) User() *models.User {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.user
}
