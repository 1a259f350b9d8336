// Package auth tracks the logged in user and the token sent with every request.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pyneda/stapi/pkg/client"
	"github.com/pyneda/stapi/pkg/session"
	"github.com/rs/zerolog/log"
)

// ErrNotAuthenticated is returned by operations that need a logged in user.
var ErrNotAuthenticated = errors.New(`not logged in, run "stapi login"`)

// UserService is the subset of the backend used for authentication.
type UserService interface {
	Login(ctx context.Context, creds client.Credentials) (string, error)
	CurrentUser(ctx context.Context) (*client.User, error)
	Logout(ctx context.Context) error
	Register(ctx context.Context, reg client.Registration) error
}

// Manager holds the current token and user and keeps them in a session store.
// It is a client.TokenSource, so requests pick up logins and logouts at once.
type Manager struct {
	store  session.Store
	server string
	now    func() time.Time

	mu    sync.RWMutex
	users UserService
	token string
	user  *client.User
}

func NewManager(store session.Store, server string) *Manager {
	return &Manager{store: store, server: server, now: time.Now}
}

// Use sets the backend service. It is separate from NewManager because the
// client needs the manager as its token source first.
func (m *Manager) Use(users UserService) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = users
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

func (m *Manager) CurrentUser() *client.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	return &u
}

func (m *Manager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token != "" && m.user != nil
}

func (m *Manager) service() (UserService, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.users == nil {
		return nil, errors.New("auth manager has no user service")
	}
	return m.users, nil
}

// Restore loads a stored session and confirms it with the backend. Rejected or
// expired tokens clear the session; network failures keep it.
func (m *Manager) Restore(ctx context.Context) error {
	users, err := m.service()
	if err != nil {
		return err
	}
	stored, err := m.store.Load()
	if errors.Is(err, session.ErrNoSession) {
		return ErrNotAuthenticated
	}
	if err != nil {
		return err
	}

	if info, ok := session.TokenInfo(stored.Token); ok && info.Expired(m.now()) {
		log.Info().Time("expired_at", info.ExpiresAt).Msg("Stored token has expired")
		m.clear()
		return ErrNotAuthenticated
	}

	m.set(stored.Token, stored.User)
	user, err := users.CurrentUser(ctx)
	if err != nil {
		if client.IsUnauthorized(err) {
			log.Info().Err(err).Msg("Stored token was rejected, clearing session")
			m.clear()
			return ErrNotAuthenticated
		}
		return err
	}

	m.set(stored.Token, user)
	stored.User = user
	if err := m.store.Save(stored); err != nil {
		log.Warn().Err(err).Msg("Could not refresh stored session")
	}
	return nil
}

// Login exchanges creds for a token, fetches the user and persists both. When
// the user cannot be fetched nothing is kept.
func (m *Manager) Login(ctx context.Context, creds client.Credentials) (*client.User, error) {
	users, err := m.service()
	if err != nil {
		return nil, err
	}
	key, err := users.Login(ctx, creds)
	if err != nil {
		return nil, err
	}

	m.set(key, nil)
	user, err := users.CurrentUser(ctx)
	if err != nil {
		m.clear()
		return nil, fmt.Errorf("fetching current user: %w", err)
	}
	m.set(key, user)

	if err := m.store.Save(&session.Session{
		Token:     key,
		User:      user,
		Server:    m.server,
		CreatedAt: m.now().UTC(),
	}); err != nil {
		return user, fmt.Errorf("saving session: %w", err)
	}
	log.Debug().Str("username", user.Username).Msg("Logged in")
	return user, nil
}

// Logout tells the backend to drop the token and clears the local session
// whatever the backend answers.
func (m *Manager) Logout(ctx context.Context) error {
	users, err := m.service()
	if err != nil {
		return err
	}
	var remoteErr error
	if m.Token() != "" {
		remoteErr = users.Logout(ctx)
		if remoteErr != nil {
			log.Warn().Err(remoteErr).Msg("Server logout failed, clearing local session anyway")
		}
	}
	m.clear()
	return remoteErr
}

func (m *Manager) Register(ctx context.Context, form RegisterForm) error {
	if err := form.Validate(); err != nil {
		return err
	}
	users, err := m.service()
	if err != nil {
		return err
	}
	return users.Register(ctx, form.Registration())
}

func (m *Manager) set(token string, user *client.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	m.user = user
}

func (m *Manager) clear() {
	m.set("", nil)
	if err := m.store.Clear(); err != nil {
		log.Warn().Err(err).Msg("Could not remove stored session")
	}
}
