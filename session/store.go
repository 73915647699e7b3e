// Package session owns the authentication token pair and the identity derived
// from it. All mutation goes through the Store; callers never touch the state
// directly. Every mutation writes through to the configured Storage so the
// in-memory state and the persisted record cannot diverge.
package session

import (
	"sync"
	"time"

	"github.com/discograf/discograf/log"
)

// expirySkew is the guard band applied to the token expiry so a request is not
// launched with a token that will expire mid-flight
const expirySkew = 60 * time.Second

// State is the persisted subset of the session
type State struct {
	Token         string `json:"token"`
	RefreshToken  string `json:"refreshToken"`
	User          *User  `json:"user"`
	Authenticated bool   `json:"isAuthenticated"`
}

// Store holds the current session. Safe for concurrent use; a single mutex
// keeps the single-writer discipline.
type Store struct {
	mu      sync.RWMutex
	state   State
	storage Storage
	now     func() time.Time
	logger  *log.Logger
}

// Option configures a Store
type Option func(*Store)

// WithStorage sets the persistence backend
func WithStorage(storage Storage) Option {
	return func(s *Store) {
		s.storage = storage
	}
}

// WithClock sets the time source, used by expiry checks
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a Store and rehydrates it from storage
func NewStore(opts ...Option) *Store {
	s := &Store{
		storage: &memoryStorage{},
		now:     time.Now,
		logger:  log.G,
	}

	for _, opt := range opts {
		opt(s)
	}

	state, err := s.storage.Load()
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to rehydrate session, starting logged out")
		return s
	}
	if state != nil {
		s.state = *state
	}

	return s
}

// Login establishes a session from a freshly issued token pair. It fails
// closed: an empty or undecodable token, or one without an expiry claim,
// leaves the store logged out.
func (s *Store) Login(token, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := decodeIdentity(token)
	if err != nil {
		s.logger.Error().Err(err).Msg("invalid token received on login")
		s.resetLocked()
		return
	}

	s.state = State{
		Token:         token,
		RefreshToken:  refreshToken,
		User:          user,
		Authenticated: true,
	}
	s.persistLocked()

	s.logger.Info().Str("username", user.Username).Msg("login succeeded")
}

// SetToken replaces the access token after a silent refresh. Same decode
// contract as Login; the existing refresh token is kept.
func (s *Store) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := decodeIdentity(token)
	if err != nil {
		s.logger.Error().Err(err).Msg("invalid token received on refresh")
		s.resetLocked()
		return
	}

	s.state.Token = token
	s.state.User = user
	s.state.Authenticated = true
	s.persistLocked()
}

// Logout clears the session. Idempotent.
func (s *Store) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()
	s.logger.Info().Msg("logged out")
}

// IsTokenExpired reports whether the access token is absent, expired, or will
// expire within the guard band.
func (s *Store) IsTokenExpired() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state.User == nil || s.state.User.ExpiresAt == 0 {
		return true
	}

	expiry := time.Unix(s.state.User.ExpiresAt, 0)
	return !s.now().Add(expirySkew).Before(expiry)
}

// Token returns the current access token, empty when logged out
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// RefreshToken returns the current refresh token, empty when logged out
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.RefreshToken
}

// User returns a copy of the derived identity, nil when logged out
func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state.User == nil {
		return nil
	}
	user := *s.state.User
	return &user
}

// Authenticated reports whether a session is established
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Authenticated
}

// resetLocked clears all fields and persists the logged-out state.
// Caller holds the lock.
func (s *Store) resetLocked() {
	s.state = State{}
	s.persistLocked()
}

// persistLocked writes through to storage. Caller holds the lock.
func (s *Store) persistLocked() {
	if err := s.storage.Save(s.state); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist session")
	}
}
