package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"session-todos/internal/models"
	"session-todos/pkg/logger"
)

// Manager ties the cookie codec to the store.
type Manager struct {
	store Store
	codec *Codec
	ttl   time.Duration
	now   func() time.Time
}

// NewManager returns a manager issuing sessions that live for ttl.
func NewManager(store Store, codec *Codec, ttl time.Duration) *Manager {
	return &Manager{store: store, codec: codec, ttl: ttl, now: time.Now}
}

// TTL is the session lifetime, also used as the cookie Max-Age.
func (m *Manager) TTL() time.Duration { return m.ttl }

// New returns a fresh, unsaved anonymous session.
func (m *Manager) New() *Session {
	return &Session{
		ID:        uuid.NewString(),
		CSRFToken: uuid.NewString(),
		CreatedAt: m.now().UTC(),
	}
}

// Load resolves a cookie value to its stored session. A missing, forged or
// expired cookie, or one naming a vanished session, yields a fresh session and
// fresh=true. Store failures are returned.
func (m *Manager) Load(ctx context.Context, cookie string) (s *Session, fresh bool, err error) {
	if cookie == "" {
		return m.New(), true, nil
	}
	id, err := m.codec.Parse(cookie)
	if err != nil {
		logger.Debug(ctx, "Session cookie rejected", "error", err)
		return m.New(), true, nil
	}
	s, err = m.store.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return m.New(), true, nil
	}
	if err != nil {
		return nil, false, err
	}
	return s, false, nil
}

// Save persists s and returns the cookie value naming it.
func (m *Manager) Save(ctx context.Context, s *Session) (string, error) {
	if err := m.store.Save(ctx, s, m.ttl); err != nil {
		return "", err
	}
	return m.codec.Sign(s.ID, m.ttl)
}

// Login replaces s with a new session bound to id. The old session id is
// discarded so a pre-login id cannot be fixed on the victim.
func (m *Manager) Login(ctx context.Context, s *Session, id *models.Identity) (*Session, error) {
	next := m.New()
	next.UserID = id.ID
	next.Username = id.Username
	if s != nil {
		if err := m.store.Delete(ctx, s.ID); err != nil {
			return nil, err
		}
	}
	return next, nil
}

// Logout discards s and returns a fresh anonymous session.
func (m *Manager) Logout(ctx context.Context, s *Session) (*Session, error) {
	if s != nil {
		if err := m.store.Delete(ctx, s.ID); err != nil {
			return nil, err
		}
	}
	return m.New(), nil
}

// Ping checks the backing store.
func (m *Manager) Ping(ctx context.Context) error {
	return m.store.Ping(ctx)
}
