// Package session keeps logged-in identity across requests. Session state
// lives server-side in a Store; the browser only holds a signed cookie naming
// the session id.
package session

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("session not found")
	ErrInvalidCookie = errors.New("invalid session cookie")
)

// Session is the server-side state for one browser.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Username  string    `json:"username,omitempty"`
	CSRFToken string    `json:"csrf_token"`
	Messages  []string  `json:"messages,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Authenticated reports whether a user has logged in on this session.
func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != ""
}

// AddMessage queues a flash message for the next rendered page.
func (s *Session) AddMessage(msg string) {
	s.Messages = append(s.Messages, msg)
}

// PopMessages returns and clears queued flash messages.
func (s *Session) PopMessages() []string {
	msgs := s.Messages
	s.Messages = nil
	return msgs
}

// Store persists sessions by id.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
