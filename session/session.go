// Package session holds per-user conversational state: a bounded FIFO of
// exchanges, profile-derived preference weights and a 2-hour idle TTL.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/bmaxza/tender-assistant/models"
)

// DefaultMaxContext caps the exchanges kept per session, oldest evicted first.
const DefaultMaxContext = 20

// DefaultTTL is how long an idle session survives before a sweep removes it.
const DefaultTTL = 2 * time.Hour

// Store is the session store contract. Implementations must let concurrent
// requests for different users proceed independently and must never remove a
// session while a request holds its lock.
type Store interface {
	// GetOrCreate returns the live session for a user, creating a fresh one
	// (discarding stale context) when none exists or the old one idled out.
	GetOrCreate(userID string) *Session
	// Get returns the live session or models.ErrSessionNotFound.
	Get(userID string) (*Session, error)
	// Sweep removes every session idle for longer than the TTL and reports
	// how many were removed. Safe to run concurrently with requests.
	Sweep(now time.Time) int
	// Active reports the number of live sessions.
	Active() int
}

// Session is the mutable per-user state. All mutation goes through methods
// holding the session's own lock; the owning store serializes removal the
// same way.
type Session struct {
	mu sync.Mutex

	id           string
	userID       string
	createdAt    time.Time
	lastActiveAt time.Time
	context      []models.Exchange
	maxContext   int

	profile models.Profile
	weights map[string]float64
}

// New builds a session for a user. The session id is derived from the user id
// and the creation epoch, so a recreated session is distinguishable from the
// one it replaced.
func New(userID string, profile models.Profile, weights map[string]float64, maxContext int, now time.Time) *Session {
	if maxContext <= 0 {
		maxContext = DefaultMaxContext
	}
	return &Session{
		id:           fmt.Sprintf("%s-%d", userID, now.Unix()),
		userID:       userID,
		createdAt:    now,
		lastActiveAt: now,
		maxContext:   maxContext,
		profile:      profile,
		weights:      weights,
	}
}

func (s *Session) ID() string     { return s.id }
func (s *Session) UserID() string { return s.userID }

func (s *Session) CreatedAt() time.Time { return s.createdAt }

func (s *Session) LastActiveAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActiveAt
}

// Touch bumps last-activity. The timestamp never moves backwards.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.After(s.lastActiveAt) {
		s.lastActiveAt = now
	}
}

// IdleSince reports whether the session has been idle past the TTL.
func (s *Session) IdleSince(now time.Time, ttl time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastActiveAt) > ttl
}

// Append records one exchange, evicting the oldest when the context is full,
// and bumps last-activity.
func (s *Session) Append(exchange models.Exchange, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.context = append(s.context, exchange)
	if len(s.context) > s.maxContext {
		s.context = s.context[len(s.context)-s.maxContext:]
	}
	if now.After(s.lastActiveAt) {
		s.lastActiveAt = now
	}
}

// Context returns a copy of the exchange history, oldest first.
func (s *Session) Context() []models.Exchange {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Exchange, len(s.context))
	copy(out, s.context)
	return out
}

func (s *Session) ContextLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.context)
}

// Profile is loaded once at session creation and read-only afterwards.
func (s *Session) Profile() models.Profile { return s.profile }

// PreferenceWeights is built once at session creation and read-only afterwards.
func (s *Session) PreferenceWeights() map[string]float64 { return s.weights }

// Summary is the outward session view served by the session endpoint.
type Summary struct {
	SessionID     string    `json:"session_id"`
	UserID        string    `json:"user_id"`
	Username      string    `json:"username"`
	FullName      string    `json:"full_name"`
	CreatedAt     time.Time `json:"created_at"`
	LastActiveAt  time.Time `json:"last_active_at"`
	TotalMessages int       `json:"total_messages"`
}

func (s *Session) Summarize() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Summary{
		SessionID:     s.id,
		UserID:        s.userID,
		Username:      s.profile.Username(),
		FullName:      s.profile.FullName(),
		CreatedAt:     s.createdAt,
		LastActiveAt:  s.lastActiveAt,
		TotalMessages: len(s.context),
	}
}
