// Package inmemory is the single-process session store: a user-id keyed map
// guarded by an RWMutex held only for lookups, inserts and removals. Per-user
// mutation happens under each session's own lock, so requests for different
// users never block each other.
package inmemory

import (
	"sync"
	"time"

	"github.com/bmaxza/tender-assistant/models"
	"github.com/bmaxza/tender-assistant/session"
)

// ProfileLoader resolves a user profile at session creation. It runs outside
// the store lock; implementations may do network I/O.
type ProfileLoader func(userID string) models.Profile

// WeightsFn derives preference weights from a profile at session creation.
type WeightsFn func(profile models.Profile) map[string]float64

type Options struct {
	TTL        time.Duration
	MaxContext int
	Profiles   ProfileLoader
	Weights    WeightsFn
	Now        func() time.Time
}

type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session

	ttl        time.Duration
	maxContext int
	profiles   ProfileLoader
	weights    WeightsFn
	now        func() time.Time
}

func NewStore(opts Options) *Store {
	if opts.TTL <= 0 {
		opts.TTL = session.DefaultTTL
	}
	if opts.MaxContext <= 0 {
		opts.MaxContext = session.DefaultMaxContext
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		sessions:   make(map[string]*session.Session),
		ttl:        opts.TTL,
		maxContext: opts.MaxContext,
		profiles:   opts.Profiles,
		weights:    opts.Weights,
		now:        opts.Now,
	}
}

var _ session.Store = (*Store)(nil)

func (s *Store) GetOrCreate(userID string) *session.Session {
	now := s.now()

	s.mu.Lock()
	if sess, ok := s.sessions[userID]; ok {
		if !sess.IdleSince(now, s.ttl) {
			sess.Touch(now)
			s.mu.Unlock()
			return sess
		}
		// Stale: drop it and fall through to create a fresh one.
		delete(s.sessions, userID)
	}
	s.mu.Unlock()

	// Profile lookup happens outside the store lock; it may hit the network.
	profile := models.GuestProfile()
	if s.profiles != nil {
		profile = s.profiles(userID)
	}
	var weights map[string]float64
	if s.weights != nil {
		weights = s.weights(profile)
	}
	fresh := session.New(userID, profile, weights, s.maxContext, now)

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[userID]; ok && !sess.IdleSince(now, s.ttl) {
		// Lost the race to a concurrent request for the same user.
		sess.Touch(now)
		return sess
	}
	s.sessions[userID] = fresh
	return fresh
}

func (s *Store) Get(userID string) (*session.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[userID]
	s.mu.RUnlock()
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	if sess.IdleSince(s.now(), s.ttl) {
		return nil, models.ErrSessionNotFound
	}
	return sess, nil
}

// Sweep removes idle sessions. The idle check takes each session's own lock,
// so a session mid-append is observed with its fresh timestamp and survives.
func (s *Store) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, sess := range s.sessions {
		if sess.IdleSince(now, s.ttl) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *Store) Active() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
