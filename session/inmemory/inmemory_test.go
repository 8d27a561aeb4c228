package inmemory

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bmaxza/tender-assistant/models"
	"github.com/bmaxza/tender-assistant/session"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestStore(t *testing.T) (*Store, *clock) {
	t.Helper()
	c := &clock{now: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)}
	s := NewStore(Options{
		TTL:        2 * time.Hour,
		MaxContext: 20,
		Now:        c.Now,
	})
	return s, c
}

func appendN(sess *session.Session, n int, at time.Time) {
	for i := 0; i < n; i++ {
		sess.Append(models.Exchange{
			ID:     fmt.Sprintf("ex-%d", i),
			Input:  fmt.Sprintf("in-%d", i),
			Output: fmt.Sprintf("out-%d", i),
			At:     at,
		}, at)
	}
}

func TestGetOrCreateReusesLiveSession(t *testing.T) {
	s, c := newTestStore(t)
	first := s.GetOrCreate("u1")
	c.Advance(30 * time.Minute)
	second := s.GetOrCreate("u1")
	if first != second {
		t.Fatal("live session was not reused")
	}
	if s.Active() != 1 {
		t.Fatalf("Active = %d, want 1", s.Active())
	}
}

func TestGetOrCreateReplacesStaleSession(t *testing.T) {
	s, c := newTestStore(t)
	first := s.GetOrCreate("u1")
	appendN(first, 3, c.Now())

	c.Advance(2*time.Hour + time.Minute)
	second := s.GetOrCreate("u1")
	if first == second {
		t.Fatal("stale session was reused")
	}
	if second.ContextLen() != 0 {
		t.Fatalf("fresh session context len = %d, want 0", second.ContextLen())
	}
	if first.ID() == second.ID() {
		t.Fatal("recreated session kept the old session id")
	}
}

func TestContextCapEvictsOldest(t *testing.T) {
	s, c := newTestStore(t)
	sess := s.GetOrCreate("u1")
	appendN(sess, 21, c.Now())

	ctx := sess.Context()
	if len(ctx) != 20 {
		t.Fatalf("context len = %d, want 20", len(ctx))
	}
	if ctx[0].Input != "in-1" {
		t.Fatalf("oldest surviving exchange = %s, want in-1", ctx[0].Input)
	}
	if ctx[19].Input != "in-20" {
		t.Fatalf("newest exchange = %s, want in-20", ctx[19].Input)
	}
}

func TestGetUnknownUser(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.Get("nobody"); !errors.Is(err, models.ErrSessionNotFound) {
		t.Fatalf("Get unknown err = %v, want ErrSessionNotFound", err)
	}
}

func TestGetExpiredUser(t *testing.T) {
	s, c := newTestStore(t)
	s.GetOrCreate("u1")
	c.Advance(3 * time.Hour)
	if _, err := s.Get("u1"); !errors.Is(err, models.ErrSessionNotFound) {
		t.Fatalf("Get expired err = %v, want ErrSessionNotFound", err)
	}
}

func TestSweepRemovesOnlyIdleSessions(t *testing.T) {
	s, c := newTestStore(t)
	s.GetOrCreate("idle")
	c.Advance(90 * time.Minute)
	s.GetOrCreate("fresh")
	c.Advance(45 * time.Minute)

	// idle is now 2h15m old, fresh only 45m.
	removed := s.Sweep(c.Now())
	if removed != 1 {
		t.Fatalf("Sweep removed %d, want 1", removed)
	}
	if _, err := s.Get("fresh"); err != nil {
		t.Fatalf("fresh session swept: %v", err)
	}
	if _, err := s.Get("idle"); !errors.Is(err, models.ErrSessionNotFound) {
		t.Fatalf("idle session survived sweep: %v", err)
	}
}

func TestLastActiveMonotonic(t *testing.T) {
	s, c := newTestStore(t)
	sess := s.GetOrCreate("u1")
	c.Advance(10 * time.Minute)
	sess.Touch(c.Now())
	before := sess.LastActiveAt()
	sess.Touch(before.Add(-time.Hour))
	if sess.LastActiveAt().Before(before) {
		t.Fatal("last_active_at moved backwards")
	}
}

func TestProfileLoadedOncePerSession(t *testing.T) {
	c := &clock{now: time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)}
	var mu sync.Mutex
	lookups := 0
	s := NewStore(Options{
		TTL: 2 * time.Hour,
		Now: c.Now,
		Profiles: func(userID string) models.Profile {
			mu.Lock()
			lookups++
			mu.Unlock()
			return models.Profile{FirstName: "Thabo", LastName: "Nkosi", PreferredCategories: []string{"IT Services"}}
		},
		Weights: func(p models.Profile) map[string]float64 {
			return map[string]float64{"it": 1.5}
		},
	})

	sess := s.GetOrCreate("u1")
	s.GetOrCreate("u1")
	s.GetOrCreate("u1")
	if lookups != 1 {
		t.Fatalf("profile looked up %d times, want 1", lookups)
	}
	if sess.Profile().FullName() != "Thabo Nkosi" {
		t.Fatalf("FullName = %q", sess.Profile().FullName())
	}
	if w := sess.PreferenceWeights()["it"]; w != 1.5 {
		t.Fatalf("weights[it] = %v", w)
	}
}

func TestConcurrentUsersDoNotInterfere(t *testing.T) {
	s, c := newTestStore(t)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", i%4)
			for j := 0; j < 200; j++ {
				sess := s.GetOrCreate(userID)
				sess.Append(models.Exchange{Input: "q", Output: "a", At: c.Now()}, c.Now())
				_ = sess.ContextLen()
			}
		}(i)
	}
	wg.Wait()

	if s.Active() != 4 {
		t.Fatalf("Active = %d, want 4", s.Active())
	}
	for i := 0; i < 4; i++ {
		sess, err := s.Get(fmt.Sprintf("user-%d", i))
		if err != nil {
			t.Fatalf("Get user-%d: %v", i, err)
		}
		if sess.ContextLen() != 20 {
			t.Fatalf("user-%d context len = %d, want 20", i, sess.ContextLen())
		}
	}
}

func TestSweepConcurrentWithRequests(t *testing.T) {
	s, c := newTestStore(t)
	var wg sync.WaitGroup
	stop := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				s.Sweep(c.Now())
			}
		}
	}()
	for i := 0; i < 500; i++ {
		sess := s.GetOrCreate("busy")
		sess.Append(models.Exchange{Input: "q", Output: "a", At: c.Now()}, c.Now())
	}
	close(stop)
	wg.Wait()

	if _, err := s.Get("busy"); err != nil {
		t.Fatalf("active session swept mid-flight: %v", err)
	}
}
