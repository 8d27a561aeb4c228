package server

import (
	"context"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/bmaxza/tender-assistant/config"
	"github.com/bmaxza/tender-assistant/internal/corpus"
	"github.com/bmaxza/tender-assistant/session"
	"github.com/bmaxza/tender-assistant/tenders"
)

const refreshLockKey = "bmax:refresh:lock"
const refreshLockTTL = 5 * time.Minute

// Scheduler drives the two background sweeps: corpus refresh and session
// expiry. Both tolerate being delayed or skipped; a failed refresh keeps the
// previous generation and is retried on the next tick.
type Scheduler struct {
	Corpus     *corpus.Store
	Retriever  *tenders.Retriever
	Sessions   session.Store
	Rdb        *redis.Client
	Tenders    appconfig.TendersConfig
	SweepEvery time.Duration
	Stop       chan struct{}

	lastRefresh time.Time
	logger      *log.Logger
}

func (s *Scheduler) Start() {
	if s.logger == nil {
		s.logger = log.New(log.Writer(), "[SWEEP] ", log.LstdFlags)
	}

	go s.refreshLoop()
	go s.expiryLoop()
}

func (s *Scheduler) refreshLoop() {
	// With a cron schedule the loop wakes every minute and checks dueness;
	// otherwise it ticks at the fixed interval.
	every := s.Tenders.RefreshInterval
	if s.Tenders.RefreshCron != "" {
		every = time.Minute
	}

	s.refreshTick()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.Stop:
			return
		case <-ticker.C:
			if s.Tenders.RefreshCron != "" && !isDue(s.Tenders.RefreshCron, s.lastRefresh) {
				continue
			}
			s.refreshTick()
		}
	}
}

func (s *Scheduler) refreshTick() {
	ctx := context.Background()

	// Distributed lock so replicated deployments don't scan the feed
	// concurrently; a missing redis client skips the lock.
	if s.Rdb != nil {
		ok, err := s.Rdb.SetNX(ctx, refreshLockKey, "1", refreshLockTTL).Result()
		if err != nil {
			s.logger.Printf("refresh lock: %v", err)
		} else if !ok {
			return
		} else {
			defer s.Rdb.Del(ctx, refreshLockKey)
		}
	}

	if err := s.Retriever.Refresh(ctx, s.Corpus); err != nil {
		s.logger.Printf("corpus refresh failed, keeping previous generation: %v", err)
		return
	}
	s.lastRefresh = time.Now()
	corpusTenders.Set(float64(s.Corpus.Len()))
}

func (s *Scheduler) expiryLoop() {
	every := s.SweepEvery
	if every <= 0 {
		every = 5 * time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.Stop:
			return
		case <-ticker.C:
			removed := s.Sessions.Sweep(time.Now())
			if removed > 0 {
				s.logger.Printf("expired %d sessions", removed)
			}
			activeSessions.Set(float64(s.Sessions.Active()))
		}
	}
}

// isDue determines whether a refresh scheduled by cronSpec should run now.
// Supports "@hourly", "@daily" and standard 5-field cron expressions; an
// invalid expression falls back to hourly.
func isDue(cronSpec string, last time.Time) bool {
	now := time.Now()
	switch cronSpec {
	case "@hourly":
		return last.IsZero() || now.Sub(last) >= time.Hour
	case "@daily":
		return last.IsZero() || now.Sub(last) >= 24*time.Hour
	default:
		expr, err := cronexpr.Parse(cronSpec)
		if err != nil {
			return last.IsZero() || now.Sub(last) >= time.Hour
		}
		if last.IsZero() {
			return true
		}
		return !expr.Next(last).After(now)
	}
}
