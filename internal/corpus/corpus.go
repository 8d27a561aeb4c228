// Package corpus holds the in-memory tender snapshot. The store is
// double-buffered: a refresh stages a complete new generation and publishes it
// with a single atomic pointer swap, so readers never observe a half-written
// batch and a failed refresh leaves the previous generation intact.
package corpus

import (
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bmaxza/tender-assistant/models"
)

type generation struct {
	records  []models.TenderRecord
	loadedAt time.Time
}

// Store publishes immutable tender generations. Zero value is usable; until
// the first commit CurrentSnapshot returns nil, which callers treat as
// models.ErrCorpusUnavailable.
type Store struct {
	current atomic.Pointer[generation]
}

func NewStore() *Store { return &Store{} }

// CurrentSnapshot returns the last fully-loaded generation, or nil when no
// refresh has ever completed. The returned slice must not be mutated.
func (s *Store) CurrentSnapshot() []models.TenderRecord {
	gen := s.current.Load()
	if gen == nil {
		return nil
	}
	return gen.records
}

// CommitRefresh atomically publishes a new generation. An empty batch is
// rejected so a broken feed scan never erases the previously committed corpus.
func (s *Store) CommitRefresh(records []models.TenderRecord) error {
	if len(records) == 0 {
		return models.ErrEmptyBatch
	}
	staged := make([]models.TenderRecord, len(records))
	copy(staged, records)
	s.current.Store(&generation{records: staged, loadedAt: time.Now()})
	return nil
}

// Len reports the size of the current generation, 0 when none is loaded.
func (s *Store) Len() int {
	return len(s.CurrentSnapshot())
}

// LoadedAt reports when the current generation was committed.
func (s *Store) LoadedAt() (time.Time, bool) {
	gen := s.current.Load()
	if gen == nil {
		return time.Time{}, false
	}
	return gen.loadedAt, true
}

// Agencies returns the sorted distinct sourceAgency values of the current
// generation.
func (s *Store) Agencies() []string {
	return s.distinct(func(t models.TenderRecord) string { return t.SourceAgency })
}

// Categories returns the sorted distinct category values of the current
// generation.
func (s *Store) Categories() []string {
	return s.distinct(func(t models.TenderRecord) string { return t.Category })
}

func (s *Store) distinct(field func(models.TenderRecord) string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, t := range s.CurrentSnapshot() {
		v := strings.TrimSpace(field(t))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
