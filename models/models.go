package models

import (
	"errors"
	"time"
)

// ErrSessionNotFound is returned when no live session exists for a user
var ErrSessionNotFound = errors.New("session not found")

// ErrCorpusUnavailable is returned when no tender generation has been loaded yet
var ErrCorpusUnavailable = errors.New("tender corpus unavailable")

// ErrPhrasingUnavailable is returned when the phrasing provider cannot be reached
var ErrPhrasingUnavailable = errors.New("phrasing service unavailable")

// ErrEmptyBatch is returned when a refresh delivers zero records
var ErrEmptyBatch = errors.New("empty tender batch")

type TenderStatus string

const (
	StatusOpen    TenderStatus = "open"
	StatusClosed  TenderStatus = "closed"
	StatusUnknown TenderStatus = "unknown"
)

// TenderRecord is an immutable snapshot entity owned by the corpus store.
// ClosingDate is the zero time when the feed value was absent or unparseable.
type TenderRecord struct {
	ID              string       `json:"id"`
	Title           string       `json:"title"`
	ReferenceNumber string       `json:"reference_number"`
	Category        string       `json:"category"`
	SourceAgency    string       `json:"source_agency"`
	ClosingDate     time.Time    `json:"closing_date,omitempty"`
	DocumentLink    string       `json:"document_link,omitempty"`
	SourcePageLink  string       `json:"source_page_link,omitempty"`
	Status          TenderStatus `json:"status"`
}

// ClosedBefore reports whether the record's closing date has passed.
// Records with an unknown closing date are never considered closed.
func (t TenderRecord) ClosedBefore(now time.Time) bool {
	if t.ClosingDate.IsZero() {
		return false
	}
	return t.ClosingDate.Before(now)
}

// ClosesWithin reports whether the record closes inside the given window.
func (t TenderRecord) ClosesWithin(now time.Time, d time.Duration) bool {
	if t.ClosingDate.IsZero() {
		return false
	}
	return !t.ClosingDate.Before(now) && t.ClosingDate.Sub(now) <= d
}

// Exchange is one input/output pair in a session's context.
type Exchange struct {
	ID     string    `json:"id"`
	Input  string    `json:"input"`
	Output string    `json:"output"`
	At     time.Time `json:"at"`
}

// MatchResult is a scored candidate produced by the query matcher. Ephemeral.
type MatchResult struct {
	Tender       TenderRecord `json:"tender"`
	Score        float64      `json:"score"`
	MatchedTerms []string     `json:"matched_terms"`
}

type Verdict string

const (
	VerdictAllowed  Verdict = "allowed"
	VerdictBlocked  Verdict = "blocked"
	VerdictOffTopic Verdict = "off_topic"
)

// FilterVerdict is the outcome of content classification for a prompt.
// Reason is set only for blocked verdicts and names the matched category.
type FilterVerdict struct {
	Verdict Verdict `json:"verdict"`
	Reason  string  `json:"reason,omitempty"`
}

func Allowed() FilterVerdict { return FilterVerdict{Verdict: VerdictAllowed} }

func Blocked(reason string) FilterVerdict {
	return FilterVerdict{Verdict: VerdictBlocked, Reason: reason}
}

func OffTopic() FilterVerdict { return FilterVerdict{Verdict: VerdictOffTopic} }

// Profile is what the external user-profile source knows about a user.
type Profile struct {
	FirstName           string   `json:"first_name"`
	LastName            string   `json:"last_name"`
	CompanyName         string   `json:"company_name"`
	PreferredCategories []string `json:"preferred_categories"`
}

// GuestProfile is the fallback when the profile source has no record.
func GuestProfile() Profile {
	return Profile{FirstName: "Guest"}
}

// Username returns the short display label for the profile.
func (p Profile) Username() string {
	if p.FirstName == "" {
		return "Guest"
	}
	return p.FirstName
}

// FullName returns "First Last", trimmed when either part is missing.
func (p Profile) FullName() string {
	switch {
	case p.FirstName == "" && p.LastName == "":
		return "Guest"
	case p.LastName == "":
		return p.FirstName
	case p.FirstName == "":
		return p.LastName
	}
	return p.FirstName + " " + p.LastName
}
