// Package matcher ranks tender records against a free-text prompt. Scoring is
// a pure function with enumerated weight constants; identical inputs always
// produce the identical ordered result, including tie-break order.
package matcher

import (
	"sort"
	"strings"
	"time"

	"github.com/bmaxza/tender-assistant/internal/filter"
	"github.com/bmaxza/tender-assistant/models"
)

const (
	titleWeight    = 1.0
	categoryWeight = 1.0
	agencyWeight   = 2.0
	contextWeight  = 0.25
	docBonus       = 1.5
	urgencyBonus   = 1.0

	minScore      = 1.0
	maxResults    = 10
	urgencyWindow = 7 * 24 * time.Hour
	fuzzyMinLen   = 4
	contextDepth  = 2
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "me": {}, "my": {}, "in": {}, "on": {},
	"of": {}, "for": {}, "to": {}, "is": {}, "are": {}, "was": {}, "be": {},
	"with": {}, "and": {}, "or": {}, "what": {}, "whats": {}, "which": {},
	"can": {}, "you": {}, "i": {}, "we": {}, "please": {}, "some": {},
	"any": {}, "do": {}, "does": {}, "there": {}, "about": {}, "at": {},
	"from": {}, "by": {}, "that": {}, "this": {}, "all": {},
}

var urgencyTerms = []string{"closing", "deadline", "this week", "urgent", "urgently", "soon"}

var historicalTerms = []string{"closed", "expired", "past", "historical", "previous", "old"}

// Matcher scores tenders against prompts. The clock is injectable for tests.
type Matcher struct {
	now func() time.Time
}

func New() *Matcher { return &Matcher{now: time.Now} }

// NewAt builds a matcher with a fixed clock.
func NewAt(now func() time.Time) *Matcher { return &Matcher{now: now} }

// Search ranks the snapshot against the prompt, boosted by per-user preference
// weights and lightly by terms from the recent conversation context. An empty
// tokenized prompt yields an empty result so the caller can ask for
// clarification instead of showing unrelated tenders.
func (m *Matcher) Search(prompt string, snapshot []models.TenderRecord, prefWeights map[string]float64, context []models.Exchange) []models.MatchResult {
	folded := filter.Fold(prompt)
	terms := Tokenize(prompt)
	if len(terms) == 0 {
		return nil
	}

	now := m.now()
	promptTokens := strings.Fields(folded)
	urgent := hasIntent(folded, promptTokens, urgencyTerms)
	historical := hasIntent(folded, promptTokens, historicalTerms)
	ctxTerms := contextTerms(context)

	results := make([]models.MatchResult, 0, len(snapshot))
	for _, t := range snapshot {
		if t.ClosedBefore(now) && !historical {
			continue
		}
		score, matched := scoreRecord(t, terms, ctxTerms, prefWeights)
		if len(matched) == 0 {
			// Bonuses never resurrect a record no prompt term touched.
			continue
		}
		if t.DocumentLink != "" {
			score += docBonus
		}
		if urgent && t.ClosesWithin(now, urgencyWindow) {
			score += urgencyBonus
		}
		if score < minScore {
			continue
		}
		results = append(results, models.MatchResult{Tender: t, Score: score, MatchedTerms: matched})
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !closingEqual(a.Tender.ClosingDate, b.Tender.ClosingDate) {
			return closingBefore(a.Tender.ClosingDate, b.Tender.ClosingDate)
		}
		if a.Tender.Title != b.Tender.Title {
			return a.Tender.Title < b.Tender.Title
		}
		return a.Tender.ID < b.Tender.ID
	})

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

func scoreRecord(t models.TenderRecord, terms, ctxTerms []string, prefWeights map[string]float64) (float64, []string) {
	titleTokens := Tokenize(t.Title)
	categoryTokens := Tokenize(t.Category)
	agencyTokens := Tokenize(t.SourceAgency)

	var score float64
	matched := make([]string, 0, len(terms))
	for _, term := range terms {
		w := 0.0
		if matchesAny(term, agencyTokens, true) {
			w = agencyWeight
		} else if matchesAny(term, categoryTokens, false) {
			w = categoryWeight
		} else if matchesAny(term, titleTokens, false) {
			w = titleWeight
		}
		if w > 0 {
			score += w
			matched = append(matched, term)
		}
	}

	for _, tok := range append(append([]string{}, categoryTokens...), agencyTokens...) {
		if boost, ok := prefWeights[tok]; ok {
			score += boost
		}
	}

	for _, term := range ctxTerms {
		if matchesAny(term, categoryTokens, false) || matchesAny(term, agencyTokens, false) {
			score += contextWeight
		}
	}

	return score, matched
}

// matchesAny reports whether term matches one of the tokens exactly or within
// edit distance 1 (terms of fuzzyMinLen or longer). Agency tokens additionally
// match on prefix, so abbreviated agency names ("joburg", "escom") still hit.
func matchesAny(term string, tokens []string, agency bool) bool {
	for _, tok := range tokens {
		if term == tok {
			return true
		}
		if len(term) >= fuzzyMinLen {
			if withinOneEdit(term, tok) {
				return true
			}
			if agency && (strings.HasPrefix(tok, term) || strings.HasPrefix(term, tok)) {
				return true
			}
		}
	}
	return false
}

// Tokenize lowercases, strips punctuation and drops stop words.
func Tokenize(s string) []string {
	fields := strings.Fields(filter.Fold(s))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, stop := stopWords[f]; stop {
			continue
		}
		out = append(out, f)
	}
	return out
}

// contextTerms collects tokens from the most recent user inputs, deduplicated
// in first-seen order.
func contextTerms(context []models.Exchange) []string {
	start := len(context) - contextDepth
	if start < 0 {
		start = 0
	}
	seen := make(map[string]struct{})
	var out []string
	for _, ex := range context[start:] {
		for _, term := range Tokenize(ex.Input) {
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			out = append(out, term)
		}
	}
	return out
}

// hasIntent matches single-word intent terms against whole tokens and
// multi-word ones against the folded prompt, so "gold" never trips "old".
func hasIntent(folded string, tokens []string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(t, " ") {
			if strings.Contains(folded, t) {
				return true
			}
			continue
		}
		for _, tok := range tokens {
			if tok == t {
				return true
			}
		}
	}
	return false
}

// withinOneEdit reports whether a and b differ by at most one insertion,
// deletion or substitution.
func withinOneEdit(a, b string) bool {
	la, lb := len(a), len(b)
	if la > lb {
		a, b = b, a
		la, lb = lb, la
	}
	if lb-la > 1 {
		return false
	}
	if la == lb {
		diffs := 0
		for i := 0; i < la; i++ {
			if a[i] != b[i] {
				diffs++
				if diffs > 1 {
					return false
				}
			}
		}
		return true
	}
	// b is exactly one longer; allow a single skip in b
	i, j, skipped := 0, 0, false
	for i < la {
		if a[i] == b[j] {
			i++
			j++
			continue
		}
		if skipped {
			return false
		}
		skipped = true
		j++
	}
	return true
}

func closingEqual(a, b time.Time) bool { return a.Equal(b) }

// closingBefore orders known closing dates ascending, unknown (zero) last.
func closingBefore(a, b time.Time) bool {
	if a.IsZero() {
		return false
	}
	if b.IsZero() {
		return true
	}
	return a.Before(b)
}
