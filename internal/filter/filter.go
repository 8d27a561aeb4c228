// Package filter classifies incoming prompts before any corpus access.
// Matching is case-insensitive and tolerant of basic obfuscation: repeated
// letters are squeezed and punctuation stripped before comparison.
package filter

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/bmaxza/tender-assistant/models"
)

const (
	ReasonProfanity = "profanity"
	ReasonHate      = "hate_speech"
	ReasonViolence  = "violent_content"
	ReasonSexual    = "sexual_content"
)

var blockedTerms = map[string][]string{
	ReasonProfanity: {
		"idiot", "stupid", "moron", "dumbass", "fuck", "shit", "bitch",
		"asshole", "bastard", "wanker", "prick", "crap",
	},
	ReasonHate: {
		"nazi", "white power", "ethnic cleansing", "gas the", "racial purity",
	},
	ReasonViolence: {
		"kill you", "murder", "shoot up", "bomb threat", "stab", "behead",
		"massacre",
	},
	ReasonSexual: {
		"porn", "nude", "naked pics", "xxx", "blowjob", "orgy",
	},
}

// Procurement vocabulary and generic intent verbs that mark a prompt as
// on-domain even without an agency or category hit.
var domainVocabulary = []string{
	"tender", "tenders", "rfq", "rfp", "bid", "bids", "quotation", "quote",
	"procurement", "supplier", "suppliers", "contract", "contracts",
	"proposal", "proposals", "project", "projects", "opportunity",
	"opportunities", "available", "closing", "deadline", "agency", "agencies",
	"category", "categories",
}

var intentVerbs = []string{
	"find", "show", "search", "list", "looking", "need", "want", "get",
	"give", "help", "recommend",
}

// Filter classifies prompts. The static term lists live here; agency and
// category tokens from the live corpus are passed per call since they change
// with every refresh.
type Filter struct{}

func New() *Filter { return &Filter{} }

// Classify returns the verdict for a prompt. domainTokens carries the folded
// agency/category vocabulary of the current corpus snapshot; it may be nil.
func (f *Filter) Classify(prompt string, domainTokens []string) models.FilterVerdict {
	folded := Fold(prompt)
	squeezed := squeeze(folded)
	tokens := strings.Fields(folded)
	squeezedTokens := strings.Fields(squeezed)
	joined := joinFragments(tokens)

	for _, reason := range []string{ReasonProfanity, ReasonHate, ReasonViolence, ReasonSexual} {
		for _, term := range blockedTerms[reason] {
			if hit(term, folded, squeezed, tokens, squeezedTokens, joined) {
				return models.Blocked(reason)
			}
		}
	}

	if f.onDomain(tokens, squeezedTokens, domainTokens) {
		return models.Allowed()
	}
	return models.OffTopic()
}

func (f *Filter) onDomain(tokens, squeezedTokens, domainTokens []string) bool {
	vocab := make(map[string]struct{}, len(domainVocabulary)+len(intentVerbs)+len(domainTokens))
	for _, w := range domainVocabulary {
		vocab[w] = struct{}{}
	}
	for _, w := range intentVerbs {
		vocab[w] = struct{}{}
	}
	for _, w := range domainTokens {
		vocab[Fold(w)] = struct{}{}
	}
	for _, t := range tokens {
		if _, ok := vocab[t]; ok {
			return true
		}
	}
	for _, t := range squeezedTokens {
		if _, ok := vocab[t]; ok {
			return true
		}
	}
	return false
}

// hit matches a term against single tokens (raw and squeezed) and against the
// whole folded string for multi-word terms, so "idiiiot" still matches
// "idiot". Rejoined fragment runs are matched by containment: the run picks
// up neighbouring short words ("an i d i o t" becomes "anidiot"), so equality
// would miss them.
func hit(term, folded, squeezed string, tokens, squeezedTokens, joined []string) bool {
	if strings.Contains(term, " ") {
		return strings.Contains(folded, term) || strings.Contains(squeezed, squeeze(term))
	}
	st := squeeze(term)
	for _, t := range tokens {
		if t == term || squeeze(t) == st {
			return true
		}
	}
	for _, t := range squeezedTokens {
		if t == term || t == st {
			return true
		}
	}
	for _, j := range joined {
		if strings.Contains(j, term) || strings.Contains(squeeze(j), st) {
			return true
		}
	}
	return false
}

// joinFragments glues runs of 1-2 letter fragments back together so
// punctuation-split words ("i.d.i.o.t" folded to "i d i o t") become whole
// tokens again. Ordinary words are long enough to be left alone.
func joinFragments(tokens []string) []string {
	var out []string
	var run []string
	flush := func() {
		if len(run) >= 2 {
			joined := strings.Join(run, "")
			if len(joined) >= 3 {
				out = append(out, joined)
			}
		}
		run = run[:0]
	}
	for _, t := range tokens {
		if len(t) <= 2 {
			run = append(run, t)
			continue
		}
		flush()
	}
	flush()
	return out
}

// Fold lowercases, NFKC-normalizes and strips everything but letters, digits
// and spaces, collapsing runs of whitespace.
func Fold(s string) string {
	s = norm.NFKC.String(strings.ToLower(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// squeeze collapses consecutive duplicate runes: "heyyyy" -> "hey".
func squeeze(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var last rune = -1
	for _, r := range s {
		if r == last {
			continue
		}
		b.WriteRune(r)
		last = r
	}
	return b.String()
}
