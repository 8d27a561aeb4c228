// Package chat wires filter, session, matcher and formatter into the prompt
// pipeline exposed to the transport layer.
package chat

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bmaxza/tender-assistant/internal/corpus"
	"github.com/bmaxza/tender-assistant/internal/filter"
	"github.com/bmaxza/tender-assistant/internal/matcher"
	"github.com/bmaxza/tender-assistant/models"
	"github.com/bmaxza/tender-assistant/provider"
	"github.com/bmaxza/tender-assistant/session"
)

// Reply is the outward envelope for one processed prompt.
type Reply struct {
	Response      string    `json:"response"`
	Username      string    `json:"username"`
	FullName      string    `json:"full_name"`
	Timestamp     time.Time `json:"timestamp"`
	SessionActive bool      `json:"session_active"`
	TotalMessages int       `json:"total_messages"`
	Filtered      bool      `json:"filtered"`
	Degraded      bool      `json:"degraded,omitempty"`
}

type Assistant struct {
	Corpus   *corpus.Store
	Sessions session.Store
	Filter   *filter.Filter
	Matcher  *matcher.Matcher
	Phrasing provider.Provider

	logger *log.Logger
	now    func() time.Time
}

func NewAssistant(corpusStore *corpus.Store, sessions session.Store, phrasing provider.Provider) *Assistant {
	return &Assistant{
		Corpus:   corpusStore,
		Sessions: sessions,
		Filter:   filter.New(),
		Matcher:  matcher.New(),
		Phrasing: phrasing,
		logger:   log.New(log.Writer(), "[CHAT] ", log.LstdFlags),
		now:      time.Now,
	}
}

// ProcessPrompt runs the full pipeline: classify, search, render, phrase,
// record. The exchange is appended to the session only after matching and
// formatting succeeded, so a mid-flight failure never leaves a half-recorded
// turn. Filtered prompts short-circuit before any corpus access but are still
// recorded in the context.
func (a *Assistant) ProcessPrompt(ctx context.Context, prompt, userID string) Reply {
	prompt = strings.TrimSpace(prompt)
	userID = strings.TrimSpace(userID)
	now := a.now()

	sess := a.Sessions.GetOrCreate(userID)

	verdict := a.Filter.Classify(prompt, a.domainTokens())
	switch verdict.Verdict {
	case models.VerdictBlocked:
		a.logger.Printf("blocked prompt from %s (%s)", userID, verdict.Reason)
		return a.finish(sess, prompt, blockedMessage, now, true, false)
	case models.VerdictOffTopic:
		return a.finish(sess, prompt, offTopicMessage, now, true, false)
	}

	snapshot := a.Corpus.CurrentSnapshot()
	if snapshot == nil {
		a.logger.Printf("corpus unavailable for prompt from %s", userID)
		return a.finish(sess, prompt, corpusUnavailableMessage, now, false, false)
	}

	results := a.Matcher.Search(prompt, snapshot, sess.PreferenceWeights(), sess.Context())
	if len(results) == 0 {
		return a.finish(sess, prompt, noMatchMessage, now, false, false)
	}

	structured := RenderResults(results)
	response, degraded := a.phrase(ctx, prompt, structured, results)
	return a.finish(sess, prompt, response, now, false, degraded)
}

// phrase attempts the prose wrapping; on any failure the structured rendering
// is served as-is and the reply is marked degraded.
func (a *Assistant) phrase(ctx context.Context, prompt, structured string, results []models.MatchResult) (string, bool) {
	if a.Phrasing == nil || !a.Phrasing.Available() {
		return structured, true
	}
	phrased, err := a.Phrasing.PhraseResults(ctx, prompt, structured, results)
	if err != nil {
		a.logger.Printf("phrasing fallback: %v", err)
		return structured, true
	}
	return phrased, false
}

func (a *Assistant) finish(sess *session.Session, input, output string, now time.Time, filtered, degraded bool) Reply {
	sess.Append(models.Exchange{
		ID:     uuid.NewString(),
		Input:  input,
		Output: output,
		At:     now,
	}, now)
	p := sess.Profile()
	return Reply{
		Response:      output,
		Username:      p.Username(),
		FullName:      p.FullName(),
		Timestamp:     now,
		SessionActive: true,
		TotalMessages: sess.ContextLen(),
		Filtered:      filtered,
		Degraded:      degraded,
	}
}

// domainTokens folds the live agency and category vocabulary for the filter's
// off-topic gate.
func (a *Assistant) domainTokens() []string {
	var out []string
	for _, v := range a.Corpus.Agencies() {
		out = append(out, matcher.Tokenize(v)...)
	}
	for _, v := range a.Corpus.Categories() {
		out = append(out, matcher.Tokenize(v)...)
	}
	return out
}

// PhrasingAvailable reports whether prose wrapping is configured, for the
// health endpoint.
func (a *Assistant) PhrasingAvailable() bool {
	return a.Phrasing != nil && a.Phrasing.Available()
}
