// Package tenders turns raw feed records into corpus generations.
package tenders

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"

	"github.com/bmaxza/tender-assistant/internal/corpus"
	"github.com/bmaxza/tender-assistant/models"
	"github.com/bmaxza/tender-assistant/tenders/tenderapi"
)

// Feed is what the retriever needs from the tender source.
type Feed interface {
	FetchAll(ctx context.Context) ([]tenderapi.RawTender, error)
}

// Retriever fetches the feed and commits complete generations to the corpus.
type Retriever struct {
	Client Feed
	logger *log.Logger
}

func NewRetriever(client Feed) *Retriever {
	return &Retriever{
		Client: client,
		logger: log.New(log.Writer(), "[CORPUS] ", log.LstdFlags),
	}
}

// Refresh scans the whole feed and atomically publishes the result. A failed
// or empty scan leaves the current generation untouched.
func (r *Retriever) Refresh(ctx context.Context, store *corpus.Store) error {
	start := time.Now()
	raw, err := r.Client.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("tender feed scan: %w", err)
	}

	records := Convert(raw, time.Now())
	if err := store.CommitRefresh(records); err != nil {
		return fmt.Errorf("commit refresh: %w", err)
	}
	r.logger.Printf("refreshed %d tenders in %s", len(records), time.Since(start).Round(time.Millisecond))
	return nil
}

// Convert normalizes raw feed records. Closing dates come in mixed formats;
// anything unparseable is kept with a zero date and unknown status rather
// than dropped.
func Convert(raw []tenderapi.RawTender, now time.Time) []models.TenderRecord {
	out := make([]models.TenderRecord, 0, len(raw))
	for _, rt := range raw {
		rec := models.TenderRecord{
			ID:              strings.TrimSpace(rt.ID),
			Title:           strings.TrimSpace(rt.Title),
			ReferenceNumber: strings.TrimSpace(rt.ReferenceNumber),
			Category:        strings.TrimSpace(rt.Category),
			SourceAgency:    strings.TrimSpace(rt.SourceAgency),
			DocumentLink:    strings.TrimSpace(rt.Link),
			SourcePageLink:  strings.TrimSpace(rt.SourcePage),
		}
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		if d := strings.TrimSpace(rt.ClosingDate); d != "" {
			if parsed, err := dateparse.ParseAny(d); err == nil {
				rec.ClosingDate = parsed
			}
		}
		rec.Status = deriveStatus(rt.Status, rec.ClosingDate, now)
		out = append(out, rec)
	}
	return out
}

func deriveStatus(feedStatus string, closing time.Time, now time.Time) models.TenderStatus {
	switch strings.ToLower(strings.TrimSpace(feedStatus)) {
	case "open":
		return models.StatusOpen
	case "closed":
		return models.StatusClosed
	}
	if closing.IsZero() {
		return models.StatusUnknown
	}
	if closing.Before(now) {
		return models.StatusClosed
	}
	return models.StatusOpen
}
