package chat

import (
	"strings"
	"testing"
	"time"

	"github.com/bmaxza/tender-assistant/models"
)

func TestRenderResultsBlocks(t *testing.T) {
	results := []models.MatchResult{
		{Tender: models.TenderRecord{
			Title:           "Network Infrastructure Upgrade",
			ReferenceNumber: "RFQ-2025-001",
			Category:        "IT Services",
			SourceAgency:    "City of Cape Town",
			ClosingDate:     time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
			DocumentLink:    "https://example.org/t1.pdf",
			Status:          models.StatusOpen,
		}},
		{Tender: models.TenderRecord{
			Title:  "Road Resurfacing Programme",
			Status: models.StatusUnknown,
		}},
	}

	out := RenderResults(results)
	if !strings.HasPrefix(out, "Here are 2 recent tenders matching your request:") {
		t.Fatalf("missing count summary: %q", out)
	}
	if !strings.Contains(out, "**Network Infrastructure Upgrade** (RFQ-2025-001)") {
		t.Fatalf("missing title block: %q", out)
	}
	if !strings.Contains(out, "Closes: 1 Jul 2025") {
		t.Fatalf("missing closing date: %q", out)
	}
	if !strings.Contains(out, "Document: https://example.org/t1.pdf") {
		t.Fatalf("missing document link: %q", out)
	}
	if !strings.Contains(out, blockSeparator) {
		t.Fatal("blocks not separated")
	}
	// Second block has no reference and no closing date.
	if !strings.Contains(out, "**Road Resurfacing Programme** (N/A)") {
		t.Fatalf("missing N/A fallback: %q", out)
	}
	if !strings.Contains(out, "Closes: unknown") {
		t.Fatalf("missing unknown closing date: %q", out)
	}
}

func TestRenderResultsSingular(t *testing.T) {
	out := RenderResults([]models.MatchResult{{Tender: models.TenderRecord{Title: "Only One", Status: models.StatusOpen}}})
	if !strings.HasPrefix(out, "Here are 1 recent tender matching your request:") {
		t.Fatalf("singular summary wrong: %q", out)
	}
}

func TestRenderResultsUntitledFallback(t *testing.T) {
	out := RenderResults([]models.MatchResult{{Tender: models.TenderRecord{Status: models.StatusUnknown}}})
	if !strings.Contains(out, "**Untitled** (N/A)") {
		t.Fatalf("missing untitled fallback: %q", out)
	}
}
