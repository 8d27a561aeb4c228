package chat

import (
	"fmt"
	"strings"

	"github.com/bmaxza/tender-assistant/models"
)

const (
	blockedMessage = "I can't help with that request. Let's keep things focused on tenders and procurement."

	offTopicMessage = "I'm here to help you find and analyze tenders. Try asking about a specific category or keyword!"

	corpusUnavailableMessage = "Tender data is still loading. Please try again in a moment."

	noMatchMessage = "I couldn't find tenders matching that. Try a specific category, agency or keyword - for example \"IT tenders closing this week\"."
)

const blockSeparator = "\n\n---\n\n"

// RenderResults produces the deterministic structured rendering: a count
// summary followed by one block per tender.
func RenderResults(results []models.MatchResult) string {
	var b strings.Builder
	plural := "tenders"
	if len(results) == 1 {
		plural = "tender"
	}
	fmt.Fprintf(&b, "Here are %d recent %s matching your request:\n\n", len(results), plural)

	blocks := make([]string, 0, len(results))
	for _, r := range results {
		blocks = append(blocks, renderBlock(r.Tender))
	}
	b.WriteString(strings.Join(blocks, blockSeparator))
	return b.String()
}

func renderBlock(t models.TenderRecord) string {
	title := t.Title
	if title == "" {
		title = "Untitled"
	}
	ref := t.ReferenceNumber
	if ref == "" {
		ref = "N/A"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s** (%s)\n", title, ref)
	if t.Category != "" {
		fmt.Fprintf(&b, "Category: %s\n", t.Category)
	}
	if t.SourceAgency != "" {
		fmt.Fprintf(&b, "Agency: %s\n", t.SourceAgency)
	}
	if t.ClosingDate.IsZero() {
		b.WriteString("Closes: unknown\n")
	} else {
		fmt.Fprintf(&b, "Closes: %s\n", t.ClosingDate.Format("2 Jan 2006"))
	}
	fmt.Fprintf(&b, "Status: %s", t.Status)
	if t.DocumentLink != "" {
		fmt.Fprintf(&b, "\nDocument: %s", t.DocumentLink)
	}
	if t.SourcePageLink != "" {
		fmt.Fprintf(&b, "\nSource: %s", t.SourcePageLink)
	}
	return b.String()
}
