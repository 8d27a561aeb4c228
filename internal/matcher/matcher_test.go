package matcher

import (
	"reflect"
	"testing"
	"time"

	"github.com/bmaxza/tender-assistant/models"
)

var testNow = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

func fixedMatcher() *Matcher {
	return NewAt(func() time.Time { return testNow })
}

func days(n int) time.Time { return testNow.Add(time.Duration(n) * 24 * time.Hour) }

func testCorpus() []models.TenderRecord {
	return []models.TenderRecord{
		{
			ID:              "t1",
			Title:           "Network Infrastructure Upgrade",
			ReferenceNumber: "RFQ-2025-001",
			Category:        "IT Services",
			SourceAgency:    "City of Cape Town",
			ClosingDate:     days(14),
			DocumentLink:    "https://example.org/t1.pdf",
			Status:          models.StatusOpen,
		},
		{
			ID:           "t2",
			Title:        "Road Resurfacing Programme",
			Category:     "Civil Works",
			SourceAgency: "SANRAL",
			ClosingDate:  days(20),
			Status:       models.StatusOpen,
		},
		{
			ID:           "t3",
			Title:        "Catering for Provincial Events",
			Category:     "Hospitality",
			SourceAgency: "Western Cape Government",
			ClosingDate:  days(5),
			Status:       models.StatusOpen,
		},
	}
}

func TestSearchCapeTownScenario(t *testing.T) {
	m := fixedMatcher()
	results := m.Search("Show me IT tenders in Cape Town", testCorpus(), nil, nil)
	if len(results) == 0 {
		t.Fatal("expected results")
	}
	if results[0].Tender.ID != "t1" {
		t.Fatalf("top result = %s, want t1", results[0].Tender.ID)
	}
}

func TestSearchDeterministic(t *testing.T) {
	m := fixedMatcher()
	corpus := testCorpus()
	weights := map[string]float64{"hospitality": 1.5}
	first := m.Search("catering tenders cape town", corpus, weights, nil)
	for i := 0; i < 5; i++ {
		again := m.Search("catering tenders cape town", corpus, weights, nil)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differed from first run", i)
		}
	}
}

func TestSearchTieBreakByTitle(t *testing.T) {
	m := fixedMatcher()
	closing := days(10)
	corpus := []models.TenderRecord{
		{ID: "b", Title: "Beta Fencing Tender", Category: "Fencing", ClosingDate: closing},
		{ID: "a", Title: "Alpha Fencing Tender", Category: "Fencing", ClosingDate: closing},
	}
	results := m.Search("fencing tender", corpus, nil, nil)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Tender.ID != "a" || results[1].Tender.ID != "b" {
		t.Fatalf("tie-break order = %s, %s; want a, b", results[0].Tender.ID, results[1].Tender.ID)
	}
}

func TestSearchExcludesClosedByDefault(t *testing.T) {
	m := fixedMatcher()
	corpus := []models.TenderRecord{
		{ID: "gone", Title: "Old IT Support Tender", Category: "IT Services", ClosingDate: days(-3), Status: models.StatusClosed},
		{ID: "live", Title: "New IT Support Tender", Category: "IT Services", ClosingDate: days(3), Status: models.StatusOpen},
	}

	results := m.Search("IT support tenders", corpus, nil, nil)
	for _, r := range results {
		if r.Tender.ID == "gone" {
			t.Fatal("closed tender returned without historical intent")
		}
	}

	results = m.Search("show me closed IT support tenders", corpus, nil, nil)
	found := false
	for _, r := range results {
		if r.Tender.ID == "gone" {
			found = true
		}
	}
	if !found {
		t.Fatal("historical prompt should include closed tenders")
	}
}

func TestSearchUrgencyBonus(t *testing.T) {
	m := fixedMatcher()
	corpus := []models.TenderRecord{
		{ID: "near", Title: "Security Services Tender", Category: "Security", ClosingDate: days(3)},
	}
	calm := m.Search("security tenders", corpus, nil, nil)
	urgent := m.Search("security tenders closing this week", corpus, nil, nil)
	if len(calm) != 1 || len(urgent) != 1 {
		t.Fatalf("got %d/%d results, want 1/1", len(calm), len(urgent))
	}
	if urgent[0].Score != calm[0].Score+urgencyBonus {
		t.Fatalf("urgent score %.2f, want %.2f", urgent[0].Score, calm[0].Score+urgencyBonus)
	}
}

func TestSearchPreferenceWeights(t *testing.T) {
	m := fixedMatcher()
	closing := days(10)
	corpus := []models.TenderRecord{
		{ID: "plain", Title: "Supply Tender A", Category: "Construction", ClosingDate: closing},
		{ID: "liked", Title: "Supply Tender B", Category: "Hospitality", ClosingDate: closing},
	}
	weights := map[string]float64{"hospitality": 1.5}
	results := m.Search("supply tender", corpus, weights, nil)
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Tender.ID != "liked" {
		t.Fatalf("preferred category should rank first, got %s", results[0].Tender.ID)
	}
}

func TestSearchFuzzyAndAgencyPrefix(t *testing.T) {
	m := fixedMatcher()
	corpus := []models.TenderRecord{
		{ID: "esk", Title: "Transformer Maintenance", Category: "Electrical", SourceAgency: "Eskom Holdings", ClosingDate: days(9)},
	}
	// One-edit typo on the agency name.
	if results := m.Search("eskm tenders", corpus, nil, nil); len(results) != 1 {
		t.Fatalf("fuzzy agency match failed, got %d results", len(results))
	}
	// Abbreviated agency prefix.
	if results := m.Search("anything from eskom holdings", corpus, nil, nil); len(results) != 1 {
		t.Fatalf("agency match failed, got %d results", len(results))
	}
}

func TestSearchEmptyPromptAfterStopWords(t *testing.T) {
	m := fixedMatcher()
	if results := m.Search("the of in a", testCorpus(), nil, nil); results != nil {
		t.Fatalf("stop-word-only prompt returned %d results, want none", len(results))
	}
	if results := m.Search("", testCorpus(), nil, nil); results != nil {
		t.Fatalf("empty prompt returned %d results, want none", len(results))
	}
}

func TestSearchNoBonusWithoutTermMatch(t *testing.T) {
	m := fixedMatcher()
	corpus := []models.TenderRecord{
		{ID: "doc", Title: "Borehole Drilling", Category: "Water", ClosingDate: days(6), DocumentLink: "https://example.org/doc.pdf"},
	}
	if results := m.Search("fleet vehicle leasing", corpus, nil, nil); len(results) != 0 {
		t.Fatalf("document bonus resurrected an unmatched record")
	}
}

func TestSearchCapsResults(t *testing.T) {
	m := fixedMatcher()
	corpus := make([]models.TenderRecord, 0, 25)
	for i := 0; i < 25; i++ {
		corpus = append(corpus, models.TenderRecord{
			ID:          string(rune('a' + i)),
			Title:       "Generator Maintenance",
			Category:    "Electrical",
			ClosingDate: days(i + 1),
		})
	}
	results := m.Search("generator maintenance", corpus, nil, nil)
	if len(results) != maxResults {
		t.Fatalf("got %d results, want %d", len(results), maxResults)
	}
}

func TestWithinOneEdit(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"tender", "tender", true},
		{"tender", "tenders", true},
		{"tender", "tendor", true},
		{"tender", "tned", false},
		{"eskom", "eskm", true},
		{"cape", "cap", true},
		{"cape", "town", false},
	}
	for _, tc := range cases {
		if got := withinOneEdit(tc.a, tc.b); got != tc.want {
			t.Fatalf("withinOneEdit(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
