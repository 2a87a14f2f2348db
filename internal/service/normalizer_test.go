package service

import (
	"io"
	"math"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/surebet-tool/internal/datasource"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestNormalizeValidRecord(t *testing.T) {
	n := NewOddsNormalizer(testLogger())
	fetched := time.Now().UTC()

	record := datasource.SourceEvent{
		EventID:     " ev1 ",
		Sport:       "Soccer",
		DisplayName: " Team A vs Team B ",
		FetchedAt:   fetched,
		Outcomes: []datasource.SourceOutcome{
			{Bookmaker: " Alpha ", Label: "home", Odds: 2.1, Link: " https://alpha.example "},
			{Bookmaker: "Beta", Label: "AWAY", Odds: 4.2},
		},
	}

	event, rejections := n.Normalize(record, "odds_api")
	require.NotNil(t, event)
	assert.Empty(t, rejections)

	assert.Equal(t, "ev1", event.EventID)
	assert.Equal(t, "Team A vs Team B", event.DisplayName)
	assert.Equal(t, fetched, event.UpdatedAt)

	require.Len(t, event.Outcomes, 2)
	assert.Equal(t, "Alpha", event.Outcomes[0].Bookmaker)
	assert.Equal(t, "Home", event.Outcomes[0].Label)
	assert.Equal(t, "odds_api", event.Outcomes[0].Source)
	assert.Equal(t, "https://alpha.example", event.Outcomes[0].Link)
	assert.Equal(t, "Away", event.Outcomes[1].Label)
}

func TestNormalizeDropsBadOddsKeepsRest(t *testing.T) {
	n := NewOddsNormalizer(testLogger())

	record := datasource.SourceEvent{
		EventID: "ev1",
		Outcomes: []datasource.SourceOutcome{
			{Bookmaker: "Alpha", Label: "Home", Odds: 0.95},
			{Bookmaker: "Beta", Label: "Draw", Odds: 3.8},
			{Bookmaker: "Gamma", Label: "Away", Odds: 4.2},
		},
	}

	event, rejections := n.Normalize(record, "scraper")
	require.NotNil(t, event)
	require.Len(t, rejections, 1)
	assert.Equal(t, "Alpha", rejections[0].Bookmaker)
	assert.Len(t, event.Outcomes, 2)
}

func TestNormalizeOddsValidation(t *testing.T) {
	n := NewOddsNormalizer(testLogger())

	tests := []struct {
		name     string
		odds     float64
		rejected bool
	}{
		{"normal odds", 2.5, false},
		{"barely above one", 1.01, false},
		{"exactly one", 1.0, true},
		{"below one", 0.5, true},
		{"zero", 0, true},
		{"negative", -2.0, true},
		{"nan", math.NaN(), true},
		{"positive infinity", math.Inf(1), true},
		{"negative infinity", math.Inf(-1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := datasource.SourceEvent{
				EventID: "ev1",
				Outcomes: []datasource.SourceOutcome{
					{Bookmaker: "Alpha", Label: "Home", Odds: tt.odds},
					{Bookmaker: "Beta", Label: "Away", Odds: 2.0},
				},
			}

			event, rejections := n.Normalize(record, "odds_api")
			require.NotNil(t, event)
			if tt.rejected {
				assert.Len(t, rejections, 1)
				assert.Len(t, event.Outcomes, 1)
			} else {
				assert.Empty(t, rejections)
				assert.Len(t, event.Outcomes, 2)
			}
		})
	}
}

func TestNormalizeRejectsUnusableRecords(t *testing.T) {
	n := NewOddsNormalizer(testLogger())

	event, rejections := n.Normalize(datasource.SourceEvent{EventID: "  "}, "odds_api")
	assert.Nil(t, event)
	require.Len(t, rejections, 1)
	assert.Contains(t, rejections[0].Reason, "event_id")

	record := datasource.SourceEvent{
		EventID: "ev1",
		Outcomes: []datasource.SourceOutcome{
			{Bookmaker: "Alpha", Label: "Home", Odds: 0.5},
		},
	}
	event, rejections = n.Normalize(record, "odds_api")
	assert.Nil(t, event)
	assert.Len(t, rejections, 2) // the bad outcome, then the empty event
}

func TestNormalizeRejectsMissingFields(t *testing.T) {
	n := NewOddsNormalizer(testLogger())

	record := datasource.SourceEvent{
		EventID: "ev1",
		Outcomes: []datasource.SourceOutcome{
			{Bookmaker: "", Label: "Home", Odds: 2.0},
			{Bookmaker: "Alpha", Label: "   ", Odds: 2.0},
			{Bookmaker: "Beta", Label: "Away", Odds: 2.0},
		},
	}

	event, rejections := n.Normalize(record, "odds_api")
	require.NotNil(t, event)
	assert.Len(t, rejections, 2)
	assert.Len(t, event.Outcomes, 1)
}

func TestNormalizeLabelCanonicalization(t *testing.T) {
	n := NewOddsNormalizer(testLogger())

	tests := []struct {
		raw      string
		expected string
	}{
		{"home", "Home"},
		{"HOME", "Home"},
		{" Home Win ", "Home"},
		{"1", "Home"},
		{"x", "Draw"},
		{"TIE", "Draw"},
		{"draw", "Draw"},
		{"2", "Away"},
		{"away win", "Away"},
		{"over", "Over"},
		{"UNDER", "Under"},
		{"yes", "Yes"},
		// Unknown labels fall back to title case
		{"arsenal fc", "Arsenal Fc"},
		{"REAL MADRID", "Real Madrid"},
		// First letter may be a multi-byte rune
		{"über uns", "Über Uns"},
		{"étoile rouge", "Étoile Rouge"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, n.NormalizeLabel(tt.raw))
		})
	}
}

func TestNormalizeLabelVariantsCollide(t *testing.T) {
	n := NewOddsNormalizer(testLogger())

	// Variants of the same selection must map to one label so best-odds
	// grouping sees them as a single market selection
	assert.Equal(t, n.NormalizeLabel("home"), n.NormalizeLabel("1"))
	assert.Equal(t, n.NormalizeLabel("X"), n.NormalizeLabel("tie"))
}
