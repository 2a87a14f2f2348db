package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/surebet-tool/internal/models"
)

func TestMergeOutcomesReplacesOwnSource(t *testing.T) {
	existing := []models.Outcome{
		{Source: "odds_api", Bookmaker: "Alpha", Label: "Home", Odds: 2.0},
		{Source: "odds_api", Bookmaker: "Alpha", Label: "Away", Odds: 1.9},
		{Source: "scraper", Bookmaker: "Beta", Label: "Home", Odds: 2.1},
	}
	incoming := []models.Outcome{
		{Bookmaker: "Alpha", Label: "Home", Odds: 2.05},
	}

	merged := MergeOutcomes(existing, incoming, "odds_api")

	require.Len(t, merged, 2)
	assert.Equal(t, "scraper", merged[0].Source)
	assert.Equal(t, 2.1, merged[0].Odds)
	assert.Equal(t, "odds_api", merged[1].Source)
	assert.Equal(t, 2.05, merged[1].Odds)
}

func TestMergeOutcomesUnionsAcrossSources(t *testing.T) {
	existing := []models.Outcome{
		{Source: "odds_api", Bookmaker: "Alpha", Label: "Home", Odds: 2.0},
	}
	incoming := []models.Outcome{
		{Bookmaker: "Beta", Label: "Home", Odds: 2.2},
		{Bookmaker: "Beta", Label: "Away", Odds: 1.8},
	}

	merged := MergeOutcomes(existing, incoming, "scraper")

	require.Len(t, merged, 3)
	assert.Equal(t, "odds_api", merged[0].Source)
	assert.Equal(t, "scraper", merged[1].Source)
	assert.Equal(t, "scraper", merged[2].Source)
}

func TestMergeOutcomesEmptyRefreshIsNoOp(t *testing.T) {
	existing := []models.Outcome{
		{Source: "odds_api", Bookmaker: "Alpha", Label: "Home", Odds: 2.0},
	}

	merged := MergeOutcomes(existing, nil, "odds_api")
	assert.Equal(t, existing, merged)

	merged = MergeOutcomes(existing, []models.Outcome{}, "odds_api")
	assert.Equal(t, existing, merged)
}

func TestMergeOutcomesStampsSourceTag(t *testing.T) {
	incoming := []models.Outcome{
		{Source: "bogus", Bookmaker: "Alpha", Label: "Home", Odds: 2.0},
	}

	merged := MergeOutcomes(nil, incoming, "scraper")
	require.Len(t, merged, 1)
	assert.Equal(t, "scraper", merged[0].Source)
}

func TestMergeOutcomesPreservesOrder(t *testing.T) {
	existing := []models.Outcome{
		{Source: "a", Bookmaker: "B1", Label: "Home", Odds: 2.0},
		{Source: "b", Bookmaker: "B2", Label: "Home", Odds: 2.0},
	}
	incoming := []models.Outcome{
		{Bookmaker: "B3", Label: "Home", Odds: 2.0},
		{Bookmaker: "B4", Label: "Home", Odds: 2.0},
	}

	merged := MergeOutcomes(existing, incoming, "c")

	bookmakers := make([]string, len(merged))
	for i, o := range merged {
		bookmakers[i] = o.Bookmaker
	}
	assert.Equal(t, []string{"B1", "B2", "B3", "B4"}, bookmakers)
}
