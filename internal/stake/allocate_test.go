package stake

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/surebet-tool/internal/models"
)

func threeWaySurebet() models.Surebet {
	return models.Surebet{
		EventID: "ev1",
		Outcomes: []models.Outcome{
			{Bookmaker: "Alpha", Label: "Home", Odds: 2.10},
			{Bookmaker: "Beta", Label: "Draw", Odds: 3.80},
			{Bookmaker: "Gamma", Label: "Away", Odds: 4.20},
		},
	}
}

func TestAllocateThreeWay(t *testing.T) {
	plan, err := Allocate(threeWaySurebet(), 100)
	require.NoError(t, err)

	require.Len(t, plan.Allocations, 3)
	assert.InDelta(t, 48.72, plan.Allocations[0].Stake, 1e-9)
	assert.InDelta(t, 26.92, plan.Allocations[1].Stake, 1e-9)
	assert.InDelta(t, 24.36, plan.Allocations[2].Stake, 1e-9)

	assert.InDelta(t, 102.3076923, plan.GuaranteedReturn, 1e-6)
	assert.InDelta(t, 2.3076923, plan.Profit, 1e-6)

	// Rounded stakes move the expected returns slightly apart; the spread is
	// reported, not hidden
	assert.InDelta(t, 0.016, plan.RoundingDeviation, 1e-9)
}

func TestAllocateStakesSumToTotal(t *testing.T) {
	plan, err := Allocate(threeWaySurebet(), 100)
	require.NoError(t, err)

	sum := 0.0
	for _, a := range plan.Allocations {
		sum += a.Stake
	}
	assert.InDelta(t, 100.0, sum, 1e-9)
}

func TestAllocateEqualReturnsBeforeRounding(t *testing.T) {
	// Odds chosen so exact stakes need no rounding at all
	surebet := models.Surebet{
		Outcomes: []models.Outcome{
			{Label: "Home", Odds: 4.0},
			{Label: "Away", Odds: 4.0},
		},
	}

	plan, err := Allocate(surebet, 100)
	require.NoError(t, err)

	assert.Equal(t, 50.0, plan.Allocations[0].Stake)
	assert.Equal(t, 50.0, plan.Allocations[1].Stake)
	assert.Equal(t, 200.0, plan.Allocations[0].ExpectedReturn)
	assert.Equal(t, 200.0, plan.Allocations[1].ExpectedReturn)
	assert.Equal(t, 0.0, plan.RoundingDeviation)
}

func TestAllocateRoundsHalfToEven(t *testing.T) {
	surebet := models.Surebet{
		Outcomes: []models.Outcome{
			{Label: "Home", Odds: 4.0},
			{Label: "Away", Odds: 4.0},
		},
	}

	// Exact stake 0.025 per side: half a cent rounds down to the even 0.02
	plan, err := Allocate(surebet, 0.05)
	require.NoError(t, err)
	assert.InDelta(t, 0.02, plan.Allocations[0].Stake, 1e-12)
	assert.InDelta(t, 0.02, plan.Allocations[1].Stake, 1e-12)

	// Exact stake 0.035 per side: half a cent rounds up to the even 0.04
	plan, err = Allocate(surebet, 0.07)
	require.NoError(t, err)
	assert.InDelta(t, 0.04, plan.Allocations[0].Stake, 1e-12)
	assert.InDelta(t, 0.04, plan.Allocations[1].Stake, 1e-12)
}

func TestAllocateRejectsInvalidStake(t *testing.T) {
	tests := []struct {
		name  string
		stake float64
	}{
		{"zero", 0},
		{"negative", -10},
		{"nan", math.NaN()},
		{"positive infinity", math.Inf(1)},
		{"negative infinity", math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Allocate(threeWaySurebet(), tt.stake)
			assert.ErrorIs(t, err, models.ErrInvalidStake)
			assert.Nil(t, plan)
		})
	}
}

func TestAllocateRejectsIncompleteMarket(t *testing.T) {
	surebet := models.Surebet{
		Outcomes: []models.Outcome{{Label: "Home", Odds: 2.5}},
	}

	plan, err := Allocate(surebet, 100)
	assert.ErrorIs(t, err, models.ErrIncompleteMarket)
	assert.Nil(t, plan)
}

func TestAllocateRejectsNonArbitrage(t *testing.T) {
	tests := []struct {
		name     string
		outcomes []models.Outcome
	}{
		{
			name: "break-even book",
			outcomes: []models.Outcome{
				{Label: "Home", Odds: 2.0},
				{Label: "Away", Odds: 2.0},
			},
		},
		{
			name: "losing book",
			outcomes: []models.Outcome{
				{Label: "Home", Odds: 1.5},
				{Label: "Away", Odds: 2.0},
			},
		},
		{
			name: "odds at one",
			outcomes: []models.Outcome{
				{Label: "Home", Odds: 1.0},
				{Label: "Away", Odds: 5.0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Allocate(models.Surebet{Outcomes: tt.outcomes}, 100)
			assert.ErrorIs(t, err, models.ErrNotArbitrage)
			assert.Nil(t, plan)
		})
	}
}

func TestAllocateIsRepeatable(t *testing.T) {
	first, err := Allocate(threeWaySurebet(), 250)
	require.NoError(t, err)
	second, err := Allocate(threeWaySurebet(), 250)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
