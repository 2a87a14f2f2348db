// Package stake computes per-outcome stake plans for detected surebets.
package stake

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/yourusername/surebet-tool/internal/models"
)

// RoundingDecimals is the number of decimal places stakes are rounded to,
// matching currency subunits.
const RoundingDecimals = 2

// Allocate splits totalStake across the surebet's outcomes so the payout is
// equal whichever outcome occurs. Stakes are rounded with round-half-to-even
// at two decimals; the residual spread between expected returns is surfaced
// as RoundingDeviation, never silently absorbed.
//
// Allocate has no side effects and may be called repeatedly and concurrently
// on the same Surebet value with identical results.
func Allocate(surebet models.Surebet, totalStake float64) (*models.StakePlan, error) {
	if totalStake <= 0 || math.IsNaN(totalStake) || math.IsInf(totalStake, 0) {
		return nil, models.ErrInvalidStake
	}
	if len(surebet.Outcomes) < 2 {
		return nil, models.ErrIncompleteMarket
	}

	one := decimal.NewFromInt(1)
	total := decimal.NewFromFloat(totalStake)

	inverses := make([]decimal.Decimal, len(surebet.Outcomes))
	totalInverse := decimal.Zero
	for i, outcome := range surebet.Outcomes {
		if outcome.Odds <= 1.0 {
			return nil, models.ErrNotArbitrage
		}
		inverses[i] = one.Div(decimal.NewFromFloat(outcome.Odds))
		totalInverse = totalInverse.Add(inverses[i])
	}

	// Refuse to allocate a guaranteed loss
	if totalInverse.GreaterThanOrEqual(one) {
		return nil, models.ErrNotArbitrage
	}

	guaranteed := total.Div(totalInverse)

	plan := &models.StakePlan{
		TotalStake:       totalStake,
		Allocations:      make([]models.Allocation, 0, len(surebet.Outcomes)),
		GuaranteedReturn: guaranteed.InexactFloat64(),
		Profit:           guaranteed.Sub(total).InexactFloat64(),
	}

	minReturn := math.Inf(1)
	maxReturn := math.Inf(-1)
	for i, outcome := range surebet.Outcomes {
		stakeAmount := total.Mul(inverses[i]).Div(totalInverse).RoundBank(RoundingDecimals)
		expectedReturn := stakeAmount.Mul(decimal.NewFromFloat(outcome.Odds)).InexactFloat64()

		plan.Allocations = append(plan.Allocations, models.Allocation{
			Label:          outcome.Label,
			Bookmaker:      outcome.Bookmaker,
			Odds:           outcome.Odds,
			Stake:          stakeAmount.InexactFloat64(),
			ExpectedReturn: expectedReturn,
		})

		minReturn = math.Min(minReturn, expectedReturn)
		maxReturn = math.Max(maxReturn, expectedReturn)
	}

	plan.RoundingDeviation = maxReturn - minReturn

	return plan, nil
}
