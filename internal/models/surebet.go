package models

// Surebet is a detected arbitrage opportunity for a single event. It is a
// derived value: recomputed on every detection pass, never mutated in place.
type Surebet struct {
	EventID          string    `json:"event_id"`
	DisplayName      string    `json:"display_name"`
	Sport            string    `json:"sport"`
	Outcomes         []Outcome `json:"outcomes"` // one per label, the best price
	TotalInverseOdds float64   `json:"total_inverse_odds"`
	ProfitPercentage float64   `json:"profit_percentage"`
}

// BestByLabel returns the surebet's best outcome per selection label.
func (s *Surebet) BestByLabel() map[string]Outcome {
	best := make(map[string]Outcome, len(s.Outcomes))
	for _, o := range s.Outcomes {
		best[o.Label] = o
	}
	return best
}

// Allocation is the stake assigned to one selection of a stake plan.
type Allocation struct {
	Label          string  `json:"label"`
	Bookmaker      string  `json:"bookmaker"`
	Odds           float64 `json:"odds"`
	Stake          float64 `json:"stake"`
	ExpectedReturn float64 `json:"expected_return"`
}

// StakePlan is the per-selection split of a total stake that equalizes the
// guaranteed payout across all outcomes of a surebet.
type StakePlan struct {
	TotalStake        float64      `json:"total_stake"`
	Allocations       []Allocation `json:"allocations"`
	GuaranteedReturn  float64      `json:"guaranteed_return"`
	Profit            float64      `json:"profit"`
	RoundingDeviation float64      `json:"rounding_deviation"`
}
