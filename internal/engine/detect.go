// Package engine implements surebet detection over canonical event snapshots.
package engine

import (
	"sort"

	"github.com/yourusername/surebet-tool/internal/models"
)

// Params holds detection parameters. They are passed explicitly on every
// call so tests and callers can vary configuration without global state.
type Params struct {
	// MinProfitThresholdPct is the minimum profit percentage an event must
	// reach to be reported. The boundary is inclusive: with the default 0 a
	// break-even book (0% profit) is reported.
	MinProfitThresholdPct float64
}

// Detect scans a snapshot of events and returns every arbitrage opportunity
// meeting the profit threshold. It is pure and deterministic: identical
// input yields identical, order-stable output. Malformed events are skipped,
// never fatal to the batch.
//
// Results are ordered by descending profit percentage, ties broken by
// ascending event_id.
func Detect(events []models.Event, params Params) []models.Surebet {
	surebets := make([]models.Surebet, 0)

	for i := range events {
		if surebet, ok := evaluate(&events[i], params); ok {
			surebets = append(surebets, surebet)
		}
	}

	sort.SliceStable(surebets, func(i, j int) bool {
		if surebets[i].ProfitPercentage != surebets[j].ProfitPercentage {
			return surebets[i].ProfitPercentage > surebets[j].ProfitPercentage
		}
		return surebets[i].EventID < surebets[j].EventID
	})

	return surebets
}

// evaluate decides whether a single event is a surebet. Events with fewer
// than two distinct labels carry an incomplete market and are excluded
// without error.
func evaluate(event *models.Event, params Params) (models.Surebet, bool) {
	// Best price per label. On equal odds the first occurrence wins, which
	// pins down whose deep link gets surfaced; a duplicate (bookmaker,
	// label) pair therefore counts once at its maximum odds, never summed.
	bestIdx := make(map[string]int, len(event.Outcomes))
	labels := make([]string, 0, len(event.Outcomes))

	for i, outcome := range event.Outcomes {
		if outcome.Odds <= 1.0 {
			continue
		}
		current, seen := bestIdx[outcome.Label]
		if !seen {
			bestIdx[outcome.Label] = i
			labels = append(labels, outcome.Label)
			continue
		}
		if outcome.Odds > event.Outcomes[current].Odds {
			bestIdx[outcome.Label] = i
		}
	}

	if len(labels) < 2 {
		return models.Surebet{}, false
	}

	totalInverse := 0.0
	best := make([]models.Outcome, 0, len(labels))
	for _, label := range labels {
		outcome := event.Outcomes[bestIdx[label]]
		totalInverse += 1.0 / outcome.Odds
		best = append(best, outcome)
	}

	profitPct := (1.0/totalInverse - 1.0) * 100.0
	if profitPct < params.MinProfitThresholdPct {
		return models.Surebet{}, false
	}

	return models.Surebet{
		EventID:          event.EventID,
		DisplayName:      event.DisplayName,
		Sport:            event.Sport,
		Outcomes:         best,
		TotalInverseOdds: totalInverse,
		ProfitPercentage: profitPct,
	}, true
}
