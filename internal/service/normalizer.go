package service

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/surebet-tool/internal/datasource"
	"github.com/yourusername/surebet-tool/internal/models"
)

// OddsNormalizer converts raw source records into the canonical event shape.
// It is purely transformational: no I/O, no stored state beyond lookup tables.
type OddsNormalizer struct {
	labelMap map[string]string // Maps selection name variants to canonical labels
	logger   *logrus.Logger
}

// Rejection describes a single outcome (or whole record) dropped during
// normalization. Rejections are diagnostics, not errors: the rest of the
// event is still processed.
type Rejection struct {
	EventID   string
	Bookmaker string
	Label     string
	Reason    string
}

func (r Rejection) String() string {
	return fmt.Sprintf("event=%s bookmaker=%s label=%s: %s", r.EventID, r.Bookmaker, r.Label, r.Reason)
}

// NewOddsNormalizer creates a new odds normalizer
func NewOddsNormalizer(logger *logrus.Logger) *OddsNormalizer {
	return &OddsNormalizer{
		labelMap: buildLabelMap(),
		logger:   logger,
	}
}

// Normalize converts a raw source event to the canonical Event model.
// Outcomes with odds that are not finite and strictly greater than 1.0 are
// dropped with a diagnostic. A nil event is returned only when the record
// itself is unusable (missing event id or no surviving outcomes).
func (n *OddsNormalizer) Normalize(record datasource.SourceEvent, sourceTag string) (*models.Event, []Rejection) {
	var rejections []Rejection

	eventID := strings.TrimSpace(record.EventID)
	if eventID == "" {
		rejections = append(rejections, Rejection{
			EventID: record.EventID,
			Reason:  "missing event_id",
		})
		return nil, rejections
	}

	event := &models.Event{
		EventID:     eventID,
		Sport:       strings.TrimSpace(record.Sport),
		DisplayName: strings.TrimSpace(record.DisplayName),
		Outcomes:    make([]models.Outcome, 0, len(record.Outcomes)),
		UpdatedAt:   record.FetchedAt,
	}

	for _, raw := range record.Outcomes {
		outcome, reject := n.normalizeOutcome(raw, eventID, sourceTag)
		if reject != nil {
			rejections = append(rejections, *reject)
			continue
		}
		event.Outcomes = append(event.Outcomes, outcome)
	}

	if len(event.Outcomes) == 0 {
		rejections = append(rejections, Rejection{
			EventID: eventID,
			Reason:  "no valid outcomes after normalization",
		})
		return nil, rejections
	}

	return event, rejections
}

// normalizeOutcome validates and canonicalizes a single raw outcome
func (n *OddsNormalizer) normalizeOutcome(raw datasource.SourceOutcome, eventID, sourceTag string) (models.Outcome, *Rejection) {
	bookmaker := strings.TrimSpace(raw.Bookmaker)
	if bookmaker == "" {
		return models.Outcome{}, &Rejection{
			EventID: eventID,
			Label:   raw.Label,
			Reason:  "missing bookmaker",
		}
	}

	label := n.NormalizeLabel(raw.Label)
	if label == "" {
		return models.Outcome{}, &Rejection{
			EventID:   eventID,
			Bookmaker: bookmaker,
			Reason:    "missing selection label",
		}
	}

	// Odds of exactly 1.0 pay back the stake and nothing more; anything at
	// or below that can never contribute to an arbitrage.
	if math.IsNaN(raw.Odds) || math.IsInf(raw.Odds, 0) || raw.Odds <= 1.0 {
		return models.Outcome{}, &Rejection{
			EventID:   eventID,
			Bookmaker: bookmaker,
			Label:     label,
			Reason:    fmt.Sprintf("odds %v are not a finite number > 1.0", raw.Odds),
		}
	}

	return models.Outcome{
		Source:    sourceTag,
		Bookmaker: bookmaker,
		Label:     label,
		Odds:      raw.Odds,
		Link:      strings.TrimSpace(raw.Link),
	}, nil
}

// NormalizeLabel canonicalizes a selection name: trim, case-fold, then map
// through the spelling table. Variants that collide after normalization are
// the same label by definition.
func (n *OddsNormalizer) NormalizeLabel(label string) string {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return ""
	}

	folded := strings.ToUpper(trimmed)
	if canonical, ok := n.labelMap[folded]; ok {
		return canonical
	}

	return titleCase(trimmed)
}

// titleCase capitalizes the first rune of each word
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// buildLabelMap returns mapping of selection name variations to canonical labels
func buildLabelMap() map[string]string {
	return map[string]string{
		// Match result markets (canonical: Home / Draw / Away)
		"HOME":     "Home",
		"HOME WIN": "Home",
		"1":        "Home",
		"DRAW":     "Draw",
		"TIE":      "Draw",
		"X":        "Draw",
		"AWAY":     "Away",
		"AWAY WIN": "Away",
		"2":        "Away",
		// Two-way markets
		"YES":   "Yes",
		"NO":    "No",
		"OVER":  "Over",
		"UNDER": "Under",
	}
}
