package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// SourceTagScraper is the default merge tag for scraper-fed outcomes. Each
// configured feed may override it so multiple scrapers union independently.
const SourceTagScraper = "scraper"

// ScraperEvent is one event as emitted by a scraper worker. Scrapers read
// odds off rendered pages, so odds arrive as strings and may be garbage.
type ScraperEvent struct {
	EventID  string           `json:"event_id"`
	Sport    string           `json:"sport"`
	Event    string           `json:"event"`
	Outcomes []ScraperOutcome `json:"outcomes"`
}

// ScraperOutcome is one scraped bookmaker price.
type ScraperOutcome struct {
	Bookmaker   string `json:"bookmaker"`
	Name        string `json:"name"`
	Odds        string `json:"odds"`
	DeepLinkURL string `json:"deep_link_url"`
}

// DecodeScraperBatch decodes a pushed scraper batch into raw source events.
// Outcomes whose odds do not parse as a positive decimal are dropped here;
// the normalizer still applies the > 1.0 rule afterwards.
func DecodeScraperBatch(r io.Reader, fetchedAt time.Time) ([]SourceEvent, error) {
	var batch []ScraperEvent
	if err := json.NewDecoder(r).Decode(&batch); err != nil {
		return nil, fmt.Errorf("failed to decode scraper batch: %w", err)
	}
	return ConvertScraperEvents(batch, fetchedAt), nil
}

// ConvertScraperEvents converts scraper records to the canonical raw shape.
func ConvertScraperEvents(batch []ScraperEvent, fetchedAt time.Time) []SourceEvent {
	events := make([]SourceEvent, 0, len(batch))

	for _, scraped := range batch {
		event := SourceEvent{
			EventID:     scraped.EventID,
			Sport:       scraped.Sport,
			DisplayName: scraped.Event,
			FetchedAt:   fetchedAt,
		}

		for _, outcome := range scraped.Outcomes {
			odds, ok := parseScrapedOdds(outcome.Odds)
			if !ok {
				continue
			}
			event.Outcomes = append(event.Outcomes, SourceOutcome{
				Bookmaker: outcome.Bookmaker,
				Label:     outcome.Name,
				Odds:      odds,
				Link:      outcome.DeepLinkURL,
			})
		}

		events = append(events, event)
	}

	return events
}

// parseScrapedOdds parses a scraped odds string as a decimal number
func parseScrapedOdds(raw string) (float64, bool) {
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.GreaterThan(decimal.Zero) {
		return 0, false
	}
	f, _ := d.Float64()
	return f, true
}

// ScraperFeedSource polls a scraper worker's feed endpoint. Workers that
// push instead use the ingest API, which shares the same decode path.
type ScraperFeedSource struct {
	tag     string
	feedURL string
	enabled bool
	client  *RateLimitedHTTPClient
	logger  *logrus.Logger
}

// NewScraperFeedSource creates a new scraper feed source
func NewScraperFeedSource(tag, feedURL string, enabled bool, client *RateLimitedHTTPClient, logger *logrus.Logger) *ScraperFeedSource {
	if tag == "" {
		tag = SourceTagScraper
	}
	return &ScraperFeedSource{
		tag:     tag,
		feedURL: feedURL,
		enabled: enabled,
		client:  client,
		logger:  logger,
	}
}

// Name returns the source tag
func (s *ScraperFeedSource) Name() string {
	return s.tag
}

// IsEnabled returns whether this source is currently enabled
func (s *ScraperFeedSource) IsEnabled() bool {
	return s.enabled
}

// FetchEvents retrieves the feed's current batch
func (s *ScraperFeedSource) FetchEvents(ctx context.Context) ([]SourceEvent, error) {
	resp, err := s.client.Get(ctx, s.feedURL)
	if err != nil {
		return nil, NewDataSourceError(s.tag, ErrCodeNetworkError, "failed to fetch scraper feed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, NewDataSourceError(s.tag, ErrCodeServerError, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	events, err := DecodeScraperBatch(resp.Body, time.Now().UTC())
	if err != nil {
		return nil, NewDataSourceError(s.tag, ErrCodeInvalidData, "malformed scraper batch", err)
	}

	s.logger.WithFields(logrus.Fields{
		"source": s.tag,
		"events": len(events),
	}).Debug("Fetched scraper feed batch")

	return events, nil
}
