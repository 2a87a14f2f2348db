package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sirupsen/logrus"
)

// SourceTagOddsAPI is the merge tag for outcomes fetched from The Odds API.
const SourceTagOddsAPI = "odds_api"

const marketHeadToHead = "h2h"

// OddsAPISource fetches live odds from The Odds API (the-odds-api.com).
// The API meters requests, so the shared rate-limited client is mandatory.
type OddsAPISource struct {
	baseURL string
	apiKey  string
	regions string
	enabled bool
	client  *RateLimitedHTTPClient
	logger  *logrus.Logger
}

// NewOddsAPISource creates a new Odds API source
func NewOddsAPISource(baseURL, apiKey, regions string, enabled bool, client *RateLimitedHTTPClient, logger *logrus.Logger) *OddsAPISource {
	if baseURL == "" {
		baseURL = "https://api.the-odds-api.com/v4"
	}
	if regions == "" {
		regions = "eu"
	}
	return &OddsAPISource{
		baseURL: baseURL,
		apiKey:  apiKey,
		regions: regions,
		enabled: enabled,
		client:  client,
		logger:  logger,
	}
}

// Name returns the source tag
func (s *OddsAPISource) Name() string {
	return SourceTagOddsAPI
}

// IsEnabled returns whether this source is currently enabled
func (s *OddsAPISource) IsEnabled() bool {
	return s.enabled
}

// FetchEvents retrieves upcoming head-to-head odds from The Odds API
func (s *OddsAPISource) FetchEvents(ctx context.Context) ([]SourceEvent, error) {
	if s.apiKey == "" {
		return nil, NewDataSourceError(s.Name(), ErrCodeAuthenticationFailed, "odds API key is not configured", nil)
	}

	endpoint := fmt.Sprintf("%s/sports/upcoming/odds/?%s", s.baseURL, url.Values{
		"apiKey":     {s.apiKey},
		"regions":    {s.regions},
		"markets":    {marketHeadToHead},
		"oddsFormat": {"decimal"},
	}.Encode())

	resp, err := s.client.Get(ctx, endpoint)
	if err != nil {
		return nil, NewDataSourceError(s.Name(), ErrCodeNetworkError, "failed to fetch upcoming odds", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, NewDataSourceError(s.Name(), ErrCodeAuthenticationFailed, fmt.Sprintf("status %d", resp.StatusCode), nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, NewDataSourceError(s.Name(), ErrCodeServerError, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	var payload []oddsAPIEvent
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, NewDataSourceError(s.Name(), ErrCodeInvalidData, "failed to decode odds payload", err)
	}

	// Quota accounting comes back in headers on every call
	s.logger.WithFields(logrus.Fields{
		"events":             len(payload),
		"requests_used":      resp.Header.Get("x-requests-used"),
		"requests_remaining": resp.Header.Get("x-requests-remaining"),
	}).Info("Fetched upcoming odds from The Odds API")

	return convertOddsAPIEvents(payload, time.Now().UTC()), nil
}

// oddsAPIEvent mirrors The Odds API response structure for one event
type oddsAPIEvent struct {
	ID         string             `json:"id"`
	SportTitle string             `json:"sport_title"`
	HomeTeam   string             `json:"home_team"`
	AwayTeam   string             `json:"away_team"`
	Bookmakers []oddsAPIBookmaker `json:"bookmakers"`
}

type oddsAPIBookmaker struct {
	Key     string          `json:"key"`
	Title   string          `json:"title"`
	Markets []oddsAPIMarket `json:"markets"`
}

type oddsAPIMarket struct {
	Key      string           `json:"key"`
	Outcomes []oddsAPIOutcome `json:"outcomes"`
}

type oddsAPIOutcome struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// convertOddsAPIEvents flattens the API's bookmaker/market nesting into the
// canonical raw shape. Only head-to-head markets are kept; other markets
// cover selections that are not mutually exclusive within one event.
func convertOddsAPIEvents(payload []oddsAPIEvent, fetchedAt time.Time) []SourceEvent {
	events := make([]SourceEvent, 0, len(payload))

	for _, apiEvent := range payload {
		event := SourceEvent{
			EventID:     apiEvent.ID,
			Sport:       apiEvent.SportTitle,
			DisplayName: fmt.Sprintf("%s vs %s", apiEvent.HomeTeam, apiEvent.AwayTeam),
			FetchedAt:   fetchedAt,
		}

		for _, bookmaker := range apiEvent.Bookmakers {
			for _, market := range bookmaker.Markets {
				if market.Key != marketHeadToHead {
					continue
				}
				for _, outcome := range market.Outcomes {
					event.Outcomes = append(event.Outcomes, SourceOutcome{
						Bookmaker: bookmaker.Title,
						Label:     outcome.Name,
						Odds:      outcome.Price,
						Link:      fmt.Sprintf("https://%s.com", bookmaker.Key),
					})
				}
			}
		}

		if len(event.Outcomes) == 0 {
			continue
		}
		events = append(events, event)
	}

	return events
}
