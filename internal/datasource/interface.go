package datasource

import (
	"context"
	"errors"
	"time"
)

// Source defines the interface for fetching betting events from external
// providers. Implementations own credentials, cadence and transport; they
// produce raw records for the normalizer and nothing else.
type Source interface {
	// FetchEvents retrieves the provider's current upcoming events
	FetchEvents(ctx context.Context) ([]SourceEvent, error)

	// Name returns the source tag used for outcome merge bookkeeping
	Name() string

	// IsEnabled returns whether this source is currently enabled
	IsEnabled() bool
}

// SourceEvent represents one event as reported by a single source, before
// normalization. Odds may still be malformed at this stage.
type SourceEvent struct {
	EventID     string          `json:"event_id"`     // Provider's stable event identifier
	Sport       string          `json:"sport"`        // Sport name as reported
	DisplayName string          `json:"display_name"` // Human readable name (e.g., "Team A vs Team B")
	Outcomes    []SourceOutcome `json:"outcomes"`     // Raw per-bookmaker prices
	FetchedAt   time.Time       `json:"fetched_at"`   // When data was fetched
}

// SourceOutcome represents one raw bookmaker price within a source event.
type SourceOutcome struct {
	Bookmaker string  `json:"bookmaker"`
	Label     string  `json:"label"`
	Odds      float64 `json:"odds"`
	Link      string  `json:"link"`
}

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
	ErrCodeUnknown              = "unknown"
)

// Error constructors
var (
	ErrRateLimitExceeded    = errors.New("rate limit exceeded")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrNotFound             = errors.New("data not found")
	ErrInvalidData          = errors.New("invalid data format")
	ErrNetworkError         = errors.New("network error")
	ErrServerError          = errors.New("server error")
)

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
