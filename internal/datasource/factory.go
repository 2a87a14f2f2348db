package datasource

import (
	"github.com/sirupsen/logrus"
	"github.com/yourusername/surebet-tool/internal/config"
)

// Factory creates Source implementations from configuration
type Factory struct {
	config *config.Config
	logger *logrus.Logger
}

// NewFactory creates a new data source factory
func NewFactory(cfg *config.Config, logger *logrus.Logger) *Factory {
	return &Factory{
		config: cfg,
		logger: logger,
	}
}

// BuildSources creates all configured polling sources. Disabled sources are
// still constructed so they can be toggled without re-wiring; the ingestion
// service skips them per cycle.
func (f *Factory) BuildSources() []Source {
	var sources []Source

	if f.config.OddsAPI.Enabled {
		clientCfg := DefaultHTTPClientConfig()
		if f.config.OddsAPI.RateLimitPerSecond > 0 {
			clientCfg.RateLimit = f.config.OddsAPI.RateLimitPerSecond
		}
		client := NewRateLimitedHTTPClient(clientCfg, f.logger)
		sources = append(sources, NewOddsAPISource(
			f.config.OddsAPI.BaseURL,
			f.config.OddsAPI.APIKey,
			f.config.OddsAPI.Regions,
			true,
			client,
			f.logger,
		))
		f.logger.Info("Configured odds API source")
	}

	for _, sc := range f.config.Scrapers {
		if sc.FeedURL == "" {
			// Push-only scrapers deliver through the ingest API instead
			continue
		}
		client := NewRateLimitedHTTPClient(DefaultHTTPClientConfig(), f.logger)
		sources = append(sources, NewScraperFeedSource(sc.Name, sc.FeedURL, sc.Enabled, client, f.logger))
		f.logger.WithFields(logrus.Fields{
			"source":  sc.Name,
			"enabled": sc.Enabled,
		}).Info("Configured scraper feed source")
	}

	return sources
}
