package publisher

import (
	"context"
	"fmt"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/yourusername/surebet-tool/internal/models"
)

const latestPassKey = "latest_pass"

// ResultCache keeps the most recent detection pass in memory so the read
// API can serve surebets and stake-plan lookups without waiting for a pass.
// It is a caching optimization, not authoritative state: surebets are
// recomputed on every pass.
type ResultCache struct {
	cache *cache.Cache
}

// NewResultCache creates a new result cache. Entries expire after ttl so a
// stalled detection loop cannot serve ancient opportunities forever.
func NewResultCache(ttl time.Duration) *ResultCache {
	return &ResultCache{
		cache: cache.New(ttl, ttl*2),
	}
}

// Name identifies the publisher
func (c *ResultCache) Name() string {
	return "result_cache"
}

// Publish stores the pass and indexes each surebet by event id
func (c *ResultCache) Publish(ctx context.Context, pass Pass) error {
	c.cache.Set(latestPassKey, pass, cache.DefaultExpiration)
	for _, surebet := range pass.Surebets {
		c.cache.Set(surebetKey(surebet.EventID), surebet, cache.DefaultExpiration)
	}
	return nil
}

// Latest returns the most recent detection pass, if any
func (c *ResultCache) Latest() (Pass, bool) {
	value, found := c.cache.Get(latestPassKey)
	if !found {
		return Pass{}, false
	}
	pass, ok := value.(Pass)
	return pass, ok
}

// Surebet returns the most recently detected surebet for an event
func (c *ResultCache) Surebet(eventID string) (models.Surebet, bool) {
	value, found := c.cache.Get(surebetKey(eventID))
	if !found {
		return models.Surebet{}, false
	}
	surebet, ok := value.(models.Surebet)
	return surebet, ok
}

func surebetKey(eventID string) string {
	return fmt.Sprintf("surebet:%s", eventID)
}
