package holiday

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Fetcher is the year-fetch half of Client, split out so the cache can
// be exercised without the network.
type Fetcher interface {
	FetchYear(ctx context.Context, year int) ([]Entry, error)
}

// Cache holds holiday entries per year. Get misses mean "no data for
// that year", never an error; callers degrade to a holiday-free view.
type Cache struct {
	fetcher Fetcher
	logger  *slog.Logger

	mu    sync.RWMutex
	years map[int][]Entry
}

func NewCache(fetcher Fetcher, logger *slog.Logger) *Cache {
	return &Cache{
		fetcher: fetcher,
		logger:  logger,
		years:   make(map[int][]Entry),
	}
}

// Get returns the cached entries for a year, or nil when the year has
// not been loaded.
func (c *Cache) Get(year int) []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.years[year]
}

// Refresh loads the current year and its neighbors, then prunes every
// other year. A failed fetch keeps whatever the cache already holds for
// that year, so transient API outages never blank the calendar.
func (c *Cache) Refresh(ctx context.Context, now time.Time) {
	current := now.Year()
	wanted := []int{current - 1, current, current + 1}

	fresh := make(map[int][]Entry, len(wanted))
	for _, year := range wanted {
		entries, err := c.fetcher.FetchYear(ctx, year)
		if err != nil {
			c.logger.Warn("holiday refresh failed, keeping stale data", "year", year, "error", err)
			if stale := c.Get(year); stale != nil {
				fresh[year] = stale
			}
			continue
		}
		fresh[year] = entries
	}

	c.mu.Lock()
	c.years = fresh
	c.mu.Unlock()

	c.logger.Info("holiday cache refreshed", "years", wanted)
}
