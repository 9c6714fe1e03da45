package calendar

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"debiti/internal/cache"
	"debiti/internal/core"
)

// HolidayLoader reads the externally maintained holiday list for a date range.
type HolidayLoader interface {
	ListHolidays(ctx context.Context, from, to core.Date) ([]core.Holiday, error)
}

// CachedHolidays loads holidays one year at a time and keeps each year in an
// LRU cache with a TTL. Concurrent loads of the same year share one query.
type CachedHolidays struct {
	loader HolidayLoader
	years  *cache.LRUCache[HolidaySet]
	group  singleflight.Group
}

// NewCachedHolidays wraps loader with a per-year cache.
func NewCachedHolidays(loader HolidayLoader, maxYears int, ttl time.Duration) *CachedHolidays {
	return &CachedHolidays{
		loader: loader,
		years:  cache.NewLRUCache[HolidaySet](maxYears, ttl),
	}
}

// Year returns the holidays of one calendar year.
func (c *CachedHolidays) Year(ctx context.Context, year int) (HolidaySet, error) {
	key := strconv.Itoa(year)
	if set, ok := c.years.Get(key); ok {
		return set, nil
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		list, err := c.loader.ListHolidays(ctx, core.NewDate(year, 1, 1), core.NewDate(year, 12, 31))
		if err != nil {
			return nil, fmt.Errorf("load holidays for %d: %w", year, err)
		}
		set := NewHolidaySet(list...)
		c.years.Set(key, set)
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(HolidaySet), nil
}

// Years merges the holidays of every requested year into one set.
func (c *CachedHolidays) Years(ctx context.Context, years ...int) (HolidaySet, error) {
	out := HolidaySet{}
	for _, y := range years {
		set, err := c.Year(ctx, y)
		if err != nil {
			return nil, err
		}
		out = out.Merge(set)
	}
	return out, nil
}

// Invalidate drops a cached year, e.g. after holidays were imported.
func (c *CachedHolidays) Invalidate(year int) {
	c.years.Delete(strconv.Itoa(year))
}

// CleanExpired lets a cache.Manager evict stale years.
func (c *CachedHolidays) CleanExpired() int {
	return c.years.CleanExpired()
}
