package aggregation

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// LocationCache resolves IANA timezone names to *time.Location.
// time.LoadLocation reads the zone database from disk; every detection carries
// a timezone name, so the fold path would otherwise hit the filesystem per
// detection. Lookups are cached forever (zone definitions are immutable for
// the life of the process) and concurrent first loads of the same name are
// deduped with singleflight.
type LocationCache struct {
	mu        sync.RWMutex
	locations map[string]*time.Location
	loadGroup singleflight.Group
}

// NewLocationCache creates an empty timezone location cache.
func NewLocationCache() *LocationCache {
	return &LocationCache{
		locations: make(map[string]*time.Location),
	}
}

// Load returns the location for an IANA zone name (e.g. "America/Montreal").
// An empty or unknown name is an error; callers treat it as a data anomaly.
func (c *LocationCache) Load(name string) (*time.Location, error) {
	if name == "" {
		return nil, fmt.Errorf("timezone name is empty")
	}

	c.mu.RLock()
	if loc, exists := c.locations[name]; exists {
		c.mu.RUnlock()
		return loc, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.loadGroup.Do(name, func() (interface{}, error) {
		c.mu.RLock()
		if loc, exists := c.locations[name]; exists {
			c.mu.RUnlock()
			return loc, nil
		}
		c.mu.RUnlock()

		loc, err := time.LoadLocation(name)
		if err != nil {
			return nil, fmt.Errorf("unknown timezone %q: %w", name, err)
		}

		c.mu.Lock()
		c.locations[name] = loc
		c.mu.Unlock()

		return loc, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*time.Location), nil
}
