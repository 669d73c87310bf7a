package geocode

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"photo-share/internal/apperr"
	"photo-share/internal/logging"
)

// Observer records geocode metrics.
type Observer interface {
	// ObserveLookup records one upstream lookup. status is success or error.
	ObserveLookup(status string, seconds float64)
	// ObserveCache records a cache probe. tier is memory or disk.
	ObserveCache(tier string, hit bool)
}

type observerHolder struct{ o Observer }

var defaultObserver atomic.Pointer[observerHolder]

// SetObserver sets the package-level metrics observer.
func SetObserver(o Observer) {
	defaultObserver.Store(&observerHolder{o: o})
}

func observe() Observer {
	if h := defaultObserver.Load(); h != nil {
		return h.o
	}
	return nil
}

// Cached fronts a Resolver with an in-memory expirable LRU and an optional persistent
// DiskCache. Only successful lookups are cached.
type Cached struct {
	next Resolver
	mem  *expirable.LRU[string, string]
	disk *DiskCache
}

// NewCached wraps next. disk may be nil.
func NewCached(next Resolver, size int, ttl time.Duration, disk *DiskCache) *Cached {
	if size <= 0 {
		size = 4096
	}
	return &Cached{
		next: next,
		mem:  expirable.NewLRU[string, string](size, nil, ttl),
		disk: disk,
	}
}

// Resolve implements Resolver.
func (c *Cached) Resolve(ctx context.Context, lat, lon float64) (string, error) {
	key := cacheKey(lat, lon)
	o := observe()

	if place, ok := c.mem.Get(key); ok {
		if o != nil {
			o.ObserveCache("memory", true)
		}
		return place, nil
	}
	if o != nil {
		o.ObserveCache("memory", false)
	}

	if c.disk != nil {
		place, ok, err := c.disk.Get(ctx, key)
		if err != nil {
			logging.Warn("Geocode disk cache read failed for %s: %v", key, err)
		}
		if o != nil {
			o.ObserveCache("disk", ok)
		}
		if ok {
			c.mem.Add(key, place)
			return place, nil
		}
	}

	start := time.Now()
	place, err := c.next.Resolve(ctx, lat, lon)
	if o != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		o.ObserveLookup(status, time.Since(start).Seconds())
	}
	if err != nil {
		if apperr.KindOf(err) != apperr.GeocodeError {
			err = apperr.E(apperr.GeocodeError, "geocode", err)
		}
		return "", err
	}

	c.mem.Add(key, place)
	if c.disk != nil {
		if err := c.disk.Put(ctx, key, place); err != nil {
			logging.Warn("Geocode disk cache write failed for %s: %v", key, err)
		}
	}
	return place, nil
}

// Len returns the number of entries in the memory tier.
func (c *Cached) Len() int {
	return c.mem.Len()
}
