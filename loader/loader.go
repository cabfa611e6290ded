// Package loader implements a dual-tier image cache with load coalescing:
// a bounded in-memory tier of decoded images backed by a size-bounded
// directory of raw bytes, with at most one fetch-and-decode pipeline per
// key regardless of how many callers request it concurrently.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/okozhevnikov/imgcache/cache"
	"github.com/okozhevnikov/imgcache/decoder"
	"github.com/okozhevnikov/imgcache/imgcache"
	"github.com/okozhevnikov/imgcache/metrics"
	"github.com/okozhevnikov/imgcache/rlog"
	"github.com/okozhevnikov/imgcache/source"
)

// Cache is the only entry point consumers use. Memory and disk tiers are
// owned exclusively by it and are mutated only through its methods.
type Cache struct {
	memory  *cache.Memory
	disk    *cache.Disk
	src     imgcache.ByteSource
	dec     *decoder.Decoder
	cleaner *cache.Cleaner

	prewarmConcurrency int

	group singleflight.Group

	// mu guards the live flight set and the flight context. This is the
	// single serialization point for in-flight bookkeeping.
	mu            sync.Mutex
	live          map[imgcache.Key]*flight
	flightCtx     context.Context
	cancelFlights context.CancelFunc
}

// flight is a token for one running pipeline. Removal from the live set
// compares tokens, so a finished flight can never remove its successor's
// entry.
type flight struct{}

// New prepares a cache that persists content in cfg.Dir. A nil src means
// fetching over HTTP with cfg.FetchTimeout.
func New(cfg imgcache.Config, src imgcache.ByteSource) (*Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dec := decoder.New(cfg.MaxImageDimension)

	disk, err := cache.NewDisk(cfg.Dir, cfg.MaxDiskSize.Bytes(), func(data []byte) bool {
		return dec.Decode(data) != nil
	})
	if err != nil {
		return nil, fmt.Errorf("couldn't prepare disk cache: %w", err)
	}

	if src == nil {
		src = source.NewHTTPSource(cfg.FetchTimeout)
	}

	flightCtx, cancelFlights := context.WithCancel(context.Background())

	c := &Cache{
		memory: cache.NewMemory(cfg.MaxMemoryEntries, cfg.MaxMemoryCost.Bytes()),
		disk:   disk,
		src:    src,
		dec:    dec,
		//
		prewarmConcurrency: cfg.PrewarmConcurrency,
		//
		live:          make(map[imgcache.Key]*flight),
		flightCtx:     flightCtx,
		cancelFlights: cancelFlights,
	}

	if cfg.CleanupInterval > 0 {
		c.cleaner = cache.NewCleaner(disk, cfg.CleanupInterval)
	}

	return c, nil
}

// MemoryLookup returns a decoded image if it is already warm in memory.
// It never blocks on I/O and is safe to call from a latency-sensitive path.
func (c *Cache) MemoryLookup(key imgcache.Key) (*imgcache.Image, bool) {
	return c.memory.Get(key)
}

// Load returns the image for a key, going through memory, disk and the
// byte source in that order. Concurrent loads for the same key share one
// pipeline and resolve to the same image.
//
// A nil result means the content is unavailable: fetch errors, non-2xx
// responses and undecodable bytes all fold into it. Failures are not
// cached, a later Load re-runs the full pipeline.
//
// Cancelling ctx abandons only this caller's wait. The shared pipeline
// runs to completion and still populates both tiers.
func (c *Cache) Load(ctx context.Context, key imgcache.Key) *imgcache.Image {
	if img, ok := c.memory.Get(key); ok {
		return img
	}

	ch := c.group.DoChan(string(key), func() (any, error) {
		fl := &flight{}

		c.mu.Lock()
		flightCtx := c.flightCtx
		c.live[key] = fl
		c.mu.Unlock()

		defer func() {
			c.mu.Lock()
			if c.live[key] == fl {
				delete(c.live, key)
			}
			c.mu.Unlock()
		}()

		return c.produce(flightCtx, key), nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			metrics.LoadsCoalesced.Inc()
		}
		img, _ := res.Val.(*imgcache.Image)
		return img

	case <-ctx.Done():
		return nil
	}
}

// produce runs the tiered pipeline. It is executed at most once per key
// at a time, joiners only await its result.
func (c *Cache) produce(ctx context.Context, key imgcache.Key) *imgcache.Image {
	// Another flight might have completed between the caller's memory
	// check and this one.
	if img, ok := c.memory.Get(key); ok {
		return img
	}

	data, err := c.disk.Read(key)
	switch {
	case err == nil:
		if img := c.dec.Decode(data); img != nil {
			c.memory.Put(key, img)
			return img
		}
		// The file is corrupt or truncated. Treat it as a miss, a
		// successful fetch below overwrites it.
		rlog.Warnf("cached file for %q is not decodable, re-fetching", key)

	case errors.Is(err, imgcache.ErrCacheMiss):
		// Cold cache.

	default:
		rlog.Errorf("couldn't read cached file for %q: %s", key, err)
	}

	if ctx.Err() != nil {
		metrics.LoadsFailed.Inc()
		return nil
	}

	data, err = c.src.Fetch(ctx, key)
	if err != nil {
		metrics.LoadsFailed.Inc()
		rlog.Debugf("couldn't fetch %q: %s", key, err)
		return nil
	}

	img := c.dec.Decode(data)
	if img == nil {
		metrics.LoadsFailed.Inc()
		rlog.Debugf("couldn't decode content for %q", key)
		return nil
	}

	c.memory.Put(key, img)

	if err := c.disk.Write(key, data); err != nil {
		// Not persisted this time - the content will be re-fetched
		// on the next cold start.
		rlog.Errorf("couldn't persist content for %q: %s", key, err)
	}

	return img
}

// Prewarm loads the deduplicated set of keys concurrently and waits for
// all of them to finish or fail. Duplicate fetches are not amplified
// beyond what load coalescing already guarantees.
func (c *Cache) Prewarm(ctx context.Context, keys []imgcache.Key) {
	var g errgroup.Group
	g.SetLimit(c.prewarmConcurrency)

	seen := make(map[imgcache.Key]struct{}, len(keys))
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		key := key
		g.Go(func() error {
			c.Load(ctx, key)
			return nil
		})
	}

	//nolint:errcheck // loads report failures as nil results, never as errors
	g.Wait()
}

// InvalidateAll abandons all live flights (their waiters resolve to nil),
// clears the memory tier and recreates the disk directory empty. This is
// the only operation that tears down in-flight work.
func (c *Cache) InvalidateAll() error {
	c.mu.Lock()
	c.cancelFlights()
	c.flightCtx, c.cancelFlights = context.WithCancel(context.Background())
	for key := range c.live {
		c.group.Forget(string(key))
		delete(c.live, key)
	}
	c.mu.Unlock()

	c.memory.Clear()

	if err := c.disk.RemoveAll(); err != nil {
		return fmt.Errorf("couldn't clear disk cache: %w", err)
	}
	return nil
}

// MemoryStats returns the resident entry count and aggregate cost of the
// memory tier.
func (c *Cache) MemoryStats() (entries int, cost int64) {
	return c.memory.Len(), c.memory.Cost()
}

// DiskStats returns the file count and total size of the disk tier.
func (c *Cache) DiskStats() (files int, totalSize int64, err error) {
	return c.disk.Stats()
}

// Shutdown abandons live flights and stops the background cleaner, if any.
func (c *Cache) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.cancelFlights()
	c.mu.Unlock()

	if c.cleaner != nil {
		return c.cleaner.Shutdown(ctx)
	}
	return nil
}
