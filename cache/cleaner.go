package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/okozhevnikov/imgcache/rlog"
)

// Cleaner prunes the disk cache on an interval, in addition to the prune
// that runs after every write. It covers the case where files accumulate
// without new writes, e.g. after the size budget is lowered.
type Cleaner struct {
	disk     *Disk
	interval time.Duration

	stopCh                 chan struct{}
	cleanupProcessFinished chan struct{}
}

func NewCleaner(disk *Disk, interval time.Duration) *Cleaner {
	c := &Cleaner{
		disk:     disk,
		interval: interval,
		//
		stopCh:                 make(chan struct{}),
		cleanupProcessFinished: make(chan struct{}),
	}

	go c.startCleanupProcess()

	return c
}

func (c *Cleaner) startCleanupProcess() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		// Run immediately.
		c.cleanup()

		select {
		case <-ticker.C:
			continue
		case <-c.stopCh:
			close(c.cleanupProcessFinished)
			return
		}
	}
}

func (c *Cleaner) cleanup() {
	rlog.Debug("start cleanup")

	removed, freed, err := c.disk.Prune()
	if err != nil {
		rlog.Errorf("couldn't prune cache dir: %s", err)
		return
	}
	if removed > 0 {
		rlog.Infof(
			"%d files have been removed from cache for a total of %s freed",
			removed, formatFileSize(freed),
		)
	}
}

func (c *Cleaner) Shutdown(ctx context.Context) error {
	close(c.stopCh)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.cleanupProcessFinished:
		return nil
	}
}

func formatFileSize(size int64) string {
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.2f MiB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.2f KiB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}
