package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/okozhevnikov/imgcache/imgcache"
	"github.com/okozhevnikov/imgcache/metrics"
	"github.com/okozhevnikov/imgcache/rlog"
)

// tmpFilePrefix marks files that are still being written. They are ignored
// by Prune and Stats and never served as cache hits.
const tmpFilePrefix = "tmp-"

// Disk is a size-bounded cache of raw content bytes persisted on the
// filesystem. Every key is stored in a single file named by the key hash.
// Content is probed before being trusted, so a corrupt file is simply
// overwritten on the next write.
type Disk struct {
	absDir  string
	maxSize int64
	probe   func(data []byte) bool
}

type diskFileInfo struct {
	path    string
	modTime time.Time
	size    int64
}

// NewDisk creates the cache directory if needed. The probe reports whether
// already persisted bytes are still valid; a nil probe accepts everything.
func NewDisk(dir string, maxSize int64, probe func(data []byte) bool) (*Disk, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("couldn't get absolute path: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o777); err != nil {
		return nil, fmt.Errorf("couldn't create cache dir %q: %w", absDir, err)
	}
	if probe == nil {
		probe = func([]byte) bool { return true }
	}
	return &Disk{
		absDir:  absDir,
		maxSize: maxSize,
		probe:   probe,
	}, nil
}

func (c *Disk) Dir() string {
	return c.absDir
}

func (c *Disk) path(key imgcache.Key) string {
	return filepath.Join(c.absDir, key.Hash())
}

// Read returns the persisted bytes for a key. If the file doesn't exist, it
// returns [imgcache.ErrCacheMiss]. Reads don't refresh the file modification
// time: writes naturally refresh recency, which keeps mtime-based pruning
// a reasonable LRU approximation.
func (c *Disk) Read(key imgcache.Key) ([]byte, error) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			metrics.DiskMisses.Inc()
			return nil, imgcache.ErrCacheMiss
		}

		metrics.DiskErrors.Inc()
		return nil, err
	}

	metrics.DiskHits.Inc()
	return data, nil
}

// Write persists the bytes for a key and prunes the cache directory if it
// went over budget. If a valid file for the key already exists, the write
// is skipped. The file is written to a temp path and renamed, so a reader
// never observes a partially written file.
func (c *Disk) Write(key imgcache.Key, data []byte) error {
	path := c.path(key)

	if existing, err := os.ReadFile(path); err == nil && c.probe(existing) {
		return nil
	}

	if err := c.writeAtomic(path, data); err != nil {
		metrics.DiskErrors.Inc()
		return err
	}

	if _, _, err := c.Prune(); err != nil {
		// A failed prune only delays freeing disk space, don't fail the write.
		rlog.Errorf("couldn't prune cache dir: %s", err)
	}
	return nil
}

func (c *Disk) writeAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(c.absDir, tmpFilePrefix+"*")
	if err != nil {
		return fmt.Errorf("couldn't create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("couldn't write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("couldn't close temp file: %w", err)
	}

	if err := os.Rename(f.Name(), path); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("couldn't rename temp file: %w", err)
	}
	return nil
}

// Prune removes the oldest-modified files until the total size of the cache
// directory is at or under the budget.
func (c *Disk) Prune() (removed int, freed int64, err error) {
	files, totalSize, err := c.loadAllFiles()
	if err != nil {
		return 0, 0, err
	}
	if totalSize <= c.maxSize {
		return 0, 0, nil
	}

	slices.SortFunc(files, func(a, b diskFileInfo) int {
		return a.modTime.Compare(b.modTime)
	})

	for _, file := range files {
		if totalSize <= c.maxSize {
			break
		}
		if err := os.Remove(file.path); err != nil {
			rlog.Errorf("couldn't remove cached file %q: %s", file.path, err)
			continue
		}
		totalSize -= file.size
		removed++
		freed += file.size
	}

	metrics.DiskPrunedFiles.Add(float64(removed))
	metrics.DiskPrunedBytes.Add(float64(freed))
	return removed, freed, nil
}

// RemoveAll deletes the entire cache directory and recreates it empty.
func (c *Disk) RemoveAll() error {
	if err := os.RemoveAll(c.absDir); err != nil {
		return fmt.Errorf("couldn't remove cache dir %q: %w", c.absDir, err)
	}
	if err := os.MkdirAll(c.absDir, 0o777); err != nil {
		return fmt.Errorf("couldn't recreate cache dir %q: %w", c.absDir, err)
	}
	return nil
}

// Stats returns the number of cached files and their total size.
func (c *Disk) Stats() (files int, totalSize int64, err error) {
	infos, totalSize, err := c.loadAllFiles()
	if err != nil {
		return 0, 0, err
	}
	return len(infos), totalSize, nil
}

func (c *Disk) loadAllFiles() (files []diskFileInfo, totalSize int64, err error) {
	entries, err := os.ReadDir(c.absDir)
	if err != nil {
		return nil, 0, fmt.Errorf("couldn't read cache dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), tmpFilePrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				// Removed by a concurrent prune.
				continue
			}
			return nil, 0, err
		}
		files = append(files, diskFileInfo{
			path:    filepath.Join(c.absDir, entry.Name()),
			modTime: info.ModTime(),
			size:    info.Size(),
		})
		totalSize += info.Size()
	}
	return files, totalSize, nil
}
