package imgcache

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Dir is the directory for persisted cache files.
	Dir string

	// MaxMemoryEntries limits the number of decoded images kept in memory.
	MaxMemoryEntries int
	// MaxMemoryCost limits the aggregate cost of decoded images kept in memory.
	MaxMemoryCost MiB
	// MaxDiskSize limits the total size of persisted cache files. The disk
	// tier is pruned after every write, oldest files first.
	MaxDiskSize MiB

	// FetchTimeout bounds a single fetch from the byte source.
	FetchTimeout time.Duration
	// MaxImageDimension caps the long edge of decoded images. Larger images
	// are downsampled to bound memory cost.
	MaxImageDimension int
	// PrewarmConcurrency limits the number of concurrent loads started by Prewarm.
	PrewarmConcurrency int

	// CleanupInterval enables a background prune of the cache directory.
	// Zero disables it - the disk tier is still pruned after every write.
	CleanupInterval time.Duration
}

func DefaultConfig(dir string) Config {
	return Config{
		Dir:                dir,
		MaxMemoryEntries:   2000,
		MaxMemoryCost:      MiB(256),
		MaxDiskSize:        MiB(256),
		FetchTimeout:       15 * time.Second,
		MaxImageDimension:  960,
		PrewarmConcurrency: 8,
	}
}

func (cfg Config) Validate() error {
	if cfg.Dir == "" {
		return errors.New("dir can't be empty")
	}
	if cfg.MaxMemoryEntries <= 0 {
		return errors.New("max memory entries must be > 0")
	}
	if cfg.MaxMemoryCost <= 0 {
		return errors.New("max memory cost must be > 0")
	}
	if cfg.MaxDiskSize <= 0 {
		return errors.New("max disk size must be > 0")
	}
	if cfg.FetchTimeout <= 0 {
		return errors.New("fetch timeout must be > 0")
	}
	if cfg.MaxImageDimension <= 0 {
		return errors.New("max image dimension must be > 0")
	}
	if cfg.PrewarmConcurrency <= 0 {
		return errors.New("prewarm concurrency must be > 0")
	}
	return nil
}

type MiB int

func (mb MiB) Bytes() int64 {
	return int64(mb) << 20
}

func (mb MiB) String() string {
	text, _ := mb.MarshalText()
	return string(text)
}

func (mb MiB) MarshalText() (text []byte, err error) {
	if mb >= 1024 && mb%1024 == 0 {
		return []byte(strconv.Itoa(int(mb/1024)) + "Gi"), nil
	}
	return []byte(strconv.Itoa(int(mb)) + "Mi"), nil
}

func (mb *MiB) UnmarshalText(data []byte) error {
	text := string(data)

	mul := 1
	switch {
	case strings.HasSuffix(text, "Mi"):
	case strings.HasSuffix(text, "Gi"):
		mul = 1024
	default:
		return fmt.Errorf("valid suffixes: Mi, Gi")
	}
	n, err := strconv.Atoi(text[:len(text)-2])
	if err != nil {
		return fmt.Errorf("invalid size: %w", err)
	}

	*mb = MiB(n * mul)
	return nil
}
