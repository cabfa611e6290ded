// Command imgprewarm warms an image cache directory from a list of urls,
// e.g. ahead of a deployment that is expected to serve them.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/okozhevnikov/imgcache/imgcache"
	"github.com/okozhevnikov/imgcache/loader"
	"github.com/okozhevnikov/imgcache/rlog"
)

func main() {
	var (
		dir         = flag.String("dir", "./var/imgcache", "Directory for cached files")
		urlsFile    = flag.String("urls", "", "File with newline-separated urls, empty or '-' for stdin")
		timeout     = flag.Duration("timeout", 15*time.Second, "Timeout of a single fetch")
		concurrency = flag.Int("concurrency", 8, "Number of concurrent loads")
		debug       = flag.Bool("debug", false, "Enable debug logs")

		cacheSize = imgcache.MiB(256)
	)
	flag.TextVar(&cacheSize, "cache-size", cacheSize, "Max total size of cached files")
	flag.Parse()

	if *debug {
		rlog.EnableDebug()
	}

	keys, err := readKeys(*urlsFile)
	if err != nil {
		rlog.Errorf("couldn't read urls: %s", err)
		os.Exit(1)
	}
	if len(keys) == 0 {
		rlog.Error("no urls to prewarm")
		os.Exit(1)
	}

	cfg := imgcache.DefaultConfig(*dir)
	cfg.MaxDiskSize = cacheSize
	cfg.FetchTimeout = *timeout
	cfg.PrewarmConcurrency = *concurrency

	cache, err := loader.New(cfg, nil)
	if err != nil {
		rlog.Errorf("couldn't prepare cache: %s", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := cache.Shutdown(ctx); err != nil {
			rlog.Error(err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rlog.Infof("prewarm %d urls into %q", len(keys), *dir)

	now := time.Now()
	cache.Prewarm(ctx, keys)
	dur := time.Since(now)

	files, totalSize, err := cache.DiskStats()
	if err != nil {
		rlog.Errorf("couldn't get cache dir stats: %s", err)
		return
	}

	rlog.Infof(
		"prewarm finished in %s, cache dir contains %d files (%.2f MiB)",
		dur, files, float64(totalSize)/(1<<20),
	)
}

func readKeys(urlsFile string) ([]imgcache.Key, error) {
	var r io.Reader = os.Stdin
	if urlsFile != "" && urlsFile != "-" {
		f, err := os.Open(urlsFile)
		if err != nil {
			return nil, fmt.Errorf("couldn't open urls file: %w", err)
		}
		defer f.Close()

		r = f
	}

	var keys []imgcache.Key
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keys = append(keys, imgcache.NewKey(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("couldn't scan urls: %w", err)
	}
	return keys, nil
}
