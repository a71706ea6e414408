// Command seqview plays an image sequence through the cache: it scans a
// directory for frames, requests each one in order, and reports hit rates.
// Misses are retried once the background load that they triggered
// completes, mimicking a viewer redrawing on the completion signal.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"seqcache"
	"seqcache/imagedec"
)

func main() {
	dir := flag.String("dir", "", "directory containing the image sequence (png/jpeg)")
	prefetch := flag.Int("prefetch", 30, "prefetch window half-width")
	safe := flag.Int("safe", 20, "safe window half-width")
	capacity := flag.Int("capacity", 256, "cache capacity in frames")
	level := flag.Int("level", 1, "resolution level (downscale factor)")
	flag.Parse()

	logger := slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelInfo,
			TimeFormat: "15:04:05",
		}),
	)

	if *dir == "" {
		fmt.Println("Usage: seqview --dir path/to/frames [--prefetch n] [--safe n] [--capacity n] [--level n]")
		os.Exit(1)
	}

	paths, err := scanFrames(*dir)
	if err != nil {
		logger.Error("scan failed", "dir", *dir, "error", err)
		os.Exit(1)
	}
	if len(paths) == 0 {
		logger.Error("no frames found", "dir", *dir)
		os.Exit(1)
	}

	c := seqcache.New(imagedec.New(),
		seqcache.WithPrefetchExtent(*prefetch),
		seqcache.WithSafeExtent(*safe),
		seqcache.WithCacheCapacity(*capacity),
		seqcache.WithResolutionLevel(*level),
		seqcache.WithLogger(logger))

	start := time.Now()
	if err := c.SetSequence(paths); err != nil {
		logger.Error("sequence rejected", "error", err)
		os.Exit(1)
	}
	logger.Info("sequence ready", "frames", c.Len(), "probe_time", time.Since(start))

	served := 0
	for _, path := range paths {
		resp := c.Request(path)
		for !resp.Ok() {
			select {
			case <-c.RequestHandled():
				resp = c.Request(path)
			case <-time.After(30 * time.Second):
				logger.Error("frame never became available", "path", path)
				os.Exit(1)
			}
		}
		served++
	}

	stats := c.Stats()
	logger.Info("sequence played",
		"served", served,
		"elapsed", time.Since(start),
		"hits", stats.Hits,
		"misses", stats.Misses,
		"evictions", stats.Evictions,
		"decoded", stats.Loads,
		"decode_failures", stats.LoadFailures,
		"resident", len(c.CachedFrames()))
}

// scanFrames lists the decodable images directly under dir, sorted by path.
func scanFrames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".png", ".jpg", ".jpeg":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}
