package metrics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"photo-share/internal/docstore"
	"photo-share/internal/filesystem"
	"photo-share/internal/logging"
)

// Stats holds the library counts from one scan of the data directory.
type Stats struct {
	Admins      int
	Collections int
	Albums      int
	Files       map[string]int
	Bytes       map[string]int64
	StaleLocks  int
}

// Collector periodically scans the data directory and updates the library gauges
type Collector struct {
	root       string
	staleAfter time.Duration
	interval   time.Duration
	stopChan   chan struct{}
}

// NewCollector creates a new metrics collector. Lock markers older than staleAfter are
// counted as stale.
func NewCollector(root string, staleAfter, interval time.Duration) *Collector {
	return &Collector{
		root:       root,
		staleAfter: staleAfter,
		interval:   interval,
		stopChan:   make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	stats := c.Scan()

	LibraryDocuments.WithLabelValues("admin").Set(float64(stats.Admins))
	LibraryDocuments.WithLabelValues("collection").Set(float64(stats.Collections))
	LibraryDocuments.WithLabelValues("album").Set(float64(stats.Albums))
	for dir, n := range stats.Files {
		LibraryMediaFiles.WithLabelValues(dir).Set(float64(n))
		LibrarySizeBytes.WithLabelValues(dir).Set(float64(stats.Bytes[dir]))
	}
	StaleLocks.Set(float64(stats.StaleLocks))

	logging.Debug("Metrics collected: collections=%d, albums=%d, images=%d, stale locks=%d",
		stats.Collections, stats.Albums, stats.Files[docstore.ImagesDir], stats.StaleLocks)
}

// Scan counts documents, stored files and stale lock markers. Unreadable entries are
// skipped.
func (c *Collector) Scan() Stats {
	stats := Stats{Files: make(map[string]int), Bytes: make(map[string]int64)}

	stats.Admins = countDocuments(filepath.Join(c.root, docstore.AdminDir))

	if entries, err := os.ReadDir(filepath.Join(c.root, docstore.AlbumsDir)); err == nil {
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
				continue
			}
			if isCollection(filepath.Join(c.root, docstore.AlbumsDir, e.Name())) {
				stats.Collections++
			} else {
				stats.Albums++
			}
		}
	}

	for _, dir := range []string{docstore.ImagesDir, docstore.ThumbsDir, docstore.OriginalsDir} {
		entries, err := os.ReadDir(filepath.Join(c.root, dir))
		if err != nil {
			continue
		}
		stats.Files[dir] = 0
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			stats.Files[dir]++
			if info, err := e.Info(); err == nil {
				stats.Bytes[dir] += info.Size()
			}
		}
	}

	if c.staleAfter > 0 {
		stale, err := filesystem.FindStaleLocks(c.root, c.staleAfter)
		if err != nil {
			logging.Warn("Stale lock scan failed: %v", err)
		}
		stats.StaleLocks = len(stale)
	}
	return stats
}

func countDocuments(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			n++
		}
	}
	return n
}

func isCollection(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	var doc struct {
		Main string `json:"main"`
	}
	return json.Unmarshal(data, &doc) == nil && doc.Main != ""
}
