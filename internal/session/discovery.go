// Package session loads recording sessions from disk and persists sync
// runs to sqlite.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ooju-data/videosync/internal/monitoring"
	"github.com/ooju-data/videosync/internal/motion"
)

// DiscoverMotionFiles lists the motion log files in a session
// directory: every .json file except metadata and validation sidecars,
// sorted by name so merge order is stable.
func DiscoverMotionFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read session dir %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		if strings.HasSuffix(name, "metadata.json") || strings.HasSuffix(name, "validation.json") {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

// LoadTrack builds the session's motion track. path may be a single
// motion log file or a directory of them. Unparseable files are skipped
// with a warning so a multi-file session degrades gracefully; only a
// missing path is an error.
func LoadTrack(path string) (*motion.Track, motion.LoadStats, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, motion.LoadStats{}, fmt.Errorf("motion path not found: %w", err)
	}

	var files []string
	if info.IsDir() {
		files, err = DiscoverMotionFiles(path)
		if err != nil {
			return nil, motion.LoadStats{}, err
		}
		if len(files) == 0 {
			monitoring.Logf("session: no motion files found in %s", path)
		}
	} else {
		files = []string{path}
	}

	var sources []*motion.SourceRecord
	for _, f := range files {
		rec, err := motion.LoadSourceFile(f)
		if err != nil {
			monitoring.Logf("session: skipping %s: %v", f, err)
			continue
		}
		sources = append(sources, rec)
	}

	track, stats := motion.BuildTrack(sources)
	monitoring.Logf("session: loaded %d samples from %d sources (%d skipped, %d truncated)",
		stats.TotalSamples, stats.SourcesLoaded, stats.SourcesSkipped, stats.SamplesTruncated)
	return track, stats, nil
}
