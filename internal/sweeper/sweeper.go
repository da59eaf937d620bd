// Package sweeper reclaims stale artifacts from the download directory.
// It works purely on file modification times and is independent of job
// bookkeeping: an artifact whose job record was lost (process restart,
// never-collected download) is still reaped once it ages out.
package sweeper

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper removes entries in dir older than maxAge.
type Sweeper struct {
	dir    string
	maxAge time.Duration
}

func New(dir string, maxAge time.Duration) *Sweeper {
	return &Sweeper{dir: dir, maxAge: maxAge}
}

// Sweep scans the directory once, removing files and directories whose
// last-modified time is older than the retention age. Per-entry failures are
// logged and skipped; the sweep itself never fails the caller.
func (s *Sweeper) Sweep() {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("dir", s.dir).Msg("sweep: read dir failed")
		}
		return
	}

	cutoff := time.Now().Add(-s.maxAge)
	removed := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue // raced with a delete; nothing to do
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		entryPath := filepath.Join(s.dir, entry.Name())
		if err := os.RemoveAll(entryPath); err != nil {
			log.Warn().Err(err).Str("path", entryPath).Msg("sweep: remove failed")
			continue
		}
		removed++
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Str("dir", s.dir).Msg("swept stale artifacts")
	}
}

// Run sweeps on the given interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
