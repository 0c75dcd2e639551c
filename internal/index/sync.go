package index

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/todoseq/internal/checksum"
	"github.com/starford/todoseq/internal/models"
	"github.com/starford/todoseq/internal/storage"
)

// ParseFunc extracts the tasks of one vault file.
type ParseFunc func(path string, data []byte) []models.Task

// SyncOptions tunes Sync.
type SyncOptions struct {
	// Workers bounds concurrent file parsing; <= 0 means GOMAXPROCS.
	Workers int
	// Force reparses files whose checksum is unchanged.
	Force bool
}

// SyncStats reports what a Sync pass changed.
type SyncStats struct {
	Indexed int
	Removed int
	Failed  int
}

type parsed struct {
	meta  models.FileMetadata
	data  []byte
	tasks []models.Task
	ok    bool
}

// Sync walks the vault and brings the index up to date:
//   - new/changed files are parsed concurrently and written one by one
//   - files removed from disk are deleted from the index
func Sync(ctx context.Context, db *DB, store storage.Provider, parse ParseFunc, opts SyncOptions, logger *slog.Logger) (SyncStats, error) {
	var stats SyncStats

	metas, err := store.List("")
	if err != nil {
		return stats, err
	}
	checksums, err := db.AllChecksums()
	if err != nil {
		return stats, err
	}

	disk := make(map[string]struct{}, len(metas))
	var changed []models.FileMetadata
	for _, m := range metas {
		disk[m.Path] = struct{}{}
		if !opts.Force && checksums[m.Path] == m.Checksum {
			continue
		}
		changed = append(changed, m)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([]parsed, len(changed))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, m := range changed {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := store.Read(m.Path)
			if err != nil {
				logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
				return nil
			}
			results[i] = parsed{meta: m, data: data, tasks: parse(m.Path, data), ok: true}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stats, err
	}

	for _, r := range results {
		if !r.ok {
			stats.Failed++
			continue
		}
		if err := writeFile(db, r.meta.Path, r.data, r.tasks); err != nil {
			stats.Failed++
			logger.Warn("sync: index failed", slog.String("path", r.meta.Path), slog.String("error", err.Error()))
			continue
		}
		stats.Indexed++
		logger.Debug("sync: indexed", slog.String("path", r.meta.Path), slog.Int("tasks", len(r.tasks)))
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteFile(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				stats.Removed++
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return stats, nil
}

// indexFile parses data and replaces the file's tasks in the DB.
func indexFile(db *DB, path string, data []byte, parse ParseFunc) error {
	return writeFile(db, path, data, parse(path, data))
}

func writeFile(db *DB, path string, data []byte, tasks []models.Task) error {
	return db.ReplaceFileTasks(FileRow{
		Path:      path,
		Checksum:  checksum.Sum(data),
		UpdatedAt: time.Now(),
	}, tasks)
}
