package usecase

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/cam_mon/internal/domain"
)

// EmptyDirGrace is how long an empty directory is left alone. A camera creates
// the day directory before the first clip lands in it.
const EmptyDirGrace = 24 * time.Hour

const day = 24 * time.Hour

// Sweeper enforces the retention horizon on the storage tree.
type Sweeper struct {
	fs     domain.FileSystemManager
	logger *zap.Logger
	dryRun bool
}

// NewSweeper creates a retention sweeper.
func NewSweeper(fsm domain.FileSystemManager, logger *zap.Logger) *Sweeper {
	return &Sweeper{fs: fsm, logger: logger}
}

// NewDryRunSweeper reports what a sweep would delete without deleting anything.
func NewDryRunSweeper(fsm domain.FileSystemManager, logger *zap.Logger) *Sweeper {
	return &Sweeper{fs: fsm, logger: logger, dryRun: true}
}

// Sweep walks root bottom-up. Files whose mtime is before now-retentionDays
// are deleted. Directories below root are deleted once they are empty and
// their own mtime is more than EmptyDirGrace old. Errors are logged per entry
// and never stop the walk.
func (s *Sweeper) Sweep(ctx context.Context, root string, retentionDays int, now time.Time) domain.SweepResult {
	start := time.Now()
	result := domain.SweepResult{
		Root:         root,
		DeletedFiles: make([]string, 0),
		DeletedDirs:  make([]string, 0),
		Errors:       make([]error, 0),
		ExecutedAt:   now,
	}

	cutoff := now.Add(-time.Duration(retentionDays) * day)
	s.sweepDir(ctx, root, root, cutoff, now, &result)

	result.DurationMs = time.Since(start).Milliseconds()
	if len(result.DeletedFiles) > 0 || len(result.DeletedDirs) > 0 || len(result.Errors) > 0 {
		s.logger.Info("sweep completed",
			zap.String("root", root),
			zap.Int("files_deleted", len(result.DeletedFiles)),
			zap.Int("dirs_deleted", len(result.DeletedDirs)),
			zap.Int("errors", len(result.Errors)),
			zap.Bool("dry_run", s.dryRun))
	}
	return result
}

func (s *Sweeper) sweepDir(ctx context.Context, root, dir string, cutoff, now time.Time, result *domain.SweepResult) {
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		s.recordError(result, "failed to list directory", dir, err)
		return
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		if entry.IsDir() {
			s.sweepDir(ctx, root, filepath.Join(dir, entry.Name()), cutoff, now, result)
		}
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		if entry.IsDir() {
			continue
		}
		s.sweepFile(filepath.Join(dir, entry.Name()), cutoff, result)
	}

	if dir != root {
		s.pruneDir(dir, now, result)
	}
}

func (s *Sweeper) sweepFile(path string, cutoff time.Time, result *domain.SweepResult) {
	info, err := s.fs.Stat(path)
	if err != nil {
		s.recordError(result, "failed to stat file", path, err)
		return
	}
	if !info.ModTime().Before(cutoff) {
		return
	}

	if !s.dryRun {
		if err := s.fs.Remove(path); err != nil {
			s.recordError(result, "failed to delete file", path, err)
			return
		}
	}
	s.logger.Info("purged old file",
		zap.String("path", path),
		zap.Time("mtime", info.ModTime()),
		zap.Bool("dry_run", s.dryRun))
	result.DeletedFiles = append(result.DeletedFiles, path)
}

func (s *Sweeper) pruneDir(dir string, now time.Time, result *domain.SweepResult) {
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		s.recordError(result, "failed to list directory", dir, err)
		return
	}
	// Removing entries bumps the directory mtime, so a directory emptied by
	// this sweep is pruned by a later one. A dry run sees the same outcome.
	if len(entries) > 0 {
		return
	}

	info, err := s.fs.Stat(dir)
	if err != nil {
		s.recordError(result, "failed to stat directory", dir, err)
		return
	}
	if now.Sub(info.ModTime()) <= EmptyDirGrace {
		return
	}

	if !s.dryRun {
		if err := s.fs.Remove(dir); err != nil {
			s.recordError(result, "failed to delete directory", dir, err)
			return
		}
	}
	s.logger.Info("purged empty directory",
		zap.String("path", dir),
		zap.Bool("dry_run", s.dryRun))
	result.DeletedDirs = append(result.DeletedDirs, dir)
}

func (s *Sweeper) recordError(result *domain.SweepResult, msg, path string, err error) {
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("entry vanished during sweep", zap.String("path", path))
		return
	}
	s.logger.Error(msg, zap.String("path", path), zap.Error(err))
	result.Errors = append(result.Errors, err)
}
