package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var sweepNow = time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)

func writeAged(t *testing.T, path string, age time.Duration) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("clip"), 0o644))
	setAge(t, path, age)
}

func mkdirAged(t *testing.T, path string, age time.Duration) {
	t.Helper()
	require.NoError(t, os.MkdirAll(path, 0o755))
	setAge(t, path, age)
}

func setAge(t *testing.T, path string, age time.Duration) {
	t.Helper()
	mtime := sweepNow.Add(-age)
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func TestSweep_RetentionHorizon(t *testing.T) {
	root := t.TempDir()
	old := filepath.Join(root, "2024", "03", "10", "old.mp4")
	edge := filepath.Join(root, "2024", "03", "13", "edge.mp4")
	fresh := filepath.Join(root, "2024", "03", "19", "fresh.mp4")
	writeAged(t, old, 10*day)
	writeAged(t, edge, 7*day)
	writeAged(t, fresh, day)

	result := NewSweeper(&diskFS{}, zap.NewNop()).Sweep(context.Background(), root, 7, sweepNow)

	assert.NoFileExists(t, old)
	assert.FileExists(t, edge, "mtime exactly at the horizon is kept")
	assert.FileExists(t, fresh)
	assert.Equal(t, []string{old}, result.DeletedFiles)
	assert.Empty(t, result.Errors)
}

func TestSweep_NoSurvivorOlderThanHorizon(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 20; i++ {
		age := time.Duration(i) * 12 * time.Hour
		writeAged(t, filepath.Join(root, "d", fmt.Sprintf("clip%02d.mp4", i)), age)
	}

	NewSweeper(&diskFS{}, zap.NewNop()).Sweep(context.Background(), root, 3, sweepNow)

	cutoff := sweepNow.Add(-3 * day)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		require.NoError(t, err)
		assert.False(t, info.ModTime().Before(cutoff), "survivor %s is past the horizon", path)
		return nil
	})
	require.NoError(t, err)
}

func TestSweep_EmptyDirectoryGrace(t *testing.T) {
	root := t.TempDir()
	stale := filepath.Join(root, "2024", "03", "01")
	today := filepath.Join(root, "2024", "03", "20")
	mkdirAged(t, stale, 2*day)
	mkdirAged(t, today, time.Hour)
	setAge(t, filepath.Join(root, "2024", "03"), time.Hour)
	setAge(t, filepath.Join(root, "2024"), time.Hour)

	result := NewSweeper(&diskFS{}, zap.NewNop()).Sweep(context.Background(), root, 7, sweepNow)

	assert.NoDirExists(t, stale)
	assert.DirExists(t, today, "a directory younger than 24h survives even when empty")
	assert.Equal(t, []string{stale}, result.DeletedDirs)
}

func TestSweep_NeverRemovesRoot(t *testing.T) {
	root := t.TempDir()
	setAge(t, root, 30*day)

	result := NewSweeper(&diskFS{}, zap.NewNop()).Sweep(context.Background(), root, 7, sweepNow)

	assert.DirExists(t, root)
	assert.Empty(t, result.DeletedDirs)
}

func TestSweep_NonEmptyDirectoryKept(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "2024", "03", "18")
	writeAged(t, filepath.Join(dir, "a.mp4"), 2*day)
	setAge(t, dir, 2*day)

	NewSweeper(&diskFS{}, zap.NewNop()).Sweep(context.Background(), root, 7, sweepNow)

	assert.DirExists(t, dir)
}

func TestSweep_ContinuesPastFailures(t *testing.T) {
	root := t.TempDir()
	stuck := filepath.Join(root, "a", "stuck.mp4")
	gone := filepath.Join(root, "b", "gone.mp4")
	writeAged(t, stuck, 10*day)
	writeAged(t, gone, 10*day)

	core, logs := observer.New(zap.InfoLevel)
	fsm := &diskFS{removeErr: map[string]error{stuck: fs.ErrPermission}}
	result := NewSweeper(fsm, zap.New(core)).Sweep(context.Background(), root, 7, sweepNow)

	assert.FileExists(t, stuck)
	assert.NoFileExists(t, gone)
	assert.Equal(t, []string{gone}, result.DeletedFiles)
	require.Len(t, result.Errors, 1)
	assert.True(t, errors.Is(result.Errors[0], fs.ErrPermission))
	assert.Equal(t, 1, logs.FilterMessage("failed to delete file").Len())
	assert.Equal(t, 1, logs.FilterMessage("purged old file").Len())
}

func TestSweep_VanishedEntryIsNotAnError(t *testing.T) {
	root := t.TempDir()
	clip := filepath.Join(root, "a", "clip.mp4")
	writeAged(t, clip, 10*day)

	fsm := &diskFS{removeErr: map[string]error{clip: fs.ErrNotExist}}
	result := NewSweeper(fsm, zap.NewNop()).Sweep(context.Background(), root, 7, sweepNow)

	assert.Empty(t, result.Errors)
	assert.Empty(t, result.DeletedFiles)
}

func TestSweep_MissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nope")

	result := NewSweeper(&diskFS{}, zap.NewNop()).Sweep(context.Background(), root, 7, sweepNow)

	assert.Empty(t, result.Errors)
	assert.Empty(t, result.DeletedFiles)
}

func TestSweep_DryRun(t *testing.T) {
	root := t.TempDir()
	old := filepath.Join(root, "2024", "03", "01", "old.mp4")
	empty := filepath.Join(root, "2024", "02", "28")
	writeAged(t, old, 19*day)
	mkdirAged(t, empty, 21*day)

	result := NewDryRunSweeper(&diskFS{}, zap.NewNop()).Sweep(context.Background(), root, 7, sweepNow)

	assert.FileExists(t, old)
	assert.DirExists(t, empty)
	assert.Equal(t, []string{old}, result.DeletedFiles)
	assert.Equal(t, []string{empty}, result.DeletedDirs)
}

func TestSweep_StopsOnCancel(t *testing.T) {
	root := t.TempDir()
	old := filepath.Join(root, "a", "old.mp4")
	writeAged(t, old, 10*day)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result := NewSweeper(&diskFS{}, zap.NewNop()).Sweep(ctx, root, 7, sweepNow)

	assert.FileExists(t, old)
	assert.Empty(t, result.DeletedFiles)
}
