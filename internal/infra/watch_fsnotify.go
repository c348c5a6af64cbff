package infra

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/cam_mon/internal/domain"
)

// ErrWatchRemoved means the watched directory was deleted or moved away.
var ErrWatchRemoved = errors.New("watched directory removed")

// DefaultWriteSettle is how long a file must stay unwritten before the
// portable backend treats it as closed.
const DefaultWriteSettle = 2 * time.Second

// NotifySource watches directories with fsnotify. fsnotify has no close event,
// so a file counts as closed once no write has been seen for the settle period.
type NotifySource struct {
	settle time.Duration
	logger *zap.Logger
}

// NewNotifySource creates a portable event source.
func NewNotifySource(settle time.Duration, logger *zap.Logger) *NotifySource {
	if settle <= 0 {
		settle = DefaultWriteSettle
	}
	return &NotifySource{settle: settle, logger: logger}
}

// Attach starts a non-recursive watch on dir.
func (s *NotifySource) Attach(dir string) (domain.EventStream, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &notifyStream{
		dir:     dir,
		watcher: watcher,
		settle:  s.settle,
		pending: make(map[string]time.Time),
		logger:  s.logger,
	}, nil
}

type notifyStream struct {
	dir     string
	watcher *fsnotify.Watcher
	settle  time.Duration
	pending map[string]time.Time // path -> last write
	logger  *zap.Logger
}

func (s *notifyStream) Dir() string { return s.dir }

// Serve delivers events on the calling goroutine until ctx is canceled.
func (s *notifyStream) Serve(ctx context.Context, handle func(context.Context, domain.FileEvent)) error {
	defer s.watcher.Close()

	ticker := time.NewTicker(s.settle / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-s.watcher.Events:
			if !ok {
				return fmt.Errorf("%s: event channel closed", s.dir)
			}
			if event.Name == s.dir && event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				return fmt.Errorf("%s: %w", s.dir, ErrWatchRemoved)
			}
			s.observe(ctx, event, handle)

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return fmt.Errorf("%s: error channel closed", s.dir)
			}
			s.logger.Warn("watcher error", zap.String("dir", s.dir), zap.Error(err))

		case now := <-ticker.C:
			s.flushSettled(ctx, now, handle)
		}
	}
}

func (s *notifyStream) observe(ctx context.Context, event fsnotify.Event, handle func(context.Context, domain.FileEvent)) {
	switch {
	case event.Has(fsnotify.Create):
		isDir := isDirectory(event.Name)
		handle(ctx, domain.FileEvent{Path: event.Name, IsDir: isDir, Kind: domain.EventCreated})
		if !isDir {
			s.pending[event.Name] = time.Now()
		}
	case event.Has(fsnotify.Write):
		s.pending[event.Name] = time.Now()
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		delete(s.pending, event.Name)
	}
}

func (s *notifyStream) flushSettled(ctx context.Context, now time.Time, handle func(context.Context, domain.FileEvent)) {
	for path, last := range s.pending {
		if now.Sub(last) < s.settle {
			continue
		}
		delete(s.pending, path)
		if ctx.Err() != nil {
			return
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		handle(ctx, domain.FileEvent{Path: path, IsDir: info.IsDir(), Kind: domain.EventClosed})
	}
}

func isDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// Ensure NotifySource implements domain.EventSource.
var _ domain.EventSource = (*NotifySource)(nil)
