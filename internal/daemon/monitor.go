// Package daemon implements the long-running clip monitor loop.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eliteGoblin/focusd/cam_mon/internal/domain"
	"github.com/eliteGoblin/focusd/cam_mon/internal/usecase"
)

var errStreamClosed = errors.New("event stream closed unexpectedly")

// Sweeper enforces retention on the storage tree.
type Sweeper interface {
	Sweep(ctx context.Context, root string, retentionDays int, now time.Time) domain.SweepResult
}

// HealthChecker verifies dependent processes.
type HealthChecker interface {
	Check(ctx context.Context, names []string) []domain.HealthResult
}

// EventHandler consumes events from the day directory.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev domain.FileEvent)
}

// DirPermissions fixes up the day directory before it is watched.
type DirPermissions interface {
	EnsureDirMode(path string)
	Apply(path string, isDir bool)
}

// MonitorConfig holds monitor daemon configuration.
type MonitorConfig struct {
	BasePath            string
	RetentionDays       int
	Dependencies        []string
	MainLoopSleep       time.Duration // How often the loop wakes while watching
	HealthCheckInterval time.Duration // Minimum gap between dependency checks
	DirectoryPoll       time.Duration // How often to look for a missing day directory
}

// DefaultMonitorConfig returns default monitor configuration.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		BasePath:            "/home/camerauser/driveway",
		RetentionDays:       7,
		Dependencies:        []string{"obs_compositor", "mediamtx"},
		MainLoopSleep:       10 * time.Second,
		HealthCheckInterval: 5 * time.Minute,
		DirectoryPoll:       30 * time.Second,
	}
}

// healthState is shared between the loop and status readers.
type healthState struct {
	mu        sync.Mutex
	lastCheck time.Time
}

func (h *healthState) due(now time.Time, interval time.Duration) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return now.Sub(h.lastCheck) > interval
}

func (h *healthState) mark(t time.Time) {
	h.mu.Lock()
	h.lastCheck = t
	h.mu.Unlock()
}

// Monitor is the per-day watch loop. Each cycle sweeps the storage tree,
// waits for today's directory, watches it until the calendar rolls over,
// and runs dependency health checks on the way.
type Monitor struct {
	config  MonitorConfig
	source  domain.EventSource
	fs      domain.FileSystemManager
	sweeper Sweeper
	health  HealthChecker
	handler EventHandler
	perms   DirPermissions
	logger  *zap.Logger

	now         func() time.Time
	healthState healthState
}

// NewMonitor creates a new monitor daemon.
func NewMonitor(
	config MonitorConfig,
	source domain.EventSource,
	fsm domain.FileSystemManager,
	sweeper Sweeper,
	health HealthChecker,
	handler EventHandler,
	perms DirPermissions,
	logger *zap.Logger,
) *Monitor {
	return &Monitor{
		config:  config,
		source:  source,
		fs:      fsm,
		sweeper: sweeper,
		health:  health,
		handler: handler,
		perms:   perms,
		logger:  logger,
		now:     time.Now,
	}
}

// Run repeats daily cycles until ctx is canceled. Cancellation is a clean
// shutdown and returns nil.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitor daemon started",
		zap.String("base_path", m.config.BasePath),
		zap.Strings("dependencies", m.config.Dependencies))

	for {
		err := m.RunCycle(ctx)
		if ctx.Err() != nil {
			m.logger.Info("monitor daemon stopping")
			return nil
		}

		switch {
		case err == nil:
		case errors.Is(err, domain.ErrDayRolledOver):
			m.logger.Info("day rolled over, rotating watch directory")
		default:
			m.logger.Error("monitor cycle aborted", zap.Error(err))
			if !sleep(ctx, m.config.DirectoryPoll) {
				m.logger.Info("monitor daemon stopping")
				return nil
			}
		}
	}
}

// RunCycle runs one day cycle. It returns domain.ErrDayRolledOver when the
// calendar moves on, ctx.Err() on interrupt, and any other error when the
// cycle could not start watching.
func (m *Monitor) RunCycle(ctx context.Context) error {
	now := m.now()
	dir := usecase.DailyDir(m.config.BasePath, now)

	m.sweeper.Sweep(ctx, m.config.BasePath, m.config.RetentionDays, now)

	if err := m.awaitDirectory(ctx, dir); err != nil {
		return err
	}

	if m.perms != nil {
		m.perms.EnsureDirMode(dir)
		m.perms.Apply(dir, true)
	}

	stream, err := m.source.Attach(dir)
	if err != nil {
		return fmt.Errorf("attach watcher to %s: %w", dir, err)
	}
	m.logger.Info("directory detected, monitoring started", zap.String("dir", dir))

	return m.watch(ctx, stream)
}

// awaitDirectory blocks until dir exists. It logs once on entry and returns
// domain.ErrDayRolledOver if the calendar moves on first.
func (m *Monitor) awaitDirectory(ctx context.Context, dir string) error {
	if m.fs.Exists(dir) {
		return nil
	}
	m.logger.Info("waiting for camera to create today's directory", zap.String("dir", dir))

	for !m.fs.Exists(dir) {
		if !sleep(ctx, m.config.DirectoryPoll) {
			return ctx.Err()
		}
		if m.rolledOver(dir) {
			return domain.ErrDayRolledOver
		}
	}
	return nil
}

// watch serves stream on its own goroutine while the loop handles health
// checks and rollover. It always cancels and joins the stream before returning.
// Handlers run under ctx, not the watch context, so rollover lets an in-flight
// clip finish while an interrupt cuts it short.
func (m *Monitor) watch(ctx context.Context, stream domain.EventStream) error {
	watchCtx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(watchCtx)
	handle := func(_ context.Context, ev domain.FileEvent) {
		m.handler.HandleEvent(ctx, ev)
	}
	g.Go(func() error {
		if err := stream.Serve(gctx, handle); err != nil {
			return err
		}
		if gctx.Err() == nil {
			return errStreamClosed
		}
		return nil
	})

	stop := func() error {
		cancel()
		return g.Wait()
	}

	m.healthState.mark(m.now())
	ticker := time.NewTicker(m.config.MainLoopSleep)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := stop(); err != nil {
				m.logger.Warn("watcher stopped with error", zap.Error(err))
			}
			return ctx.Err()

		case <-gctx.Done():
			err := stop()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Serve failed on its own.
			if err == nil {
				err = errStreamClosed
			}
			return fmt.Errorf("watch %s: %w", stream.Dir(), err)

		case <-ticker.C:
			m.maybeCheckHealth(ctx)

			if m.rolledOver(stream.Dir()) {
				if err := stop(); err != nil {
					m.logger.Warn("watcher stopped with error", zap.Error(err))
				}
				m.logger.Info("watcher stopped", zap.String("dir", stream.Dir()))
				return domain.ErrDayRolledOver
			}
		}
	}
}

func (m *Monitor) maybeCheckHealth(ctx context.Context) {
	if m.health == nil || len(m.config.Dependencies) == 0 {
		return
	}
	if !m.healthState.due(m.now(), m.config.HealthCheckInterval) {
		return
	}
	m.health.Check(ctx, m.config.Dependencies)
	m.healthState.mark(m.now())
}

// LastHealthCheck returns when dependencies were last checked.
func (m *Monitor) LastHealthCheck() time.Time {
	m.healthState.mu.Lock()
	defer m.healthState.mu.Unlock()
	return m.healthState.lastCheck
}

func (m *Monitor) rolledOver(dir string) bool {
	return usecase.DailyDir(m.config.BasePath, m.now()) != dir
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
