package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/cam_mon/internal/domain"
)

// ClipPlayer plays one accepted clip on the remote surface.
type ClipPlayer interface {
	Play(ctx context.Context, hostPath string) error
}

type permissionApplier interface {
	Apply(path string, isDir bool)
}

// Debouncer turns file-close notifications into at most one trigger per
// cooldown window.
type Debouncer struct {
	mu          sync.Mutex
	lastTrigger time.Time

	cooldown  time.Duration
	extension string
	perms     permissionApplier
	player    ClipPlayer
	now       func() time.Time
	logger    *zap.Logger
}

// NewDebouncer creates a debouncer accepting closed files ending in extension.
func NewDebouncer(
	cooldown time.Duration,
	extension string,
	perms permissionApplier,
	player ClipPlayer,
	logger *zap.Logger,
) *Debouncer {
	return &Debouncer{
		cooldown:  cooldown,
		extension: extension,
		perms:     perms,
		player:    player,
		now:       time.Now,
		logger:    logger,
	}
}

// Qualifies reports whether ev can ever cause a trigger.
func (d *Debouncer) Qualifies(ev domain.FileEvent) bool {
	return ev.Kind == domain.EventClosed && !ev.IsDir && strings.HasSuffix(ev.Path, d.extension)
}

// Handle processes one notification and reports whether it triggered playback.
func (d *Debouncer) Handle(ctx context.Context, ev domain.FileEvent) bool {
	if !d.Qualifies(ev) {
		return false
	}
	if !d.accept(d.now()) {
		d.logger.Debug("clip dropped during cooldown", zap.String("path", ev.Path))
		return false
	}

	d.logger.Info("new motion clip", zap.String("path", ev.Path))
	if d.perms != nil {
		d.perms.Apply(ev.Path, false)
	}
	if err := d.player.Play(ctx, ev.Path); err != nil {
		d.logger.Warn("clip playback failed", zap.String("path", ev.Path), zap.Error(err))
	}
	return true
}

// HandleEvent adapts Handle to the event stream callback.
func (d *Debouncer) HandleEvent(ctx context.Context, ev domain.FileEvent) {
	d.Handle(ctx, ev)
}

// accept is the atomic read-compare-update of the cooldown clock.
func (d *Debouncer) accept(now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if now.Sub(d.lastTrigger) < d.cooldown {
		return false
	}
	d.lastTrigger = now
	return true
}

// LastTrigger returns the time of the last accepted event.
func (d *Debouncer) LastTrigger() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastTrigger
}
