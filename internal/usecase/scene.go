package usecase

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/cam_mon/internal/domain"
)

// SceneTiming holds the fixed delays of one playback run.
type SceneTiming struct {
	ClearSettle     time.Duration // after blanking the input
	InitialWait     time.Duration // before the first playback poll
	PollInterval    time.Duration
	PlaybackTimeout time.Duration // hard bound on waiting for the clip to end
	RevertSettle    time.Duration // after switching back to standby
	CleanupTimeout  time.Duration // budget for revert+re-arm once ctx is canceled
}

// DefaultSceneTiming returns the production timings.
func DefaultSceneTiming() SceneTiming {
	return SceneTiming{
		ClearSettle:     100 * time.Millisecond,
		InitialWait:     2 * time.Second,
		PollInterval:    500 * time.Millisecond,
		PlaybackTimeout: 60 * time.Second,
		RevertSettle:    500 * time.Millisecond,
		CleanupTimeout:  5 * time.Second,
	}
}

// SceneSettings names the surface objects the controller drives.
type SceneSettings struct {
	MediaInput   string
	AlertScene   string
	StandbyScene string

	// FallbackClip is the error clip, already in the surface's namespace.
	FallbackClip string

	// HostBase and SurfaceBase translate clip paths when the surface sees the
	// storage tree under a different root. Empty SurfaceBase passes paths through.
	HostBase    string
	SurfaceBase string

	Recipient string
	Timing    SceneTiming
}

// SceneController drives the remote surface through
// clear, load, switch, wait, revert and re-arm for one clip at a time.
type SceneController struct {
	dialer   domain.SceneDialer
	fs       domain.FileSystemManager
	notifier domain.Notifier
	settings SceneSettings
	logger   *zap.Logger

	mu    sync.Mutex
	state domain.SceneState
}

// NewSceneController creates a scene controller.
func NewSceneController(
	dialer domain.SceneDialer,
	fsm domain.FileSystemManager,
	notifier domain.Notifier,
	settings SceneSettings,
	logger *zap.Logger,
) *SceneController {
	return &SceneController{
		dialer:   dialer,
		fs:       fsm,
		notifier: notifier,
		settings: settings,
		logger:   logger,
	}
}

// State returns the current state machine state.
func (c *SceneController) State() domain.SceneState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *SceneController) enter(s domain.SceneState) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	c.logger.Debug("scene state", zap.Stringer("state", s))
}

// ResolveCandidate inspects the clip on the host and picks what the surface plays.
// Missing or empty clips resolve to the fallback clip.
func (c *SceneController) ResolveCandidate(hostPath string) domain.ClipCandidate {
	candidate := domain.ClipCandidate{HostPath: hostPath}
	if info, err := c.fs.Stat(hostPath); err == nil && !info.IsDir() {
		candidate.Exists = true
		candidate.Size = info.Size()
	}

	if candidate.Playable() {
		candidate.SurfacePath = c.surfacePath(hostPath)
	} else {
		candidate.SurfacePath = c.settings.FallbackClip
		candidate.Fallback = true
	}
	return candidate
}

func (c *SceneController) surfacePath(hostPath string) string {
	if c.settings.SurfaceBase == "" || c.settings.HostBase == "" {
		return hostPath
	}
	rel, err := filepath.Rel(c.settings.HostBase, hostPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return hostPath
	}
	return path.Join(c.settings.SurfaceBase, filepath.ToSlash(rel))
}

// Play runs the state machine once for hostPath. Any failure aborts the
// remaining steps and raises a single alert; there is no retry. An interrupt
// is not a failure: the surface is put back on standby and no alert is sent.
func (c *SceneController) Play(ctx context.Context, hostPath string) error {
	err := c.run(ctx, hostPath)
	c.enter(domain.SceneIdle)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		c.logger.Warn("surface control interrupted", zap.String("clip", hostPath), zap.Error(err))
		return err
	}
	c.logger.Error("surface control failed", zap.String("clip", hostPath), zap.Error(err))
	sendAlert(context.WithoutCancel(ctx), c.notifier, domain.Alert{
		Subject:   "CRITICAL: OBS Down",
		Body:      fmt.Sprintf("Connection failed: %v", err),
		Recipient: c.settings.Recipient,
	}, c.logger)
	return err
}

func (c *SceneController) run(ctx context.Context, hostPath string) error {
	s := c.settings

	candidate := c.ResolveCandidate(hostPath)
	if candidate.Fallback {
		c.logger.Warn("clip missing or empty, playing fallback",
			zap.String("clip", hostPath),
			zap.String("fallback", candidate.SurfacePath))
	}

	session, err := c.dialer.Dial(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			c.logger.Debug("failed to close surface session", zap.Error(cerr))
		}
	}()

	if err := c.present(ctx, session, candidate); err != nil {
		if ctx.Err() == nil {
			return err
		}
		c.logger.Info("playback interrupted, reverting", zap.String("clip", hostPath), zap.Error(err))
	}

	// Shutdown must not strand the surface on the alert scene or a blank input.
	cleanupCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		cleanupCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), s.Timing.CleanupTimeout)
		defer cancel()
	}

	c.enter(domain.SceneReverting)
	if err := session.SwitchScene(cleanupCtx, s.StandbyScene); err != nil {
		return fmt.Errorf("switch to %s: %w", s.StandbyScene, err)
	}
	_ = sleepCtx(cleanupCtx, s.Timing.RevertSettle)

	c.enter(domain.SceneReArming)
	if err := session.SetInputSource(cleanupCtx, s.MediaInput, s.FallbackClip); err != nil {
		return fmt.Errorf("re-arm %s: %w", s.MediaInput, err)
	}
	if err := session.TriggerAction(cleanupCtx, s.MediaInput, domain.MediaActionStop); err != nil {
		return fmt.Errorf("stop %s: %w", s.MediaInput, err)
	}

	c.logger.Info("surface reset and re-armed", zap.String("clip", hostPath))
	return nil
}

// present clears the input, loads the candidate, switches to the alert scene
// and waits for playback to end.
func (c *SceneController) present(ctx context.Context, session domain.SceneSession, candidate domain.ClipCandidate) error {
	s := c.settings

	c.enter(domain.SceneClearing)
	if err := session.SetInputSource(ctx, s.MediaInput, ""); err != nil {
		return fmt.Errorf("clear input %s: %w", s.MediaInput, err)
	}
	if err := sleepCtx(ctx, s.Timing.ClearSettle); err != nil {
		return err
	}

	c.enter(domain.SceneLoading)
	if err := session.SetInputSource(ctx, s.MediaInput, candidate.SurfacePath); err != nil {
		return fmt.Errorf("load %s: %w", candidate.SurfacePath, err)
	}

	c.enter(domain.SceneSwitched)
	if err := session.SwitchScene(ctx, s.AlertScene); err != nil {
		return fmt.Errorf("switch to %s: %w", s.AlertScene, err)
	}

	c.enter(domain.SceneWaitingForEnd)
	return c.waitForEnd(ctx, session)
}

// waitForEnd polls until playback ends, stops, times out, or ctx is canceled.
// Only a failed poll is an error.
func (c *SceneController) waitForEnd(ctx context.Context, session domain.SceneSession) error {
	s := c.settings
	deadline := time.Now().Add(s.Timing.InitialWait + s.Timing.PlaybackTimeout)

	if sleepCtx(ctx, s.Timing.InitialWait) != nil {
		return nil
	}
	for {
		state, err := session.PlaybackState(ctx, s.MediaInput)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("poll %s: %w", s.MediaInput, err)
		}
		if state.Terminal() {
			return nil
		}
		if !time.Now().Before(deadline) {
			c.logger.Warn("playback wait timed out",
				zap.String("input", s.MediaInput),
				zap.String("state", string(state)),
				zap.Duration("timeout", s.Timing.PlaybackTimeout))
			return nil
		}
		if sleepCtx(ctx, s.Timing.PollInterval) != nil {
			return nil
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
