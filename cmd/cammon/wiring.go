package main

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/cam_mon/internal/config"
	"github.com/eliteGoblin/focusd/cam_mon/internal/daemon"
	"github.com/eliteGoblin/focusd/cam_mon/internal/domain"
	"github.com/eliteGoblin/focusd/cam_mon/internal/infra"
	"github.com/eliteGoblin/focusd/cam_mon/internal/obsws"
	"github.com/eliteGoblin/focusd/cam_mon/internal/usecase"
)

// app holds the wired components for one command invocation.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	fs     *infra.FileSystemManagerImpl

	closers []io.Closer
}

func newApp(cfg *config.Config, logger *zap.Logger) *app {
	return &app{cfg: cfg, logger: logger, fs: infra.NewFileSystemManager()}
}

// Close releases supervisor connections.
func (a *app) Close() {
	for _, c := range a.closers {
		_ = c.Close()
	}
}

func (a *app) notifier() domain.Notifier {
	switch a.cfg.Notify.Backend {
	case "ntfy":
		return infra.NewNtfyNotifier(a.cfg.Notify.NtfyURL, a.cfg.NotifyTimeout())
	case "log":
		return infra.NewLogNotifier(a.logger)
	default:
		return infra.NewMailNotifier()
	}
}

func (a *app) supervisor() (domain.Supervisor, error) {
	switch a.cfg.Health.Supervisor {
	case "systemd":
		sup, err := infra.NewSystemdSupervisor()
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, sup)
		return sup, nil
	case "process":
		return infra.NewProcessSupervisor(), nil
	default:
		return infra.NewDockerSupervisor(), nil
	}
}

func (a *app) eventSource() domain.EventSource {
	if a.cfg.Monitor.WatchBackend == "fsnotify" {
		return infra.NewNotifySource(infra.DefaultWriteSettle, a.logger.Named("watcher"))
	}
	return infra.NewInotifySource(a.logger.Named("watcher"))
}

func (a *app) obsDialer() *infra.OBSDialer {
	return infra.NewOBSDialer(obsws.Config{
		Host:     a.cfg.OBS.Host,
		Port:     a.cfg.OBS.Port,
		Password: a.cfg.OBS.Password,
	})
}

func (a *app) permissions() *usecase.Permissions {
	return usecase.NewPermissions(usecase.PermissionSettings{
		Enabled:   a.cfg.Permissions.Enabled,
		UserGroup: a.cfg.Permissions.UserGroup,
		FileMode:  a.cfg.FileMode(),
		DirMode:   a.cfg.DirMode(),
	}, infra.NewOSIdentityResolver(), a.fs, a.logger.Named("permissions"))
}

func (a *app) healthMonitor() (*usecase.HealthMonitor, error) {
	sup, err := a.supervisor()
	if err != nil {
		return nil, fmt.Errorf("health supervisor %q: %w", a.cfg.Health.Supervisor, err)
	}
	return usecase.NewHealthMonitor(sup, a.notifier(), a.cfg.Monitor.SendTo, a.cfg.QueryTimeout(), a.logger.Named("health")), nil
}

func (a *app) sceneController() *usecase.SceneController {
	timing := usecase.DefaultSceneTiming()
	timing.PlaybackTimeout = a.cfg.PlaybackTimeout()

	return usecase.NewSceneController(a.obsDialer(), a.fs, a.notifier(), usecase.SceneSettings{
		MediaInput:   a.cfg.OBS.MediaInput,
		AlertScene:   a.cfg.OBS.SceneAlert,
		StandbyScene: a.cfg.OBS.SceneStandby,
		FallbackClip: a.cfg.FallbackClipPath(),
		HostBase:     a.cfg.Monitor.BasePath,
		SurfaceBase:  a.cfg.OBS.ClipBasePath,
		Recipient:    a.cfg.Monitor.SendTo,
		Timing:       timing,
	}, a.logger.Named("scene"))
}

func (a *app) sweeper(dryRun bool) *usecase.Sweeper {
	if dryRun {
		return usecase.NewDryRunSweeper(a.fs, a.logger.Named("sweeper"))
	}
	return usecase.NewSweeper(a.fs, a.logger.Named("sweeper"))
}

func (a *app) monitor() (*daemon.Monitor, error) {
	health, err := a.healthMonitor()
	if err != nil {
		return nil, err
	}
	var perms daemon.DirPermissions
	if p := a.permissions(); p.Enabled() {
		perms = p
	} else {
		a.logger.Info("permission fixups disabled")
	}
	debouncer := usecase.NewDebouncer(a.cfg.Cooldown(), a.cfg.Monitor.VideoExtension, perms, a.sceneController(), a.logger.Named("trigger"))

	return daemon.NewMonitor(daemon.MonitorConfig{
		BasePath:            a.cfg.Monitor.BasePath,
		RetentionDays:       a.cfg.Monitor.RetentionDays,
		Dependencies:        a.cfg.Monitor.RequiredContainers,
		MainLoopSleep:       a.cfg.MainLoopSleep(),
		HealthCheckInterval: a.cfg.HealthCheckInterval(),
		DirectoryPoll:       a.cfg.DirectoryPoll(),
	}, a.eventSource(), a.fs, a.sweeper(false), health, debouncer, perms, a.logger.Named("monitor")), nil
}
