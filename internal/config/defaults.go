package config

import "io/fs"

const (
	defaultBasePath               = "/home/camerauser/driveway"
	defaultHostStagingPath        = "/var/lib/fakecam"
	defaultErrorVideoName         = "ERROR_ALERT.mp4"
	defaultRetentionDays          = 7
	defaultCooldownSeconds        = 10
	defaultSendTo                 = "root"
	defaultVideoExtension         = ".mp4"
	defaultWatchBackend           = "inotify"
	defaultOBSHost                = "127.0.0.1"
	defaultOBSPort                = 4455
	defaultMediaInput             = "Alert_Video"
	defaultSceneAlert             = "Alert"
	defaultSceneStandby           = "Standby"
	defaultContainerStagingPath   = "/fakecam"
	defaultPlaybackTimeoutSeconds = 60
	defaultHealthCheckSeconds     = 300
	defaultMainLoopSleepSeconds   = 10
	defaultDirectoryPollSeconds   = 30
	defaultSupervisor             = "docker"
	defaultQueryTimeoutSeconds    = 10
	defaultNotifyBackend          = "mail"
	defaultNotifyTimeoutSeconds   = 10
)

const (
	defaultFileMode fs.FileMode = 0o644
	defaultDirMode  fs.FileMode = 0o755
)

// Default returns a Config populated with the stock defaults. Load decodes
// over it, so a key set to zero or false in the file stays zero or false.
func Default() Config {
	return Config{
		Monitor: Monitor{
			BasePath:           defaultBasePath,
			HostStagingPath:    defaultHostStagingPath,
			ErrorVideoName:     defaultErrorVideoName,
			RequiredContainers: []string{"obs_compositor", "mediamtx"},
			RetentionDays:      defaultRetentionDays,
			CooldownSeconds:    defaultCooldownSeconds,
			SendTo:             defaultSendTo,
			VideoExtension:     defaultVideoExtension,
			WatchBackend:       defaultWatchBackend,
		},
		OBS: OBS{
			Host:                   defaultOBSHost,
			Port:                   defaultOBSPort,
			MediaInput:             defaultMediaInput,
			SceneAlert:             defaultSceneAlert,
			SceneStandby:           defaultSceneStandby,
			ContainerStagingPath:   defaultContainerStagingPath,
			PlaybackTimeoutSeconds: defaultPlaybackTimeoutSeconds,
		},
		Intervals: Intervals{
			HealthCheckSeconds:   defaultHealthCheckSeconds,
			MainLoopSleepSeconds: defaultMainLoopSleepSeconds,
			DirectoryPollSeconds: defaultDirectoryPollSeconds,
		},
		Health: Health{
			Supervisor:          defaultSupervisor,
			QueryTimeoutSeconds: defaultQueryTimeoutSeconds,
		},
		Notify: Notify{
			Backend:               defaultNotifyBackend,
			RequestTimeoutSeconds: defaultNotifyTimeoutSeconds,
		},
		Permissions: Permissions{
			Enabled:       true,
			FileMask:      "644",
			DirectoryMask: "755",
		},
	}
}
