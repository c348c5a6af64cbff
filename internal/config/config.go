// Package config loads the cammon TOML configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/pelletier/go-toml/v2"
)

// Monitor holds filesystem and alerting settings.
type Monitor struct {
	BasePath           string   `toml:"base_path" env:"CAMMON_BASE_PATH" validate:"required"`
	HostStagingPath    string   `toml:"host_staging_path" env:"CAMMON_HOST_STAGING_PATH"`
	ErrorVideoName     string   `toml:"error_video_name" env:"CAMMON_ERROR_VIDEO_NAME" validate:"required"`
	RequiredContainers []string `toml:"required_containers" env:"CAMMON_REQUIRED_CONTAINERS" validate:"min=1,dive,required"`
	RetentionDays      int      `toml:"retention_days" env:"CAMMON_RETENTION_DAYS" validate:"gte=0"`
	CooldownSeconds    int      `toml:"cooldown_seconds" env:"CAMMON_COOLDOWN_SECONDS" validate:"gte=0"`
	LogFile            string   `toml:"log_file" env:"CAMMON_LOG_FILE"`
	SendTo             string   `toml:"send_to" env:"CAMMON_SEND_TO"`
	VideoExtension     string   `toml:"video_extension" env:"CAMMON_VIDEO_EXTENSION" validate:"required,startswith=."`
	WatchBackend       string   `toml:"watch_backend" env:"CAMMON_WATCH_BACKEND" validate:"oneof=inotify fsnotify"`
}

// OBS holds the websocket endpoint and scene/input names.
type OBS struct {
	Host                   string `toml:"host" env:"CAMMON_OBS_HOST" validate:"required"`
	Port                   int    `toml:"port" env:"CAMMON_OBS_PORT" validate:"min=1,max=65535"`
	Password               string `toml:"password" env:"CAMMON_OBS_PASSWORD"`
	MediaInput             string `toml:"media_input" env:"CAMMON_OBS_MEDIA_INPUT" validate:"required"`
	SceneAlert             string `toml:"scene_alert" env:"CAMMON_OBS_SCENE_ALERT" validate:"required"`
	SceneStandby           string `toml:"scene_standby" env:"CAMMON_OBS_SCENE_STANDBY" validate:"required"`
	ContainerStagingPath   string `toml:"container_staging_path" env:"CAMMON_OBS_CONTAINER_STAGING_PATH" validate:"required"`
	PlaybackTimeoutSeconds int    `toml:"playback_timeout_seconds" env:"CAMMON_OBS_PLAYBACK_TIMEOUT_SECONDS" validate:"gt=0"`

	// ClipBasePath is where OBS sees monitor.base_path. Empty passes host paths through.
	ClipBasePath string `toml:"clip_base_path" env:"CAMMON_OBS_CLIP_BASE_PATH"`
}

// Intervals holds the daemon loop timing.
type Intervals struct {
	HealthCheckSeconds   int `toml:"health_check_seconds" env:"CAMMON_HEALTH_CHECK_SECONDS" validate:"gt=0"`
	MainLoopSleepSeconds int `toml:"main_loop_sleep_seconds" env:"CAMMON_MAIN_LOOP_SLEEP_SECONDS" validate:"gt=0"`
	DirectoryPollSeconds int `toml:"directory_poll_seconds" env:"CAMMON_DIRECTORY_POLL_SECONDS" validate:"gt=0"`
}

// Health selects how dependencies are queried.
type Health struct {
	Supervisor          string `toml:"supervisor" env:"CAMMON_HEALTH_SUPERVISOR" validate:"oneof=docker systemd process"`
	QueryTimeoutSeconds int    `toml:"query_timeout_seconds" env:"CAMMON_HEALTH_QUERY_TIMEOUT_SECONDS" validate:"gt=0"`
}

// Notify selects the alert channel.
type Notify struct {
	Backend               string `toml:"backend" env:"CAMMON_NOTIFY_BACKEND" validate:"oneof=mail ntfy log"`
	NtfyURL               string `toml:"ntfy_url" env:"CAMMON_NTFY_URL" validate:"required_if=Backend ntfy,omitempty,url"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds" env:"CAMMON_NOTIFY_REQUEST_TIMEOUT_SECONDS" validate:"gt=0"`
}

// Permissions holds the ownership and mode fixups for uploads.
type Permissions struct {
	Enabled       bool   `toml:"enabled" env:"CAMMON_PERMISSIONS_ENABLED"`
	UserGroup     string `toml:"user_group" env:"CAMMON_PERMISSIONS_USER_GROUP"`
	FileMask      Mask   `toml:"file_mask" env:"CAMMON_PERMISSIONS_FILE_MASK" validate:"mode"`
	DirectoryMask Mask   `toml:"directory_mask" env:"CAMMON_PERMISSIONS_DIRECTORY_MASK" validate:"mode"`
}

// Config is the full daemon configuration.
type Config struct {
	Monitor     Monitor     `toml:"monitor"`
	OBS         OBS         `toml:"obs"`
	Intervals   Intervals   `toml:"intervals"`
	Health      Health      `toml:"health"`
	Notify      Notify      `toml:"notify"`
	Permissions Permissions `toml:"permissions"`
}

// Load reads file over the defaults and applies CAMMON_* environment overrides.
// A missing file is not an error: defaults plus environment are returned and
// exists is false.
func Load(file string) (cfg *Config, exists bool, err error) {
	c := Default()

	_, statErr := os.Stat(file)
	switch {
	case statErr == nil:
		if err := cleanenv.ReadConfig(file, &c); err != nil {
			return nil, true, fmt.Errorf("parse config %s: %w", file, err)
		}
		exists = true
	case errors.Is(statErr, fs.ErrNotExist):
		if err := cleanenv.ReadEnv(&c); err != nil {
			return nil, false, fmt.Errorf("read environment: %w", err)
		}
	default:
		return nil, false, fmt.Errorf("stat config: %w", statErr)
	}

	c.normalize()
	return &c, exists, nil
}

func (c *Config) normalize() {
	c.Monitor.BasePath = strings.TrimSpace(c.Monitor.BasePath)
	c.Monitor.HostStagingPath = strings.TrimSpace(c.Monitor.HostStagingPath)
	c.Monitor.ErrorVideoName = strings.TrimSpace(c.Monitor.ErrorVideoName)
	c.Permissions.UserGroup = strings.TrimSpace(c.Permissions.UserGroup)

	containers := c.Monitor.RequiredContainers[:0]
	for _, name := range c.Monitor.RequiredContainers {
		if name = strings.TrimSpace(name); name != "" {
			containers = append(containers, name)
		}
	}
	c.Monitor.RequiredContainers = containers
}

// Render returns the effective configuration as TOML with the OBS password masked.
func (c *Config) Render() ([]byte, error) {
	shown := *c
	shown.Monitor.RequiredContainers = append([]string(nil), c.Monitor.RequiredContainers...)
	if shown.OBS.Password != "" {
		shown.OBS.Password = "********"
	}
	return toml.Marshal(shown)
}

// FallbackClipPath is the error clip as the OBS container sees it.
func (c *Config) FallbackClipPath() string {
	return path.Join(c.OBS.ContainerStagingPath, c.Monitor.ErrorVideoName)
}

// Cooldown is the minimum gap between triggers.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Monitor.CooldownSeconds) * time.Second
}

// PlaybackTimeout bounds how long a clip may play.
func (c *Config) PlaybackTimeout() time.Duration {
	return time.Duration(c.OBS.PlaybackTimeoutSeconds) * time.Second
}

// HealthCheckInterval is the minimum gap between dependency checks.
func (c *Config) HealthCheckInterval() time.Duration {
	return time.Duration(c.Intervals.HealthCheckSeconds) * time.Second
}

// MainLoopSleep is the watch loop tick.
func (c *Config) MainLoopSleep() time.Duration {
	return time.Duration(c.Intervals.MainLoopSleepSeconds) * time.Second
}

// DirectoryPoll is how often a missing day directory is looked for.
func (c *Config) DirectoryPoll() time.Duration {
	return time.Duration(c.Intervals.DirectoryPollSeconds) * time.Second
}

// QueryTimeout bounds one supervisor query.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.Health.QueryTimeoutSeconds) * time.Second
}

// NotifyTimeout bounds one ntfy request.
func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.Notify.RequestTimeoutSeconds) * time.Second
}

// FileMode is the mode applied to uploaded clips.
func (c *Config) FileMode() fs.FileMode {
	return ParseOctalMode(string(c.Permissions.FileMask), defaultFileMode)
}

// DirMode is the mode applied to day directories.
func (c *Config) DirMode() fs.FileMode {
	return ParseOctalMode(string(c.Permissions.DirectoryMask), defaultDirMode)
}
