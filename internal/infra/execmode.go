package infra

import (
	"os"
	"os/user"
	"path/filepath"
)

// ExecMode represents the execution mode of the application.
type ExecMode string

const (
	// ExecModeUser runs as user with a systemd user unit (no sudo required)
	ExecModeUser ExecMode = "user"
	// ExecModeSystem runs as root with a system unit (sudo required)
	ExecModeSystem ExecMode = "system"
)

// UnitName is the systemd unit the daemon is installed as.
const UnitName = "cammon.service"

// ExecModeConfig holds paths and settings based on execution mode.
type ExecModeConfig struct {
	Mode       ExecMode
	BinaryPath string // Where the binary should be installed
	ConfigPath string // Default config file
	LogFile    string // Default rotated log file
	UnitDir    string // Where the systemd unit goes
	UnitPath   string // Full path to the unit file
}

// DetectExecMode determines the execution mode based on effective UID.
func DetectExecMode() *ExecModeConfig {
	if os.Geteuid() == 0 {
		return systemModeConfig()
	}
	return userModeConfig(GetRealUserHome())
}

func systemModeConfig() *ExecModeConfig {
	return &ExecModeConfig{
		Mode:       ExecModeSystem,
		BinaryPath: "/usr/local/bin/cammon",
		ConfigPath: "/etc/cammon/cammon.toml",
		LogFile:    "/var/log/cammon.log",
		UnitDir:    "/etc/systemd/system",
		UnitPath:   filepath.Join("/etc/systemd/system", UnitName),
	}
}

func userModeConfig(home string) *ExecModeConfig {
	unitDir := filepath.Join(home, ".config", "systemd", "user")
	return &ExecModeConfig{
		Mode:       ExecModeUser,
		BinaryPath: filepath.Join(home, ".local", "bin", "cammon"),
		ConfigPath: filepath.Join(home, ".config", "cammon", "cammon.toml"),
		LogFile:    filepath.Join(home, ".local", "state", "cammon", "cammon.log"),
		UnitDir:    unitDir,
		UnitPath:   filepath.Join(unitDir, UnitName),
	}
}

// String returns a human-readable description of the mode.
func (m ExecMode) String() string {
	switch m {
	case ExecModeSystem:
		return "system (systemd system unit, root)"
	case ExecModeUser:
		return "user (systemd user unit, non-root)"
	default:
		return "unknown"
	}
}

// GetRealUserHome returns the real user's home directory, even when running under sudo.
func GetRealUserHome() string {
	if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
		if u, err := user.Lookup(sudoUser); err == nil {
			return u.HomeDir
		}
	}
	home, _ := os.UserHomeDir()
	return home
}
