package infra

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"text/template"
)

// System unit template (runs as root)
const systemUnitTemplate = `[Unit]
Description=cammon camera clip alert daemon
Wants=network-online.target
After=network-online.target docker.service

[Service]
Type=simple
ExecStart={{.ExecutablePath}} run --config {{.ConfigPath}}
Restart=always
RestartSec=10

[Install]
WantedBy=multi-user.target
`

// User unit template (runs as the invoking user)
const userUnitTemplate = `[Unit]
Description=cammon camera clip alert daemon

[Service]
Type=simple
ExecStart={{.ExecutablePath}} run --config {{.ConfigPath}}
Restart=on-failure
RestartSec=10

[Install]
WantedBy=default.target
`

type unitConfig struct {
	ExecutablePath string
	ConfigPath     string
}

// UnitManager renders and installs the systemd unit for both modes.
type UnitManager struct {
	mode      ExecMode
	unitDir   string
	unitPath  string
	cmdRunner CommandRunner
}

// NewUnitManager creates a unit manager based on execution mode.
func NewUnitManager(config *ExecModeConfig) *UnitManager {
	return &UnitManager{
		mode:      config.Mode,
		unitDir:   config.UnitDir,
		unitPath:  config.UnitPath,
		cmdRunner: &RealCommandRunner{},
	}
}

// NewUnitManagerWithRunner creates a unit manager with an injectable runner (for testing).
func NewUnitManagerWithRunner(config *ExecModeConfig, cmdRunner CommandRunner) *UnitManager {
	m := NewUnitManager(config)
	m.cmdRunner = cmdRunner
	return m
}

// Render creates unit content for the given exec and config paths.
func (m *UnitManager) Render(execPath, configPath string) ([]byte, error) {
	tmplStr := userUnitTemplate
	if m.mode == ExecModeSystem {
		tmplStr = systemUnitTemplate
	}

	tmpl, err := template.New("unit").Parse(tmplStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse unit template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, unitConfig{ExecutablePath: execPath, ConfigPath: configPath}); err != nil {
		return nil, fmt.Errorf("failed to execute unit template: %w", err)
	}
	return buf.Bytes(), nil
}

// Install writes the unit file and reloads systemd. An unchanged unit is left alone.
func (m *UnitManager) Install(ctx context.Context, execPath, configPath string) error {
	if !m.NeedsUpdate(execPath, configPath) {
		return nil
	}

	if err := os.MkdirAll(m.unitDir, 0755); err != nil {
		return err
	}

	content, err := m.Render(execPath, configPath)
	if err != nil {
		return fmt.Errorf("failed to generate unit content: %w", err)
	}
	if err := os.WriteFile(m.unitPath, content, 0644); err != nil {
		return err
	}

	return m.systemctl(ctx, "daemon-reload")
}

// IsInstalled checks if the unit file exists.
func (m *UnitManager) IsInstalled() bool {
	_, err := os.Stat(m.unitPath)
	return err == nil
}

// NeedsUpdate reports whether the unit is missing or differs from what Render produces.
func (m *UnitManager) NeedsUpdate(execPath, configPath string) bool {
	current, err := os.ReadFile(m.unitPath)
	if err != nil {
		return true
	}
	expected, err := m.Render(execPath, configPath)
	if err != nil {
		return true
	}
	return !bytes.Equal(current, expected)
}

// UnitPath returns the unit file path.
func (m *UnitManager) UnitPath() string {
	return m.unitPath
}

func (m *UnitManager) systemctl(ctx context.Context, args ...string) error {
	if m.mode == ExecModeUser {
		args = append([]string{"--user"}, args...)
	}
	_, err := m.cmdRunner.Output(ctx, "systemctl", args...)
	return err
}
