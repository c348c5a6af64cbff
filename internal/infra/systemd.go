package infra

import (
	"context"
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"

	"github.com/eliteGoblin/focusd/cam_mon/internal/domain"
)

const (
	systemdDest = "org.freedesktop.systemd1"
	systemdPath = dbus.ObjectPath("/org/freedesktop/systemd1")
)

// SystemdSupervisor asks systemd over D-Bus whether a unit is active.
//
// It resolves the unit object with org.freedesktop.systemd1.Manager.GetUnit
// and reads the ActiveState property of org.freedesktop.systemd1.Unit.
type SystemdSupervisor struct {
	conn   *dbus.Conn
	object func(dest string, path dbus.ObjectPath) dbus.BusObject
}

// NewSystemdSupervisor connects to the system bus.
func NewSystemdSupervisor() (*SystemdSupervisor, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect system bus: %w", err)
	}
	return &SystemdSupervisor{conn: conn, object: conn.Object}, nil
}

// Close releases the bus connection.
func (s *SystemdSupervisor) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// Kind implements domain.Supervisor.
func (s *SystemdSupervisor) Kind() string { return "Systemd Unit" }

// IsRunning reports whether the unit's ActiveState is "active".
// Bare names get a ".service" suffix. A unit systemd has not loaded is an error.
func (s *SystemdSupervisor) IsRunning(ctx context.Context, name string) (bool, error) {
	unit := unitName(name)

	var unitPath dbus.ObjectPath
	call := s.object(systemdDest, systemdPath).CallWithContext(ctx,
		"org.freedesktop.systemd1.Manager.GetUnit", 0, unit)
	if call.Err != nil {
		return false, fmt.Errorf("GetUnit %q call: %w", unit, call.Err)
	}
	if err := call.Store(&unitPath); err != nil {
		return false, fmt.Errorf("GetUnit %q store: %w", unit, err)
	}

	var state dbus.Variant
	call = s.object(systemdDest, unitPath).CallWithContext(ctx,
		"org.freedesktop.DBus.Properties.Get", 0, "org.freedesktop.systemd1.Unit", "ActiveState")
	if call.Err != nil {
		return false, fmt.Errorf("ActiveState %q call: %w", unit, call.Err)
	}
	if err := call.Store(&state); err != nil {
		return false, fmt.Errorf("ActiveState %q store: %w", unit, err)
	}

	active, ok := state.Value().(string)
	if !ok {
		return false, fmt.Errorf("ActiveState %q has type %s", unit, state.Signature())
	}
	return active == "active", nil
}

func unitName(name string) string {
	if strings.Contains(name, ".") {
		return name
	}
	return name + ".service"
}

// Ensure SystemdSupervisor implements domain.Supervisor.
var _ domain.Supervisor = (*SystemdSupervisor)(nil)
