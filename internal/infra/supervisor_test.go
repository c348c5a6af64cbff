package infra

import (
	"context"
	"errors"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDockerSupervisor_IsRunning(t *testing.T) {
	runner := newMockCommandRunner()
	runner.output["obs_compositor"] = []byte("true\n")
	runner.output["mediamtx"] = []byte("false\n")
	runner.output["weird"] = []byte("<no value>\n")
	docker := NewDockerSupervisorWithRunner(runner)
	ctx := context.Background()

	running, err := docker.IsRunning(ctx, "obs_compositor")
	require.NoError(t, err)
	assert.True(t, running)

	running, err = docker.IsRunning(ctx, "mediamtx")
	require.NoError(t, err)
	assert.False(t, running)

	_, err = docker.IsRunning(ctx, "weird")
	assert.Error(t, err)

	calls := runner.recorded()
	require.Len(t, calls, 3)
	assert.Equal(t, "docker", calls[0].name)
	assert.Equal(t, []string{"inspect", "-f", "{{.State.Running}}", "obs_compositor"}, calls[0].args)
	assert.Equal(t, "Docker Container", docker.Kind())
}

func TestDockerSupervisor_CommandFailure(t *testing.T) {
	runner := newMockCommandRunner()
	runner.err = errors.New("docker: Error: No such object: ghost")
	docker := NewDockerSupervisorWithRunner(runner)

	running, err := docker.IsRunning(context.Background(), "ghost")

	assert.False(t, running)
	assert.ErrorContains(t, err, "No such object")
}

// fakeUnitObject answers the two systemd calls the supervisor makes.
type fakeUnitObject struct {
	dbus.BusObject
	bus  *fakeBus
	path dbus.ObjectPath
}

type fakeBus struct {
	units   map[string]string // unit name -> ActiveState
	methods []string
	getErr  error
}

func (b *fakeBus) object(_ string, path dbus.ObjectPath) dbus.BusObject {
	return &fakeUnitObject{bus: b, path: path}
}

func (o *fakeUnitObject) CallWithContext(_ context.Context, method string, _ dbus.Flags, args ...interface{}) *dbus.Call {
	o.bus.methods = append(o.bus.methods, method)
	switch method {
	case "org.freedesktop.systemd1.Manager.GetUnit":
		if o.bus.getErr != nil {
			return &dbus.Call{Err: o.bus.getErr}
		}
		name := args[0].(string)
		if _, ok := o.bus.units[name]; !ok {
			return &dbus.Call{Err: dbus.Error{Name: "org.freedesktop.systemd1.NoSuchUnit"}}
		}
		return &dbus.Call{Body: []interface{}{dbus.ObjectPath("/org/freedesktop/systemd1/unit/" + name)}}
	case "org.freedesktop.DBus.Properties.Get":
		name := string(o.path)[len("/org/freedesktop/systemd1/unit/"):]
		return &dbus.Call{Body: []interface{}{dbus.MakeVariant(o.bus.units[name])}}
	}
	return &dbus.Call{Err: errors.New("unexpected method " + method)}
}

func TestSystemdSupervisor_IsRunning(t *testing.T) {
	bus := &fakeBus{units: map[string]string{
		"mediamtx.service": "active",
		"obs.service":      "failed",
	}}
	sup := &SystemdSupervisor{object: bus.object}
	ctx := context.Background()

	running, err := sup.IsRunning(ctx, "mediamtx")
	require.NoError(t, err)
	assert.True(t, running)

	running, err = sup.IsRunning(ctx, "obs.service")
	require.NoError(t, err)
	assert.False(t, running)

	assert.Equal(t, []string{
		"org.freedesktop.systemd1.Manager.GetUnit",
		"org.freedesktop.DBus.Properties.Get",
		"org.freedesktop.systemd1.Manager.GetUnit",
		"org.freedesktop.DBus.Properties.Get",
	}, bus.methods)
	assert.Equal(t, "Systemd Unit", sup.Kind())
}

func TestSystemdSupervisor_UnknownUnitIsError(t *testing.T) {
	sup := &SystemdSupervisor{object: (&fakeBus{units: map[string]string{}}).object}

	_, err := sup.IsRunning(context.Background(), "ghost")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost.service")
}

func TestSystemdSupervisor_CloseWithoutConn(t *testing.T) {
	assert.NoError(t, (&SystemdSupervisor{}).Close())
}

func TestUnitName(t *testing.T) {
	assert.Equal(t, "mediamtx.service", unitName("mediamtx"))
	assert.Equal(t, "obs.scope", unitName("obs.scope"))
}

func TestProcessSupervisor_IsRunning(t *testing.T) {
	sup := &ProcessSupervisor{list: func(context.Context) ([]procEntry, error) {
		return []procEntry{
			{name: "obs"},
			{name: "mediamtx", zombie: true},
		}, nil
	}}
	ctx := context.Background()

	running, err := sup.IsRunning(ctx, "obs")
	require.NoError(t, err)
	assert.True(t, running)

	running, err = sup.IsRunning(ctx, "mediamtx")
	require.NoError(t, err)
	assert.False(t, running, "zombies do not count")

	running, err = sup.IsRunning(ctx, "ob")
	require.NoError(t, err)
	assert.False(t, running, "names match exactly")
}

func TestProcessSupervisor_ListFailure(t *testing.T) {
	sup := &ProcessSupervisor{list: func(context.Context) ([]procEntry, error) {
		return nil, errors.New("proc unavailable")
	}}

	_, err := sup.IsRunning(context.Background(), "obs")
	assert.ErrorContains(t, err, "proc unavailable")
}

func TestProcessSupervisor_FindsSelf(t *testing.T) {
	procs, err := listProcesses(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, procs)
}
