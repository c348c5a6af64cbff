package infra

import (
	"context"
	"fmt"
	"strings"

	"github.com/eliteGoblin/focusd/cam_mon/internal/domain"
)

// DockerSupervisor asks the docker CLI whether a container is running.
type DockerSupervisor struct {
	cmdRunner CommandRunner
	binary    string
}

// NewDockerSupervisor creates a supervisor backed by the docker CLI.
func NewDockerSupervisor() *DockerSupervisor {
	return &DockerSupervisor{cmdRunner: &RealCommandRunner{}, binary: "docker"}
}

// NewDockerSupervisorWithRunner creates a supervisor with an injectable runner (for testing).
func NewDockerSupervisorWithRunner(cmdRunner CommandRunner) *DockerSupervisor {
	return &DockerSupervisor{cmdRunner: cmdRunner, binary: "docker"}
}

// Kind implements domain.Supervisor.
func (d *DockerSupervisor) Kind() string { return "Docker Container" }

// IsRunning runs `docker inspect -f {{.State.Running}} name`.
// An unknown container is an error, not a stopped one.
func (d *DockerSupervisor) IsRunning(ctx context.Context, name string) (bool, error) {
	out, err := d.cmdRunner.Output(ctx, d.binary, "inspect", "-f", "{{.State.Running}}", name)
	if err != nil {
		return false, err
	}

	switch state := strings.TrimSpace(string(out)); state {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("unexpected docker inspect output %q", state)
	}
}

// Ensure DockerSupervisor implements domain.Supervisor.
var _ domain.Supervisor = (*DockerSupervisor)(nil)
