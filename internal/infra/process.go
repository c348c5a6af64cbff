package infra

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/eliteGoblin/focusd/cam_mon/internal/domain"
)

// ProcessSupervisor looks dependencies up in the process table using gopsutil.
// It serves hosts that run the compositor and media server without a container runtime.
type ProcessSupervisor struct {
	list func(ctx context.Context) ([]procEntry, error)
}

type procEntry struct {
	name   string
	zombie bool
}

// NewProcessSupervisor creates a process-table supervisor.
func NewProcessSupervisor() *ProcessSupervisor {
	return &ProcessSupervisor{list: listProcesses}
}

// Kind implements domain.Supervisor.
func (p *ProcessSupervisor) Kind() string { return "Process" }

// IsRunning reports whether a live process has exactly this name.
func (p *ProcessSupervisor) IsRunning(ctx context.Context, name string) (bool, error) {
	procs, err := p.list(ctx)
	if err != nil {
		return false, fmt.Errorf("list processes: %w", err)
	}
	for _, proc := range procs {
		if proc.name == name && !proc.zombie {
			return true, nil
		}
	}
	return false, nil
}

func listProcesses(ctx context.Context) ([]procEntry, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]procEntry, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue // Process may have exited
		}
		entry := procEntry{name: name}
		if statuses, err := p.StatusWithContext(ctx); err == nil {
			for _, s := range statuses {
				if s == process.Zombie {
					entry.zombie = true
				}
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Ensure ProcessSupervisor implements domain.Supervisor.
var _ domain.Supervisor = (*ProcessSupervisor)(nil)
