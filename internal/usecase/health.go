package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/cam_mon/internal/domain"
)

// DefaultQueryTimeout bounds a single supervisor query.
const DefaultQueryTimeout = 10 * time.Second

// HealthMonitor asks a supervisor whether each dependency is running and
// alerts once per failed dependency. It keeps no state between calls.
type HealthMonitor struct {
	supervisor   domain.Supervisor
	notifier     domain.Notifier
	recipient    string
	queryTimeout time.Duration
	now          func() time.Time
	logger       *zap.Logger
}

// NewHealthMonitor creates a dependency health monitor.
func NewHealthMonitor(
	supervisor domain.Supervisor,
	notifier domain.Notifier,
	recipient string,
	queryTimeout time.Duration,
	logger *zap.Logger,
) *HealthMonitor {
	if queryTimeout <= 0 {
		queryTimeout = DefaultQueryTimeout
	}
	return &HealthMonitor{
		supervisor:   supervisor,
		notifier:     notifier,
		recipient:    recipient,
		queryTimeout: queryTimeout,
		now:          time.Now,
		logger:       logger,
	}
}

// Check queries every dependency. A failure for one never skips the others.
func (h *HealthMonitor) Check(ctx context.Context, names []string) []domain.HealthResult {
	results := make([]domain.HealthResult, 0, len(names))
	for _, name := range names {
		result := h.checkOne(ctx, name)
		results = append(results, result)
		if result.Err != nil {
			h.alert(ctx, result)
		}
	}
	return results
}

func (h *HealthMonitor) checkOne(ctx context.Context, name string) domain.HealthResult {
	qctx, cancel := context.WithTimeout(ctx, h.queryTimeout)
	defer cancel()

	result := domain.HealthResult{Name: name, CheckedAt: h.now()}
	running, err := h.supervisor.IsRunning(qctx, name)
	switch {
	case err != nil:
		result.Err = fmt.Errorf("query %s %s: %w", h.supervisor.Kind(), name, err)
	case !running:
		result.Err = fmt.Errorf("%s %s is %w", h.supervisor.Kind(), name, domain.ErrNotRunning)
	default:
		result.Running = true
	}
	return result
}

func (h *HealthMonitor) alert(ctx context.Context, result domain.HealthResult) {
	h.logger.Error("dependency health check failed",
		zap.String("dependency", result.Name),
		zap.Error(result.Err))

	sendAlert(ctx, h.notifier, domain.Alert{
		Subject:   fmt.Sprintf("CRITICAL: %s %s Down", h.supervisor.Kind(), result.Name),
		Body:      fmt.Sprintf("Health check failed for %s at %s.\nError: %v", result.Name, result.CheckedAt.Format(time.RFC3339), result.Err),
		Recipient: h.recipient,
	}, h.logger)
}
