package usecase

import (
	"context"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/cam_mon/internal/domain"
)

// sendAlert delivers an alert and logs the outcome.
// Delivery failures stop here: there is no alert about a failed alert.
func sendAlert(ctx context.Context, notifier domain.Notifier, alert domain.Alert, logger *zap.Logger) {
	if notifier == nil {
		return
	}
	if err := notifier.Notify(ctx, alert); err != nil {
		logger.Error("failed to send alert",
			zap.String("subject", alert.Subject),
			zap.Error(err))
		return
	}
	logger.Info("alert sent", zap.String("subject", alert.Subject))
}
