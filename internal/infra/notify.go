package infra

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/cam_mon/internal/domain"
)

// MailNotifier sends alerts through the local mail(1) command.
type MailNotifier struct {
	cmdRunner CommandRunner
	binary    string
}

// NewMailNotifier creates a notifier that shells out to `mail -s`.
func NewMailNotifier() *MailNotifier {
	return &MailNotifier{cmdRunner: &RealCommandRunner{}, binary: "mail"}
}

// NewMailNotifierWithRunner creates a mail notifier with an injectable runner (for testing).
func NewMailNotifierWithRunner(cmdRunner CommandRunner) *MailNotifier {
	return &MailNotifier{cmdRunner: cmdRunner, binary: "mail"}
}

// Notify runs `mail -s <subject> <recipient>` with the body on stdin.
func (m *MailNotifier) Notify(ctx context.Context, alert domain.Alert) error {
	if alert.Recipient == "" {
		return fmt.Errorf("alert %q has no recipient", alert.Subject)
	}
	return m.cmdRunner.RunWithInput(ctx, strings.NewReader(alert.Body),
		m.binary, "-s", alert.Subject, alert.Recipient)
}

// LogNotifier writes alerts to the log only.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a notifier for hosts without an alert channel.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the alert at error level.
func (l *LogNotifier) Notify(_ context.Context, alert domain.Alert) error {
	l.logger.Error("ALERT",
		zap.String("subject", alert.Subject),
		zap.String("body", alert.Body),
		zap.String("recipient", alert.Recipient))
	return nil
}

// Ensure notifiers implement domain.Notifier.
var (
	_ domain.Notifier = (*MailNotifier)(nil)
	_ domain.Notifier = (*LogNotifier)(nil)
)
