package report

import (
	"context"
	"fmt"

	"tour-sync/internal/common/config"
	apperrors "tour-sync/internal/common/errors"
	"tour-sync/internal/common/logger"
)

// Mailer sends the report e-mail.
type Mailer interface {
	SendText(ctx context.Context, from string, to []string, subject, body string) (string, error)
}

// Alerter publishes the short alert for runs with problems.
type Alerter interface {
	PublishAlert(ctx context.Context, topicARN, subject, message string) (string, error)
}

type Delivery struct {
	EmailID string `json:"emailId,omitempty"`
	AlertID string `json:"alertId,omitempty"`
}

type Notifier struct {
	cfg     config.NotificationConfig
	mailer  Mailer
	alerter Alerter
	logger  logger.Logger
}

// NewNotifier wires the delivery channels; a nil channel or a disabled one is skipped.
func NewNotifier(cfg config.NotificationConfig, mailer Mailer, alerter Alerter, log logger.Logger) *Notifier {
	return &Notifier{cfg: cfg, mailer: mailer, alerter: alerter, logger: log}
}

// Send mails the full report and, when the run has problems, publishes an alert.
func (n *Notifier) Send(ctx context.Context, r *SyncReport) (*Delivery, error) {
	out := &Delivery{}

	if n.cfg.SES.Enabled && n.mailer != nil {
		id, err := n.mailer.SendText(ctx, n.cfg.SES.From, n.cfg.SES.To, r.Subject(), r.Text())
		if err != nil {
			return out, apperrors.New(apperrors.ErrCodeReportSendFailed, "Report e-mail failed", err)
		}
		out.EmailID = id
	}

	if r.HasProblems() && n.cfg.SNS.Enabled && n.alerter != nil {
		id, err := n.alerter.PublishAlert(ctx, n.cfg.SNS.TopicARN, r.Subject(), alertMessage(r))
		if err != nil {
			return out, apperrors.New(apperrors.ErrCodeReportSendFailed, "Report alert failed", err)
		}
		out.AlertID = id
	}

	n.logger.Info("Sync report delivered", map[string]interface{}{
		"runId":    r.RunID.String(),
		"emailId":  out.EmailID,
		"alertId":  out.AlertID,
		"problems": r.HasProblems(),
	})
	return out, nil
}

func alertMessage(r *SyncReport) string {
	failed := 0
	for _, s := range r.Stages {
		failed += s.Failed
		if s.Error != "" {
			failed++
		}
	}
	return fmt.Sprintf("tour-sync run %s: %d failures, %d tours without website content, %d conflicts",
		r.RunID, failed, len(r.LinkIssues), len(r.Conflicts))
}
