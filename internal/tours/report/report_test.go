package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"tour-sync/internal/common/config"
	apperrors "tour-sync/internal/common/errors"
	"tour-sync/internal/common/logger"
	"tour-sync/internal/models"
	"tour-sync/internal/tours/docsync"
	"tour-sync/internal/tours/merge"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMailer struct {
	subject string
	body    string
	to      []string
	err     error
}

func (f *fakeMailer) SendText(_ context.Context, _ string, to []string, subject, body string) (string, error) {
	f.to, f.subject, f.body = to, subject, body
	return "mail-1", f.err
}

type fakeAlerter struct {
	calls   int
	message string
}

func (f *fakeAlerter) PublishAlert(_ context.Context, _, _, message string) (string, error) {
	f.calls++
	f.message = message
	return "alert-1", nil
}

func cleanReport() *SyncReport {
	start := time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC)
	return &SyncReport{
		RunID:      uuid.MustParse("6f1c3c1e-2b7a-4e53-9b1e-0d7f7d1c2a11"),
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
		Stages: []StageSummary{
			{Stage: "inventory", Processed: 10},
			{Stage: "content", Processed: 8, Skipped: 1},
		},
	}
}

func TestSyncReport_Text(t *testing.T) {
	r := cleanReport()
	assert.False(t, r.HasProblems())
	assert.Equal(t, "[tour-sync] OK run 2024-05-01", r.Subject())

	r.LinkIssues = []merge.LinkIssue{
		{ArcticID: "7", Name: "Maze", Status: models.LinkAmbiguous, Candidates: []string{"11", "12"}},
	}
	r.Conflicts = []docsync.ConflictEntry{
		{ArcticID: "1", Name: "White Rim", Conflict: models.Conflict{Field: "price", Winner: "$199", Discarded: "$149"}},
	}
	r.Stages[1].Error = "website export missing"

	assert.True(t, r.HasProblems())
	text := r.Text()
	assert.Contains(t, text, "Run 6f1c3c1e-2b7a-4e53-9b1e-0d7f7d1c2a11")
	assert.Contains(t, text, "processed=10 skipped=0 failed=0")
	assert.Contains(t, text, "error: website export missing")
	assert.Contains(t, text, "7 Maze [ambiguous] candidates: 11, 12")
	assert.Contains(t, text, `White Rim: price kept "$199", discarded "$149"`)
}

func TestNotifier_CleanRunSkipsAlert(t *testing.T) {
	mailer, alerter := &fakeMailer{}, &fakeAlerter{}
	cfg := config.NotificationConfig{}
	cfg.SES.Enabled, cfg.SES.From, cfg.SES.To = true, "ops@example.com", []string{"team@example.com"}
	cfg.SNS.Enabled, cfg.SNS.TopicARN = true, "arn:aws:sns:us-west-2:1:sync"

	n := NewNotifier(cfg, mailer, alerter, logger.NewTestLogger(t))
	out, err := n.Send(context.Background(), cleanReport())
	require.NoError(t, err)

	assert.Equal(t, "mail-1", out.EmailID)
	assert.Empty(t, out.AlertID)
	assert.Equal(t, 0, alerter.calls)
	assert.Equal(t, []string{"team@example.com"}, mailer.to)
	assert.Contains(t, mailer.body, "Stages")
}

func TestNotifier_ProblemsPublishAlert(t *testing.T) {
	alerter := &fakeAlerter{}
	cfg := config.NotificationConfig{}
	cfg.SNS.Enabled, cfg.SNS.TopicARN = true, "arn:aws:sns:us-west-2:1:sync"

	r := cleanReport()
	r.Stages[0].Failed = 2
	r.LinkIssues = []merge.LinkIssue{{ArcticID: "7", Name: "Maze", Status: models.LinkUnresolved}}

	n := NewNotifier(cfg, nil, alerter, logger.NewTestLogger(t))
	out, err := n.Send(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, "alert-1", out.AlertID)
	assert.Contains(t, alerter.message, "2 failures, 1 tours without website content")
}

func TestNotifier_MailFailure(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("throttled")}
	cfg := config.NotificationConfig{}
	cfg.SES.Enabled = true

	n := NewNotifier(cfg, mailer, nil, logger.NewNoOpLogger())
	_, err := n.Send(context.Background(), cleanReport())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeReportSendFailed, apperrors.CodeOf(err))
}
