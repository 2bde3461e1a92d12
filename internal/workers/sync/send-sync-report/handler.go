// Package sendsyncreport is the closing job worker of a run: it writes the run ledger
// and delivers the report.
package sendsyncreport

import (
	"context"
	"fmt"
	"time"

	"tour-sync/internal/common/camunda"
	apperrors "tour-sync/internal/common/errors"
	"tour-sync/internal/common/logger"
	"tour-sync/internal/tours/docsync"
	"tour-sync/internal/tours/merge"
	"tour-sync/internal/tours/report"
	"tour-sync/internal/tours/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "send-sync-report"
)

type Sender interface {
	Send(ctx context.Context, r *report.SyncReport) (*report.Delivery, error)
}

type Ledger interface {
	RecordRun(ctx context.Context, r store.Run) error
}

type Handler struct {
	config *Config
	sender Sender
	ledger Ledger
	errors *apperrors.ErrorHandler
	logger logger.Logger
	now    func() time.Time
}

// NewHandler wires the report worker; ledger may be nil.
func NewHandler(config *Config, sender Sender, ledger Ledger, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		sender: sender,
		ledger: ledger,
		errors: apperrors.NewErrorHandler(log),
		logger: log,
		now:    time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := camunda.DecodeVariables(job, &input); err != nil {
		err = apperrors.NewInvalidJobInputError(err)
		h.errors.HandleJobError(ctx, client, job, err)
		return err
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return err
	}
	return camunda.Complete(ctx, client, job, output)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	rep, err := h.BuildReport(input)
	if err != nil {
		return nil, err
	}

	if h.ledger != nil {
		for _, s := range rep.Stages {
			run := store.Run{
				RunID:      rep.RunID,
				Stage:      s.Stage,
				StartedAt:  rep.StartedAt,
				FinishedAt: rep.FinishedAt,
				Processed:  s.Processed,
				Failed:     s.Failed,
				Error:      s.Error,
			}
			if err := h.ledger.RecordRun(ctx, run); err != nil {
				h.logger.Warn("run ledger write failed", map[string]interface{}{"stage": s.Stage, "error": err})
			}
		}
	}

	delivery, err := h.sender.Send(ctx, rep)
	if err != nil {
		return nil, err
	}
	return &Output{EmailID: delivery.EmailID, AlertID: delivery.AlertID, Problems: rep.HasProblems()}, nil
}

// BuildReport turns the accumulated process variables into a run report. Stages the
// process never reached are left out.
func (h *Handler) BuildReport(input *Input) (*report.SyncReport, error) {
	runID, err := uuid.Parse(input.RunID)
	if err != nil {
		return nil, apperrors.NewInvalidJobInputError(fmt.Errorf("runId: %w", err))
	}

	rep := &report.SyncReport{RunID: runID, StartedAt: input.StartedAt, FinishedAt: h.now()}
	if rep.StartedAt.IsZero() {
		rep.StartedAt = rep.FinishedAt
	}

	for _, res := range []*merge.Result{input.InventoryResult, input.ContentResult} {
		if res == nil {
			continue
		}
		rep.Stages = append(rep.Stages, report.StageSummary{
			Stage:     res.Stage,
			Processed: res.Processed,
			Skipped:   res.Skipped,
			Failed:    res.Failed,
		})
	}
	if input.Links != nil {
		rep.LinkIssues = input.Links.Issues
	}
	if p := input.PublishResult; p != nil {
		rep.Stages = append(rep.Stages, report.StageSummary{
			Stage:     docsync.Stage,
			Processed: p.Created + p.Updated,
			Failed:    p.Failed,
		})
		rep.Conflicts = p.Conflicts
	}
	return rep, nil
}
