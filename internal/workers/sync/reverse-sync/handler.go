// Package reversesync is the job worker that pushes document edits back to the
// inventory system.
package reversesync

import (
	"context"

	"tour-sync/internal/common/camunda"
	apperrors "tour-sync/internal/common/errors"
	"tour-sync/internal/common/logger"
	"tour-sync/internal/tours/reverse"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "reverse-sync"
)

type Runner interface {
	ReverseSync(ctx context.Context) (*reverse.Result, error)
}

type Handler struct {
	config *Config
	runner Runner
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(config *Config, runner Runner, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{config: config, runner: runner, errors: apperrors.NewErrorHandler(log), logger: log}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, &Input{})
	if err != nil {
		h.errors.HandleJobError(ctx, client, job, err)
		return err
	}
	return camunda.Complete(ctx, client, job, output)
}

func (h *Handler) Execute(ctx context.Context, _ *Input) (*Output, error) {
	res, err := h.runner.ReverseSync(ctx)
	if err != nil {
		return nil, err
	}
	return &Output{ReverseResult: res, Updated: res.Updated, Failed: res.Failed}, nil
}
