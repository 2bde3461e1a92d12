// Package publishdocuments is the job worker that renders and publishes every tour
// document.
package publishdocuments

import (
	"context"

	"tour-sync/internal/common/camunda"
	apperrors "tour-sync/internal/common/errors"
	"tour-sync/internal/common/logger"
	"tour-sync/internal/tours/docsync"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "publish-documents"
)

type Runner interface {
	Publish(ctx context.Context) (*docsync.PublishResult, error)
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

// Execute publishes every tour. Per-tour failures are part of the result, not an error.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	res, err := h.runner.Publish(ctx)
	if err != nil {
		return nil, err
	}
	return &Output{PublishResult: res}, nil
}
