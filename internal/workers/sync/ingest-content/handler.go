// Package ingestcontent is the job worker for the website content stage, including
// the content link reconciliation.
package ingestcontent

import (
	"context"

	"tour-sync/internal/common/camunda"
	apperrors "tour-sync/internal/common/errors"
	"tour-sync/internal/common/logger"
	"tour-sync/internal/tours/merge"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "ingest-content"
)

type Runner interface {
	Content(ctx context.Context) (*merge.Result, *merge.LinkReport, error)
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	res, links, err := h.runner.Content(ctx)
	if err != nil {
		return nil, err
	}
	out := &Output{ContentResult: res, Links: links}
	if links != nil {
		out.UnresolvedLinks = links.Unresolved()
	}
	h.logger.Info("content stage finished", map[string]interface{}{
		"runId":      input.RunID,
		"processed":  res.Processed,
		"unresolved": out.UnresolvedLinks,
	})
	return out, nil
}
