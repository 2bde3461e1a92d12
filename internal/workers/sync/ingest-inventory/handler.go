// Package ingestinventory is the job worker for the inventory stage. It opens a sync
// run and hands the run id to the following stages.
package ingestinventory

import (
	"context"
	"time"

	"tour-sync/internal/common/camunda"
	apperrors "tour-sync/internal/common/errors"
	"tour-sync/internal/common/logger"
	"tour-sync/internal/tours/merge"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "ingest-inventory"
)

// Runner runs the inventory stage.
type Runner interface {
	Inventory(ctx context.Context) (*merge.Result, error)
}

type Handler struct {
	config *Config
	runner Runner
	errors *apperrors.ErrorHandler
	logger logger.Logger
	now    func() time.Time
}

func NewHandler(config *Config, runner Runner, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		runner: runner,
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

// Execute runs the stage. A run id is generated when the process did not pass one.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	runID := input.RunID
	if runID == "" {
		runID = uuid.NewString()
	} else if _, err := uuid.Parse(runID); err != nil {
		return nil, apperrors.NewInvalidJobInputError(err)
	}

	started := h.now()
	res, err := h.runner.Inventory(ctx)
	if err != nil {
		return nil, err
	}
	return &Output{RunID: runID, StartedAt: started, InventoryResult: res}, nil
}
