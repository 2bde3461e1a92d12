package camunda

import (
	"time"

	apperrors "tour-sync/internal/common/errors"
	"tour-sync/internal/common/logger"
	"tour-sync/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// JobHandler is implemented by every sync stage worker. Handle completes, fails or
// throws on the job itself; a returned error is only logged and counted.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job) error
}

// Worker is one open job subscription.
type Worker struct {
	jobs     worker.JobWorker
	logger   logger.Logger
	taskType string
}

func NewWorker(
	client zbc.Client,
	taskType string,
	maxJobsActive int,
	timeout time.Duration,
	handler JobHandler,
	log logger.Logger,
) *Worker {
	log = log.WithFields(map[string]interface{}{"taskType": taskType})

	jobs := client.NewJobWorker().
		JobType(taskType).
		Handler(instrument(taskType, handler, log)).
		MaxJobsActive(maxJobsActive).
		Timeout(timeout).
		Open()

	log.Info("Worker started", map[string]interface{}{"maxJobsActive": maxJobsActive, "timeout": timeout.String()})
	return &Worker{jobs: jobs, logger: log, taskType: taskType}
}

func instrument(taskType string, handler JobHandler, log logger.Logger) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		if err := handler.Handle(client, job); err != nil {
			metrics.WorkerJobsFailed.WithLabelValues(taskType, string(apperrors.CodeOf(err))).Inc()
			log.Error("Job handler returned error", map[string]interface{}{
				"jobKey":             job.Key,
				"processInstanceKey": job.ProcessInstanceKey,
				"error":              err,
			})
			return
		}
		metrics.WorkerJobsCompleted.WithLabelValues(taskType).Inc()
	}
}

// Stop closes the subscription and waits for in-flight jobs.
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker", nil)
	w.jobs.Close()
	w.jobs.AwaitClose()
}
