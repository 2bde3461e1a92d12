// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tour-sync/internal/app"
	"tour-sync/internal/common/camunda"
	"tour-sync/internal/common/config"
	"tour-sync/internal/common/logger"

	ic "tour-sync/internal/workers/sync/ingest-content"
	ii "tour-sync/internal/workers/sync/ingest-inventory"
	pd "tour-sync/internal/workers/sync/publish-documents"
	rs "tour-sync/internal/workers/sync/reverse-sync"
	ssr "tour-sync/internal/workers/sync/send-sync-report"
)

// retryWithBackoff retries startup connections while the broker or database come up.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClient(cfg.Camunda)
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Canonical store and stage components ---
	var components *app.App
	err = retryWithBackoff(func() error {
		var err error
		components, err = app.New(ctx, cfg, log)
		return err
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer components.Close(context.Background())

	if err := components.Migrate(ctx); err != nil {
		zapLog.Fatal("schema migration failed", zap.Error(err))
	}
	zapLog.Info("PostgreSQL connected and migrated")

	// --- Workers ---
	p := components.Pipeline
	var workers []*camunda.Worker
	start := func(taskType string, handler camunda.JobHandler) {
		if !config.IsWorkerEnabled(cfg, taskType) {
			zapLog.Info("worker disabled", zap.String("taskType", taskType))
			return
		}
		wcfg := config.GetWorkerConfig(cfg, taskType)
		workers = append(workers, camunda.NewWorker(
			zeebe.GetClient(),
			taskType,
			wcfg.MaxJobsActive,
			config.GetDuration(wcfg.Timeout),
			handler,
			log,
		))
	}

	start(ii.TaskType, ii.NewHandler(ii.ConfigFrom(cfg), p, log))
	start(ic.TaskType, ic.NewHandler(ic.ConfigFrom(cfg), p, log))
	start(pd.TaskType, pd.NewHandler(pd.ConfigFrom(cfg), p, log))
	start(rs.TaskType, rs.NewHandler(rs.ConfigFrom(cfg), p, log))
	start(ssr.TaskType, ssr.NewHandler(ssr.ConfigFrom(cfg), components.Notifier, components.Store, log))

	zapLog.Info("All workers registered", zap.Int("count", len(workers)))

	// --- Health and metrics ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "healthy"}
		code := http.StatusOK
		if err := zeebe.HealthCheck(r.Context()); err != nil {
			status = map[string]string{"status": "unhealthy", "zeebe": err.Error()}
			code = http.StatusServiceUnavailable
		} else if err := components.Postgres.Ping(r.Context()); err != nil {
			status = map[string]string{"status": "unhealthy", "postgres": err.Error()}
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", cfg.Metrics.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Health/Metrics server shutdown failed", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Zeebe client close failed", zap.Error(err))
	}
	zapLog.Info("Worker manager stopped")
}
