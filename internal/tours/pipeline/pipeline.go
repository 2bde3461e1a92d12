// Package pipeline runs the sync stages in order and keeps the run ledger.
package pipeline

import (
	"context"
	"time"

	"tour-sync/internal/common/config"
	"tour-sync/internal/common/csvsource"
	apperrors "tour-sync/internal/common/errors"
	"tour-sync/internal/common/logger"
	"tour-sync/internal/common/metrics"
	"tour-sync/internal/common/observability"
	"tour-sync/internal/tours/docsync"
	"tour-sync/internal/tours/merge"
	"tour-sync/internal/tours/report"
	"tour-sync/internal/tours/reverse"
	"tour-sync/internal/tours/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
)

// Ledger persists one row per finished stage.
type Ledger interface {
	RecordRun(ctx context.Context, r store.Run) error
}

// Deps are the stage components. Reverse, Notifier and Observability may be nil.
type Deps struct {
	Sources       config.SourcesConfig
	Merger        *merge.Merger
	Publisher     *docsync.Publisher
	Reverse       *reverse.Syncer
	Ledger        Ledger
	Notifier      *report.Notifier
	Observability *observability.Observability
	Logger        logger.Logger
}

type Pipeline struct {
	Deps
	now func() time.Time
}

func New(d Deps) *Pipeline {
	return &Pipeline{Deps: d, now: time.Now}
}

// Inventory reads the trip type and pricing exports and upserts the tours.
func (p *Pipeline) Inventory(ctx context.Context) (*merge.Result, error) {
	trips, err := csvsource.ReadFile(p.Sources.TripTypesCSV)
	if err != nil {
		return nil, apperrors.NewSourceReadError(p.Sources.TripTypesCSV, err)
	}
	pricing, err := csvsource.ReadFile(p.Sources.PricingCSV)
	if err != nil {
		return nil, apperrors.NewSourceReadError(p.Sources.PricingCSV, err)
	}
	return p.Merger.IngestInventory(ctx, trips, pricing)
}

// Content reads the website export, upserts it and reconciles the content links.
func (p *Pipeline) Content(ctx context.Context) (*merge.Result, *merge.LinkReport, error) {
	rows, err := csvsource.ReadFile(p.Sources.WebsiteCSV)
	if err != nil {
		return nil, nil, apperrors.NewSourceReadError(p.Sources.WebsiteCSV, err)
	}
	res, err := p.Merger.IngestContent(ctx, rows)
	if err != nil {
		return res, nil, err
	}
	links, err := p.Merger.ReconcileLinks(ctx)
	return res, links, err
}

func (p *Pipeline) Publish(ctx context.Context) (*docsync.PublishResult, error) {
	return p.Publisher.Publish(ctx)
}

func (p *Pipeline) ReverseSync(ctx context.Context) (*reverse.Result, error) {
	if p.Reverse == nil {
		return nil, apperrors.New(apperrors.ErrCodeInternal, "Reverse sync is not configured", nil)
	}
	return p.Reverse.Run(ctx)
}

// Daily runs inventory, content and publish in that order. A failed stage is
// recorded and the following stages still run. The report is sent last.
func (p *Pipeline) Daily(ctx context.Context) (*report.SyncReport, error) {
	rep := &report.SyncReport{RunID: uuid.New(), StartedAt: p.now()}
	log := p.Logger.WithFields(map[string]interface{}{"runId": rep.RunID.String()})
	log.Info("Daily sync started", nil)

	p.stage(ctx, rep, merge.StageInventory, func(ctx context.Context) (report.StageSummary, error) {
		res, err := p.Inventory(ctx)
		return mergeSummary(res), err
	})

	p.stage(ctx, rep, merge.StageContent, func(ctx context.Context) (report.StageSummary, error) {
		res, links, err := p.Content(ctx)
		if links != nil {
			rep.LinkIssues = links.Issues
		}
		return mergeSummary(res), err
	})

	p.stage(ctx, rep, docsync.Stage, func(ctx context.Context) (report.StageSummary, error) {
		res, err := p.Publish(ctx)
		if res == nil {
			return report.StageSummary{}, err
		}
		rep.Conflicts = res.Conflicts
		return report.StageSummary{
			Processed: res.Created + res.Updated,
			Failed:    res.Failed,
		}, err
	})

	rep.FinishedAt = p.now()
	if err := ctx.Err(); err != nil {
		return rep, err
	}

	if p.Notifier != nil {
		if _, err := p.Notifier.Send(ctx, rep); err != nil {
			log.Error("Sync report delivery failed", map[string]interface{}{"error": err})
		}
	}

	log.Info("Daily sync finished", map[string]interface{}{
		"problems": rep.HasProblems(),
		"duration": rep.FinishedAt.Sub(rep.StartedAt).String(),
	})
	return rep, nil
}

type stageFunc func(ctx context.Context) (report.StageSummary, error)

func (p *Pipeline) stage(ctx context.Context, rep *report.SyncReport, name string, run stageFunc) {
	if ctx.Err() != nil {
		return
	}

	ctx, span := p.Observability.StartStage(ctx, rep.RunID.String(), name)
	defer span.End()

	started := p.now()
	summary, err := run(ctx)
	finished := p.now()

	summary.Stage = name
	summary.Duration = finished.Sub(started)
	if err != nil {
		summary.Error = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.Logger.Error("Stage failed", map[string]interface{}{
			"runId": rep.RunID.String(),
			"stage": name,
			"error": err,
		})
	}
	rep.Stages = append(rep.Stages, summary)

	metrics.StageDuration.WithLabelValues(name).Observe(summary.Duration.Seconds())
	p.Observability.RecordStage(ctx, name, summary.Duration, err != nil)

	if p.Ledger == nil {
		return
	}
	if lerr := p.Ledger.RecordRun(ctx, store.Run{
		RunID:      rep.RunID,
		Stage:      name,
		StartedAt:  started,
		FinishedAt: finished,
		Processed:  summary.Processed,
		Failed:     summary.Failed,
		Error:      summary.Error,
	}); lerr != nil {
		p.Logger.Warn("Run ledger write failed", map[string]interface{}{"stage": name, "error": lerr})
	}
}

func mergeSummary(res *merge.Result) report.StageSummary {
	if res == nil {
		return report.StageSummary{}
	}
	return report.StageSummary{Processed: res.Processed, Skipped: res.Skipped, Failed: res.Failed}
}
