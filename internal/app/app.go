// Package app builds the sync components from configuration. Both binaries share it.
package app

import (
	"context"
	"fmt"

	"tour-sync/internal/common/arctic"
	"tour-sync/internal/common/aws"
	"tour-sync/internal/common/config"
	"tour-sync/internal/common/database"
	"tour-sync/internal/common/logger"
	"tour-sync/internal/common/observability"
	"tour-sync/internal/common/outline"
	"tour-sync/internal/tours/docsync"
	"tour-sync/internal/tours/merge"
	"tour-sync/internal/tours/pipeline"
	"tour-sync/internal/tours/render"
	"tour-sync/internal/tours/report"
	"tour-sync/internal/tours/reverse"
	"tour-sync/internal/tours/search"
	"tour-sync/internal/tours/store"
)

type App struct {
	Config        *config.Config
	Logger        logger.Logger
	Postgres      *database.PostgresClient
	Redis         *database.RedisClient
	Search        *database.ElasticsearchClient
	Store         *store.Store
	Notifier      *report.Notifier
	Observability *observability.Observability
	Pipeline      *pipeline.Pipeline
}

// New connects the canonical store and builds every stage. Redis, Elasticsearch and
// the AWS channels are optional and skipped when not configured.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: log}

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return nil, err
	}
	if err := pg.Ping(ctx); err != nil {
		pg.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	a.Postgres = pg
	a.Store = store.New(pg.DB)

	a.Redis = database.NewRedis(cfg.Database.Redis)
	if a.Redis != nil {
		if err := a.Redis.Ping(ctx); err != nil {
			log.Warn("Redis unavailable, title index falls back to listing", map[string]interface{}{"error": err})
			a.Redis.Close()
			a.Redis = nil
		}
	}

	a.Search, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		log.Warn("Elasticsearch disabled", map[string]interface{}{"error": err})
		a.Search = nil
	}
	if a.Search != nil {
		created, err := a.Search.EnsureIndex(ctx)
		switch {
		case err != nil:
			log.Warn("Search index unavailable, indexing disabled", map[string]interface{}{"error": err})
			a.Search = nil
		case created:
			log.Info("Search index created", map[string]interface{}{"index": a.Search.Index})
		}
	}

	a.Observability, err = observability.New(cfg.App.Name)
	if err != nil {
		log.Warn("OpenTelemetry meter unavailable", map[string]interface{}{"error": err})
	}

	a.Notifier, err = newNotifier(ctx, cfg.Notifications, log)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	docs := outline.NewClient(
		cfg.APIs.Outline.BaseURL,
		cfg.APIs.Outline.APIKey,
		config.GetDuration(cfg.APIs.Outline.Timeout),
		cfg.APIs.Outline.PageSize,
	)
	upstream := arctic.NewClient(
		cfg.APIs.Arctic.BaseURL,
		cfg.APIs.Arctic.APIKey,
		config.GetDuration(cfg.APIs.Arctic.Timeout),
	)

	var index docsync.TitleIndex
	if a.Redis != nil {
		index = docsync.NewRedisTitleIndex(a.Redis.Client, docs, cfg.TitleIndex.CacheTTL)
	}
	var indexer docsync.Indexer
	if a.Search != nil {
		indexer = search.NewIndexer(a.Search.Client, a.Search.Index)
	}

	synchronizer := docsync.NewSynchronizer(docs, index, docsync.NewRouter(cfg.Collections), log)

	a.Pipeline = pipeline.New(pipeline.Deps{
		Sources:       cfg.Sources,
		Merger:        merge.NewMerger(a.Store, log),
		Publisher:     docsync.NewPublisher(a.Store, render.New(), synchronizer, indexer, log),
		Reverse:       reverse.NewSyncer(docs, upstream, reverse.Policy{AllowClear: cfg.Reverse.AllowClear}, log),
		Ledger:        a.Store,
		Notifier:      a.Notifier,
		Observability: a.Observability,
		Logger:        log,
	})
	return a, nil
}

func newNotifier(ctx context.Context, cfg config.NotificationConfig, log logger.Logger) (*report.Notifier, error) {
	var (
		mailer  report.Mailer
		alerter report.Alerter
	)
	if cfg.SES.Enabled {
		ses, err := aws.NewSESClient(ctx, cfg.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("ses client: %w", err)
		}
		mailer = ses
	}
	if cfg.SNS.Enabled {
		sns, err := aws.NewSNSClient(ctx, cfg.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("sns client: %w", err)
		}
		alerter = sns
	}
	return report.NewNotifier(cfg, mailer, alerter, log), nil
}

// Migrate applies the canonical store schema.
func (a *App) Migrate(ctx context.Context) error {
	return a.Postgres.Migrate(ctx)
}

func (a *App) Close(ctx context.Context) {
	if err := a.Observability.Shutdown(ctx); err != nil {
		a.Logger.Warn("Meter provider shutdown failed", map[string]interface{}{"error": err})
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.Postgres != nil {
		a.Postgres.Close()
	}
}
