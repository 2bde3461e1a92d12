package docsync

import (
	"context"
	"fmt"

	apperrors "tour-sync/internal/common/errors"
	"tour-sync/internal/common/logger"
	"tour-sync/internal/common/metrics"
	"tour-sync/internal/models"
	"tour-sync/internal/tours/merge"
	"tour-sync/internal/tours/render"
	"tour-sync/internal/tours/store"
)

const Stage = "publish"

// Tours is the part of the canonical store the publisher reads and writes.
type Tours interface {
	ListJoined(ctx context.Context) ([]store.Joined, error)
	SetDocumentID(ctx context.Context, arcticID, documentID string) error
}

// Indexer receives every successfully published view.
type Indexer interface {
	Index(ctx context.Context, view models.TourView, documentID string) error
}

// ConflictEntry is an authority conflict attached to the tour it was found on.
type ConflictEntry struct {
	ArcticID string          `json:"arcticId"`
	Name     string          `json:"name"`
	Conflict models.Conflict `json:"conflict"`
}

type PublishResult struct {
	Total       int             `json:"total"`
	Created     int             `json:"created"`
	Updated     int             `json:"updated"`
	Failed      int             `json:"failed"`
	IndexFailed int             `json:"indexFailed"`
	Unlinked    int             `json:"unlinked"`
	Errors      []string        `json:"errors,omitempty"`
	Conflicts   []ConflictEntry `json:"conflicts,omitempty"`
}

type Publisher struct {
	tours    Tours
	renderer *render.Renderer
	sync     *Synchronizer
	indexer  Indexer
	logger   logger.Logger
}

// NewPublisher wires the publishing stage; indexer may be nil.
func NewPublisher(tours Tours, renderer *render.Renderer, sync *Synchronizer, indexer Indexer, log logger.Logger) *Publisher {
	return &Publisher{tours: tours, renderer: renderer, sync: sync, indexer: indexer, logger: log}
}

// Publish renders and syncs every tour. A failed tour is logged with the response
// body and the next tour proceeds.
func (p *Publisher) Publish(ctx context.Context) (*PublishResult, error) {
	joined, err := p.tours.ListJoined(ctx)
	if err != nil {
		return nil, apperrors.NewStoreReadError("joined tours", err)
	}

	res := &PublishResult{Total: len(joined)}
	for _, j := range joined {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		view := merge.Join(j.Tour, j.Content)
		for _, c := range view.Conflicts {
			res.Conflicts = append(res.Conflicts, ConflictEntry{ArcticID: j.Tour.ArcticID, Name: j.Tour.MasterName, Conflict: c})
		}
		if !view.ContentLinked {
			res.Unlinked++
		}

		if err := p.publishOne(ctx, view, res); err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", j.Tour.MasterName, err))
			metrics.Record(Stage, metrics.OutcomeFailed)
			p.logger.Error("Publishing tour failed", map[string]interface{}{
				"arcticId": j.Tour.ArcticID,
				"name":     j.Tour.MasterName,
				"error":    err,
			})
			continue
		}
		metrics.Record(Stage, metrics.OutcomeOK)
	}

	p.logger.Info("Documents published", map[string]interface{}{
		"total":     res.Total,
		"created":   res.Created,
		"updated":   res.Updated,
		"failed":    res.Failed,
		"unlinked":  res.Unlinked,
		"conflicts": len(res.Conflicts),
	})
	return res, nil
}

func (p *Publisher) publishOne(ctx context.Context, view models.TourView, res *PublishResult) error {
	text, err := p.renderer.Render(view)
	if err != nil {
		return err
	}

	t := view.Tour
	out, err := p.sync.Sync(ctx, SyncInput{
		ArcticID:   t.ArcticID,
		Title:      t.MasterName,
		DocumentID: t.OutlineDocumentID,
		Text:       text,
	})
	if err != nil {
		return apperrors.NewDocumentStoreError("sync", t.MasterName, err)
	}

	switch out.Action {
	case ActionCreated:
		res.Created++
	case ActionUpdated:
		res.Updated++
	}
	metrics.DocumentsPublished.WithLabelValues(out.Action).Inc()
	p.logger.Info("Tour document synced", map[string]interface{}{
		"arcticId":   t.ArcticID,
		"name":       t.MasterName,
		"action":     out.Action,
		"documentId": out.DocumentID,
	})

	if out.DocumentID != "" && out.DocumentID != t.OutlineDocumentID {
		if err := p.tours.SetDocumentID(ctx, t.ArcticID, out.DocumentID); err != nil {
			p.logger.Warn("Persisting document id failed", map[string]interface{}{"arcticId": t.ArcticID, "error": err})
		}
	}

	if p.indexer != nil {
		if err := p.indexer.Index(ctx, view, out.DocumentID); err != nil {
			res.IndexFailed++
			p.logger.Warn("Search indexing failed", map[string]interface{}{"arcticId": t.ArcticID, "error": err})
		}
	}
	return nil
}
