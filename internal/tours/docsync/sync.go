// Package docsync publishes rendered tours into the document store, updating a
// tour's existing document in place and creating one only when none exists.
package docsync

import (
	"context"
	"errors"

	"tour-sync/internal/common/logger"
	"tour-sync/internal/common/outline"
	"tour-sync/internal/models"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
)

// DocumentStore is the document API used for publishing.
type DocumentStore interface {
	Lister
	Create(ctx context.Context, collectionID, title, text string) (*models.ExternalDocument, error)
	Update(ctx context.Context, id, title, text string) (*models.ExternalDocument, error)
}

type invalidator interface {
	Invalidate(ctx context.Context) error
}

type SyncInput struct {
	ArcticID   string
	Title      string
	DocumentID string
	Text       string
}

type SyncResult struct {
	Action       string
	DocumentID   string
	CollectionID string
}

// Synchronizer does the find-or-create for one document at a time. The title lookup
// followed by a create is not atomic, so callers must not run it concurrently.
type Synchronizer struct {
	docs   DocumentStore
	index  TitleIndex
	router *Router
	logger logger.Logger
}

func NewSynchronizer(docs DocumentStore, index TitleIndex, router *Router, log logger.Logger) *Synchronizer {
	if index == nil {
		index = NewListingIndex(docs)
	}
	return &Synchronizer{docs: docs, index: index, router: router, logger: log}
}

// Sync updates the document with the persisted id, else the first document with the
// same title, else creates one in the routed collection.
func (s *Synchronizer) Sync(ctx context.Context, in SyncInput) (*SyncResult, error) {
	if in.DocumentID != "" {
		doc, err := s.docs.Update(ctx, in.DocumentID, in.Title, in.Text)
		switch {
		case err == nil:
			return &SyncResult{Action: ActionUpdated, DocumentID: doc.ID, CollectionID: doc.CollectionID}, nil
		case errors.Is(err, outline.ErrNotFound):
			s.logger.Warn("Persisted document id not found, falling back to title", map[string]interface{}{
				"arcticId":   in.ArcticID,
				"documentId": in.DocumentID,
				"title":      in.Title,
			})
		default:
			return nil, err
		}
	}

	// a cached title can point at a deleted document; drop the cache and look once more
	for attempt := 0; attempt < 2; attempt++ {
		id, found, err := s.index.Lookup(ctx, in.Title)
		if err != nil {
			return nil, err
		}
		if !found {
			break
		}
		doc, err := s.docs.Update(ctx, id, in.Title, in.Text)
		if err == nil {
			return &SyncResult{Action: ActionUpdated, DocumentID: doc.ID, CollectionID: doc.CollectionID}, nil
		}
		if !errors.Is(err, outline.ErrNotFound) {
			return nil, err
		}
		stale, ok := s.index.(invalidator)
		if !ok {
			break
		}
		s.logger.Warn("Title index entry is stale", map[string]interface{}{"title": in.Title, "documentId": id})
		if err := stale.Invalidate(ctx); err != nil {
			return nil, err
		}
	}

	route := s.router.Route(in.Title)
	doc, err := s.docs.Create(ctx, route.CollectionID, in.Title, in.Text)
	if err != nil {
		return nil, err
	}
	if err := s.index.Remember(ctx, in.Title, doc.ID); err != nil {
		s.logger.Warn("Title index update failed", map[string]interface{}{"title": in.Title, "error": err})
	}
	return &SyncResult{Action: ActionCreated, DocumentID: doc.ID, CollectionID: route.CollectionID}, nil
}
