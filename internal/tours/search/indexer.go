// Package search mirrors published tours into the Elasticsearch index.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "tour-sync/internal/common/errors"
	"tour-sync/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

// TourDocument is the indexed shape of one tour view.
type TourDocument struct {
	ArcticID         string    `json:"arctic_id"`
	Name             string    `json:"name"`
	ShortCode        string    `json:"short_code,omitempty"`
	Price            string    `json:"price,omitempty"`
	Duration         string    `json:"duration,omitempty"`
	Variant          string    `json:"variant,omitempty"`
	Region           string    `json:"region,omitempty"`
	SkillLevel       string    `json:"skill_level,omitempty"`
	Season           string    `json:"season,omitempty"`
	Subtitle         string    `json:"subtitle,omitempty"`
	ShortDescription string    `json:"short_description,omitempty"`
	Images           []string  `json:"images,omitempty"`
	DocumentID       string    `json:"document_id,omitempty"`
	ContentLinked    bool      `json:"content_linked"`
	IndexedAt        time.Time `json:"indexed_at"`
}

// NewTourDocument flattens view for indexing.
func NewTourDocument(view models.TourView, documentID string, now time.Time) TourDocument {
	t, c := view.Tour, view.Content
	return TourDocument{
		ArcticID:         t.ArcticID,
		Name:             t.MasterName,
		ShortCode:        t.Shortname,
		Price:            t.Price,
		Duration:         t.Duration,
		Variant:          t.VariantType,
		Region:           c.Region,
		SkillLevel:       c.SkillLevel,
		Season:           c.Season,
		Subtitle:         c.Subtitle,
		ShortDescription: c.ShortDescription,
		Images:           c.Images,
		DocumentID:       documentID,
		ContentLinked:    view.ContentLinked,
		IndexedAt:        now.UTC(),
	}
}

type Indexer struct {
	client *elasticsearch.Client
	index  string
	now    func() time.Time
}

func NewIndexer(client *elasticsearch.Client, index string) *Indexer {
	return &Indexer{client: client, index: index, now: time.Now}
}

// Index writes the tour under its arctic id, replacing any earlier version.
func (i *Indexer) Index(ctx context.Context, view models.TourView, documentID string) error {
	body, err := json.Marshal(NewTourDocument(view, documentID, i.now()))
	if err != nil {
		return apperrors.New(apperrors.ErrCodeSearchIndexFailed, "Failed to encode tour", err)
	}

	res, err := i.client.Index(
		i.index,
		bytes.NewReader(body),
		i.client.Index.WithDocumentID(view.Tour.ArcticID),
		i.client.Index.WithContext(ctx),
	)
	if err != nil {
		return apperrors.New(apperrors.ErrCodeSearchIndexFailed, "Index request failed", err).
			WithMetadata("arcticId", view.Tour.ArcticID)
	}
	defer res.Body.Close()

	if res.IsError() {
		return apperrors.New(apperrors.ErrCodeSearchIndexFailed, "Index request rejected",
			fmt.Errorf("%s", res.String())).WithMetadata("arcticId", view.Tour.ArcticID)
	}
	return nil
}

// Delete removes a tour from the index; a missing document is not an error.
func (i *Indexer) Delete(ctx context.Context, arcticID string) error {
	res, err := i.client.Delete(i.index, arcticID, i.client.Delete.WithContext(ctx))
	if err != nil {
		return apperrors.New(apperrors.ErrCodeSearchIndexFailed, "Delete request failed", err)
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != 404 {
		return apperrors.New(apperrors.ErrCodeSearchIndexFailed, "Delete request rejected",
			fmt.Errorf("%s", res.String()))
	}
	return nil
}
