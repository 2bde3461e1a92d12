package reverse

import (
	"context"
	"errors"
	"fmt"

	"tour-sync/internal/common/arctic"
	apperrors "tour-sync/internal/common/errors"
	"tour-sync/internal/common/logger"
	"tour-sync/internal/common/metrics"
	"tour-sync/internal/common/validation"
	"tour-sync/internal/models"
)

const Stage = "reverse"

var proposalValidator = validation.MustValidator(validation.ProposalSchema)

// Documents lists and fetches published documents.
type Documents interface {
	List(ctx context.Context) ([]models.ExternalDocument, error)
	Info(ctx context.Context, id string) (*models.ExternalDocument, error)
}

// Upstream applies tour updates to the inventory system.
type Upstream interface {
	UpdateTourByShortname(ctx context.Context, shortCode string, update arctic.TourUpdate) error
}

// Result summarizes one reverse pass.
type Result struct {
	Documents  int      `json:"documents"`
	Skipped    int      `json:"skipped"`
	Suppressed int      `json:"suppressed"`
	Rejected   int      `json:"rejected"`
	Updated    int      `json:"updated"`
	Failed     int      `json:"failed"`
	Errors     []string `json:"errors,omitempty"`
}

type Syncer struct {
	docs     Documents
	upstream Upstream
	policy   Policy
	logger   logger.Logger
}

func NewSyncer(docs Documents, upstream Upstream, policy Policy, log logger.Logger) *Syncer {
	return &Syncer{docs: docs, upstream: upstream, policy: policy, logger: log}
}

// Run pushes the editable fields of every tour document upstream. Failures are
// logged per document and never stop the pass; only a failed listing is returned.
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	listing, err := s.docs.List(ctx)
	if err != nil {
		return nil, apperrors.NewDocumentStoreError("list", "", err)
	}

	res := &Result{Documents: len(listing)}
	for _, doc := range listing {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		result, err := s.syncDocument(ctx, doc)
		if err != nil {
			res.Failed++
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %v", doc.Title, err))
			metrics.Record(Stage, metrics.OutcomeFailed)
			continue
		}
		switch result {
		case outcomeUpdated:
			res.Updated++
			metrics.Record(Stage, metrics.OutcomeOK)
			continue
		case outcomeSkipped:
			res.Skipped++
		case outcomeSuppressed:
			res.Suppressed++
		case outcomeRejected:
			res.Rejected++
		}
		metrics.Record(Stage, metrics.OutcomeSkipped)
	}

	s.logger.Info("Reverse sync completed", map[string]interface{}{
		"documents":  res.Documents,
		"updated":    res.Updated,
		"skipped":    res.Skipped,
		"suppressed": res.Suppressed,
		"rejected":   res.Rejected,
		"failed":     res.Failed,
	})
	return res, nil
}

type outcome int

const (
	outcomeUpdated outcome = iota
	outcomeSkipped
	outcomeSuppressed
	outcomeRejected
)

func (s *Syncer) syncDocument(ctx context.Context, doc models.ExternalDocument) (out outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected error: %v", r)
			s.logger.Error("Document processing panicked", map[string]interface{}{
				"documentId": doc.ID,
				"title":      doc.Title,
				"panic":      fmt.Sprint(r),
			})
		}
	}()

	full, err := s.docs.Info(ctx, doc.ID)
	if err != nil {
		s.logger.Warn("Document fetch failed", map[string]interface{}{"documentId": doc.ID, "title": doc.Title, "error": err})
		return outcomeSkipped, apperrors.NewDocumentStoreError("info", doc.Title, err)
	}

	ex, ok := Parse(full.Text)
	if !ok {
		return outcomeSkipped, nil
	}
	if ex.FrontMatterErr != nil {
		s.logger.Warn("Front matter rejected, using identity table", map[string]interface{}{
			"documentId": full.ID,
			"title":      full.Title,
			"error":      ex.FrontMatterErr,
		})
	}

	proposal, err := Propose(ex, s.policy)
	switch {
	case errors.Is(err, ErrEmptyExtraction):
		s.logger.Debug("Nothing to propose", map[string]interface{}{"title": full.Title, "shortCode": ex.ShortCode})
		return outcomeSuppressed, nil
	case errors.Is(err, ErrInvalidShortCode):
		s.logger.Warn("Document short code rejected", map[string]interface{}{"title": full.Title, "shortCode": ex.ShortCode})
		return outcomeRejected, nil
	case err != nil:
		return outcomeRejected, err
	}
	proposal.DocumentID = full.ID
	proposal.Title = full.Title

	update := arctic.TourUpdate{
		Subtitle:    proposal.Subtitle,
		Description: proposal.Description,
		SyncSource:  arctic.SyncSource,
	}
	if result, err := proposalValidator.Validate(update); err != nil || !result.Valid {
		s.logger.Warn("Proposal failed payload validation", map[string]interface{}{"title": full.Title, "shortCode": proposal.ShortCode})
		return outcomeRejected, nil
	}

	if err := s.upstream.UpdateTourByShortname(ctx, proposal.ShortCode, update); err != nil {
		s.logger.Error("Inventory update failed", map[string]interface{}{
			"title":     full.Title,
			"shortCode": proposal.ShortCode,
			"error":     err,
		})
		return outcomeUpdated, apperrors.NewUpstreamUpdateError(proposal.ShortCode, err)
	}

	s.logger.Info("Inventory updated from document", map[string]interface{}{
		"title":     full.Title,
		"shortCode": proposal.ShortCode,
	})
	return outcomeUpdated, nil
}
