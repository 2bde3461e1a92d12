// Package merge folds the inventory and content exports into the canonical store and
// decides which content record belongs to which tour.
package merge

import (
	"context"
	"time"

	apperrors "tour-sync/internal/common/errors"
	"tour-sync/internal/common/logger"
	"tour-sync/internal/common/metrics"
	"tour-sync/internal/models"
	"tour-sync/internal/tours/extract"
)

const (
	StageInventory = "inventory"
	StageContent   = "content"
	StageLinks     = "links"
)

// Repository is the part of the canonical store the merger writes to.
type Repository interface {
	UpsertTour(ctx context.Context, t models.Tour) error
	UpsertContent(ctx context.Context, c models.SupplementaryContent) error
	ListTourKeys(ctx context.Context) ([]models.KeyedName, error)
	ListContentKeys(ctx context.Context) ([]models.KeyedName, error)
	ListLinks(ctx context.Context) (map[string]models.ContentLink, error)
	UpsertLink(ctx context.Context, l models.ContentLink) error
}

// Result summarizes one ingest stage.
type Result struct {
	Stage     string   `json:"stage"`
	Processed int      `json:"processed"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors,omitempty"`
}

func (r *Result) fail(err error) {
	r.Failed++
	r.Errors = append(r.Errors, err.Error())
	metrics.Record(r.Stage, metrics.OutcomeFailed)
}

type Merger struct {
	repo   Repository
	logger logger.Logger
	now    func() time.Time
}

func NewMerger(repo Repository, log logger.Logger) *Merger {
	return &Merger{repo: repo, logger: log, now: time.Now}
}

// IngestInventory upserts one tour per inventory row, resolving its price from the
// pricing rows. A failed row is logged and counted; the rest still run.
func (m *Merger) IngestInventory(ctx context.Context, tripRows, pricingRows []models.Row) (*Result, error) {
	res := &Result{Stage: StageInventory}
	prices := NewPriceIndex(pricingRows)

	for i, row := range tripRows {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		tour, ok := BuildTour(row, prices)
		if !ok {
			res.Skipped++
			metrics.Record(res.Stage, metrics.OutcomeSkipped)
			m.logger.Warn("Inventory row without id skipped", map[string]interface{}{"row": i + 1})
			continue
		}
		if err := m.repo.UpsertTour(ctx, tour); err != nil {
			res.fail(apperrors.NewStoreWriteError("tours", tour.ArcticID, err))
			m.logger.Error("Tour upsert failed", map[string]interface{}{
				"arcticId": tour.ArcticID,
				"name":     tour.MasterName,
				"error":    err,
			})
			continue
		}
		res.Processed++
		metrics.Record(res.Stage, metrics.OutcomeOK)
	}

	m.logger.Info("Inventory ingested", map[string]interface{}{
		"processed": res.Processed,
		"skipped":   res.Skipped,
		"failed":    res.Failed,
	})
	return res, nil
}

// IngestContent upserts one content record per website export row.
func (m *Merger) IngestContent(ctx context.Context, rows []models.Row) (*Result, error) {
	res := &Result{Stage: StageContent}

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		content, ok := extract.Content(row)
		if !ok {
			res.Skipped++
			metrics.Record(res.Stage, metrics.OutcomeSkipped)
			m.logger.Warn("Content row without ID skipped", map[string]interface{}{"row": i + 1})
			continue
		}
		if err := m.repo.UpsertContent(ctx, content); err != nil {
			res.fail(apperrors.NewStoreWriteError("website_data", content.WebsiteID, err))
			m.logger.Error("Content upsert failed", map[string]interface{}{
				"websiteId": content.WebsiteID,
				"title":     content.MasterName,
				"error":     err,
			})
			continue
		}
		res.Processed++
		metrics.Record(res.Stage, metrics.OutcomeOK)
	}

	m.logger.Info("Content ingested", map[string]interface{}{
		"processed": res.Processed,
		"skipped":   res.Skipped,
		"failed":    res.Failed,
	})
	return res, nil
}

// LinkIssue is a tour that could not be matched to exactly one content record.
type LinkIssue struct {
	ArcticID   string            `json:"arcticId"`
	Name       string            `json:"name"`
	Status     models.LinkStatus `json:"status"`
	Candidates []string          `json:"candidates,omitempty"`
}

// LinkReport summarizes a reconciliation pass.
type LinkReport struct {
	Resolved int         `json:"resolved"`
	Failed   int         `json:"failed"`
	Issues   []LinkIssue `json:"issues,omitempty"`
}

// Unresolved counts tours left without content.
func (r *LinkReport) Unresolved() int {
	return len(r.Issues)
}

// ReconcileLinks recomputes the tour to content mapping. An existing resolved link is
// kept while its content exists; otherwise the content with the same id wins, then a
// unique case-insensitive title match.
func (m *Merger) ReconcileLinks(ctx context.Context) (*LinkReport, error) {
	tours, err := m.repo.ListTourKeys(ctx)
	if err != nil {
		return nil, apperrors.NewStoreReadError("tours", err)
	}
	contents, err := m.repo.ListContentKeys(ctx)
	if err != nil {
		return nil, apperrors.NewStoreReadError("website_data", err)
	}
	existing, err := m.repo.ListLinks(ctx)
	if err != nil {
		return nil, apperrors.NewStoreReadError("tour_content_links", err)
	}

	byID := make(map[string]bool, len(contents))
	byName := map[string][]string{}
	for _, c := range contents {
		byID[c.Key] = true
		if name := normalize(c.Name); name != "" {
			byName[name] = append(byName[name], c.Key)
		}
	}

	report := &LinkReport{}
	counts := map[models.LinkStatus]int{}
	checkedAt := m.now().UTC()

	for _, t := range tours {
		link := resolveLink(t, existing[t.Key], byID, byName)
		link.CheckedAt = checkedAt
		counts[link.Status]++

		if link.Status == models.LinkResolved {
			report.Resolved++
		} else {
			issue := LinkIssue{ArcticID: t.Key, Name: t.Name, Status: link.Status}
			if link.Status == models.LinkAmbiguous {
				issue.Candidates = byName[normalize(t.Name)]
			}
			report.Issues = append(report.Issues, issue)
			m.logger.Warn("Tour has no unique content link", map[string]interface{}{
				"arcticId": t.Key,
				"name":     t.Name,
				"status":   string(link.Status),
			})
		}

		if err := m.repo.UpsertLink(ctx, link); err != nil {
			report.Failed++
			metrics.Record(StageLinks, metrics.OutcomeFailed)
			m.logger.Error("Link upsert failed", map[string]interface{}{"arcticId": t.Key, "error": err})
			continue
		}
		metrics.Record(StageLinks, metrics.OutcomeOK)
	}

	for _, status := range []models.LinkStatus{models.LinkResolved, models.LinkUnresolved, models.LinkAmbiguous} {
		metrics.UnresolvedLinks.WithLabelValues(string(status)).Set(float64(counts[status]))
	}

	m.logger.Info("Content links reconciled", map[string]interface{}{
		"resolved":   report.Resolved,
		"unresolved": report.Unresolved(),
		"failed":     report.Failed,
	})
	return report, nil
}

func resolveLink(t models.KeyedName, prev models.ContentLink, byID map[string]bool, byName map[string][]string) models.ContentLink {
	link := models.ContentLink{ArcticID: t.Key}

	if prev.Status == models.LinkResolved && prev.WebsiteID != "" && byID[prev.WebsiteID] {
		link.Status = models.LinkResolved
		link.WebsiteID = prev.WebsiteID
		link.Method = models.LinkByPersisted
		if prev.Method == models.LinkByManual {
			link.Method = models.LinkByManual
		}
		return link
	}

	if byID[t.Key] {
		link.Status = models.LinkResolved
		link.WebsiteID = t.Key
		link.Method = models.LinkByID
		return link
	}

	switch candidates := byName[normalize(t.Name)]; len(candidates) {
	case 0:
		link.Status = models.LinkUnresolved
	case 1:
		link.Status = models.LinkResolved
		link.WebsiteID = candidates[0]
		link.Method = models.LinkByTitle
	default:
		link.Status = models.LinkAmbiguous
	}
	return link
}
