// Package store is the postgres repository behind the canonical tour records.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"tour-sync/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Store reads and writes the canonical tables. It is safe for sequential use only.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const upsertTourSQL = `INSERT INTO tours (arctic_id, master_name, arctic_shortname, standard_price, duration, business_group_id, variant_type)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (arctic_id) DO UPDATE SET
	master_name = EXCLUDED.master_name,
	arctic_shortname = EXCLUDED.arctic_shortname,
	standard_price = EXCLUDED.standard_price,
	duration = EXCLUDED.duration,
	business_group_id = EXCLUDED.business_group_id,
	variant_type = EXCLUDED.variant_type,
	updated_at = CURRENT_TIMESTAMP`

// UpsertTour inserts the tour or overwrites every mapped attribute of the existing row.
func (s *Store) UpsertTour(ctx context.Context, t models.Tour) error {
	_, err := s.db.ExecContext(ctx, upsertTourSQL,
		t.ArcticID, t.MasterName, t.Shortname, t.Price, t.Duration, t.BusinessGroup, t.VariantType)
	if err != nil {
		return fmt.Errorf("upsert tour %s: %w", t.ArcticID, err)
	}
	return nil
}

const upsertContentSQL = `INSERT INTO website_data (website_id, master_name, subtitle, region, skill_level, season,
	short_description, description, departs_from, distance, pricing_info, fees_info,
	special_notes, dates_available, reservation_link, images, last_synced)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, CURRENT_TIMESTAMP)
ON CONFLICT (website_id) DO UPDATE SET
	master_name = EXCLUDED.master_name,
	subtitle = EXCLUDED.subtitle,
	region = EXCLUDED.region,
	skill_level = EXCLUDED.skill_level,
	season = EXCLUDED.season,
	short_description = EXCLUDED.short_description,
	description = EXCLUDED.description,
	departs_from = EXCLUDED.departs_from,
	distance = EXCLUDED.distance,
	pricing_info = EXCLUDED.pricing_info,
	fees_info = EXCLUDED.fees_info,
	special_notes = EXCLUDED.special_notes,
	dates_available = EXCLUDED.dates_available,
	reservation_link = EXCLUDED.reservation_link,
	images = EXCLUDED.images,
	last_synced = CURRENT_TIMESTAMP`

// UpsertContent inserts or overwrites one website content record.
func (s *Store) UpsertContent(ctx context.Context, c models.SupplementaryContent) error {
	fees := c.Fees
	if fees == nil {
		fees = map[string]string{}
	}
	feesJSON, err := json.Marshal(fees)
	if err != nil {
		return fmt.Errorf("encode fees for %s: %w", c.WebsiteID, err)
	}
	images := c.Images
	if images == nil {
		images = []string{}
	}

	_, err = s.db.ExecContext(ctx, upsertContentSQL,
		c.WebsiteID, c.MasterName, c.Subtitle, c.Region, c.SkillLevel, c.Season,
		c.ShortDescription, c.LongDescription, c.DepartsFrom, c.Distance, c.PricingInfo, string(feesJSON),
		c.SpecialNotes, c.DatesAvailable, c.ReservationLink, pq.Array(images))
	if err != nil {
		return fmt.Errorf("upsert content %s: %w", c.WebsiteID, err)
	}
	return nil
}

// ListTourKeys returns every tour id with its name.
func (s *Store) ListTourKeys(ctx context.Context) ([]models.KeyedName, error) {
	return s.listKeys(ctx, `SELECT arctic_id, COALESCE(master_name, '') FROM tours ORDER BY arctic_id`)
}

// ListContentKeys returns every content id with its title.
func (s *Store) ListContentKeys(ctx context.Context) ([]models.KeyedName, error) {
	return s.listKeys(ctx, `SELECT website_id, COALESCE(master_name, '') FROM website_data ORDER BY website_id`)
}

func (s *Store) listKeys(ctx context.Context, query string) ([]models.KeyedName, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var out []models.KeyedName
	for rows.Next() {
		var k models.KeyedName
		if err := rows.Scan(&k.Key, &k.Name); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

// ListLinks returns the persisted content links keyed by arctic id.
func (s *Store) ListLinks(ctx context.Context) (map[string]models.ContentLink, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT arctic_id, COALESCE(website_id, ''), status, COALESCE(method, ''), checked_at FROM tour_content_links`)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer rows.Close()

	out := map[string]models.ContentLink{}
	for rows.Next() {
		var l models.ContentLink
		var status, method string
		if err := rows.Scan(&l.ArcticID, &l.WebsiteID, &status, &method, &l.CheckedAt); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		l.Status = models.LinkStatus(status)
		l.Method = models.LinkMethod(method)
		out[l.ArcticID] = l
	}
	return out, rows.Err()
}

const upsertLinkSQL = `INSERT INTO tour_content_links (arctic_id, website_id, status, method, checked_at)
VALUES ($1, NULLIF($2, ''), $3, NULLIF($4, ''), $5)
ON CONFLICT (arctic_id) DO UPDATE SET
	website_id = EXCLUDED.website_id,
	status = EXCLUDED.status,
	method = EXCLUDED.method,
	checked_at = EXCLUDED.checked_at`

// UpsertLink stores the reconciliation result for one tour.
func (s *Store) UpsertLink(ctx context.Context, l models.ContentLink) error {
	_, err := s.db.ExecContext(ctx, upsertLinkSQL,
		l.ArcticID, l.WebsiteID, string(l.Status), string(l.Method), l.CheckedAt)
	if err != nil {
		return fmt.Errorf("upsert link %s: %w", l.ArcticID, err)
	}
	return nil
}

// Joined is a tour with its resolved content, if any, before authority rules apply.
type Joined struct {
	Tour    models.Tour
	Content *models.SupplementaryContent
}

const listJoinedSQL = `SELECT t.arctic_id, COALESCE(t.master_name, ''), COALESCE(t.arctic_shortname, ''),
	COALESCE(t.standard_price, ''), COALESCE(t.duration, ''), COALESCE(t.business_group_id, ''),
	COALESCE(t.variant_type, ''), COALESCE(t.outline_document_id, ''), t.updated_at,
	w.website_id, w.master_name, w.subtitle, w.region, w.skill_level, w.season,
	w.short_description, w.description, w.departs_from, w.distance, w.pricing_info, w.fees_info,
	w.special_notes, w.dates_available, w.reservation_link, w.images, w.last_synced
FROM tours t
LEFT JOIN tour_content_links l ON l.arctic_id = t.arctic_id AND l.status = 'resolved'
LEFT JOIN website_data w ON w.website_id = l.website_id
ORDER BY t.master_name, t.arctic_id`

// ListJoined returns every tour joined with its resolved content link.
func (s *Store) ListJoined(ctx context.Context) ([]Joined, error) {
	rows, err := s.db.QueryContext(ctx, listJoinedSQL)
	if err != nil {
		return nil, fmt.Errorf("list joined tours: %w", err)
	}
	defer rows.Close()

	var out []Joined
	for rows.Next() {
		var (
			j         Joined
			updatedAt sql.NullTime
			text      [14]sql.NullString
			fees      []byte
			images    pq.StringArray
			synced    sql.NullTime
		)
		err := rows.Scan(
			&j.Tour.ArcticID, &j.Tour.MasterName, &j.Tour.Shortname,
			&j.Tour.Price, &j.Tour.Duration, &j.Tour.BusinessGroup,
			&j.Tour.VariantType, &j.Tour.OutlineDocumentID, &updatedAt,
			&text[0], &text[1], &text[2], &text[3], &text[4], &text[5],
			&text[6], &text[7], &text[8], &text[9], &text[10], &fees,
			&text[11], &text[12], &text[13], &images, &synced,
		)
		if err != nil {
			return nil, fmt.Errorf("scan joined tour: %w", err)
		}
		if updatedAt.Valid {
			ts := updatedAt.Time
			j.Tour.UpdatedAt = &ts
		}

		if text[0].Valid {
			c := &models.SupplementaryContent{
				WebsiteID:        text[0].String,
				MasterName:       text[1].String,
				Subtitle:         text[2].String,
				Region:           text[3].String,
				SkillLevel:       text[4].String,
				Season:           text[5].String,
				ShortDescription: text[6].String,
				LongDescription:  text[7].String,
				DepartsFrom:      text[8].String,
				Distance:         text[9].String,
				PricingInfo:      text[10].String,
				SpecialNotes:     text[11].String,
				DatesAvailable:   text[12].String,
				ReservationLink:  text[13].String,
				Images:           []string(images),
				Fees:             map[string]string{},
			}
			if len(fees) > 0 {
				if err := json.Unmarshal(fees, &c.Fees); err != nil {
					return nil, fmt.Errorf("decode fees for %s: %w", c.WebsiteID, err)
				}
			}
			if synced.Valid {
				ts := synced.Time
				c.LastSynced = &ts
			}
			j.Content = c
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

// SetDocumentID persists the external document id for a tour.
func (s *Store) SetDocumentID(ctx context.Context, arcticID, documentID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE tours SET outline_document_id = $2 WHERE arctic_id = $1`, arcticID, documentID)
	if err != nil {
		return fmt.Errorf("set document id for %s: %w", arcticID, err)
	}
	return nil
}

// Run is one stage entry of the sync ledger.
type Run struct {
	RunID      uuid.UUID
	Stage      string
	StartedAt  time.Time
	FinishedAt time.Time
	Processed  int
	Failed     int
	Error      string
}

// RecordRun appends a stage result to sync_runs.
func (s *Store) RecordRun(ctx context.Context, r Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_runs (run_id, stage, started_at, finished_at, processed, failed, error)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))`,
		r.RunID.String(), r.Stage, r.StartedAt, r.FinishedAt, r.Processed, r.Failed, r.Error)
	if err != nil {
		return fmt.Errorf("record run %s/%s: %w", r.RunID, r.Stage, err)
	}
	return nil
}
