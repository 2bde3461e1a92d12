package reverse

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"tour-sync/internal/common/arctic"
	"tour-sync/internal/common/logger"
	"tour-sync/internal/models"
	"tour-sync/internal/tours/render"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderView(t *testing.T, view models.TourView) string {
	t.Helper()
	r := &render.Renderer{Now: func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }}
	text, err := r.Render(view)
	require.NoError(t, err)
	return text
}

func viewWith(code, subtitle, description string) models.TourView {
	return models.TourView{
		Tour: models.Tour{ArcticID: "101", MasterName: "Scenic Loop", Shortname: code, VariantType: models.VariantStandard},
		Content: models.SupplementaryContent{
			WebsiteID:       "555",
			Subtitle:        subtitle,
			LongDescription: description,
		},
		ContentLinked: true,
	}
}

func TestRoundTrip(t *testing.T) {
	text := renderView(t, viewWith("ABC123", "Scenic Loop", "Hello world"))

	ex, ok := Parse(text)
	require.True(t, ok)
	assert.NoError(t, ex.FrontMatterErr)
	assert.Equal(t, "ABC123", ex.ShortCode)
	assert.Equal(t, "Scenic Loop", ex.Subtitle)
	assert.Equal(t, "Hello world", ex.Description)
	require.NotNil(t, ex.FrontMatter)
	assert.Equal(t, "555", ex.FrontMatter.WebsiteID)
}

func TestRoundTrip_MultilineDescription(t *testing.T) {
	desc := "First paragraph.\n\n> quoted line\nLast line."
	text := renderView(t, viewWith("ABC123", "Sub", desc))

	ex, ok := Parse(text)
	require.True(t, ok)
	assert.Equal(t, desc, ex.Description)
}

func TestRoundTrip_TruncatedDescription(t *testing.T) {
	desc := strings.Repeat("b", 2000)
	text := renderView(t, viewWith("ABC123", "Sub", desc))
	assert.Contains(t, text, strings.Repeat("b", render.DescriptionLimit)+render.ContinuationMarker)

	ex, ok := Parse(text)
	require.True(t, ok)
	assert.Equal(t, strings.Repeat("b", render.DescriptionLimit), ex.Description)
}

func TestParse_NotATourDocument(t *testing.T) {
	_, ok := Parse("# Meeting notes\n\nNothing here.")
	assert.False(t, ok)
}

func TestParse_IdentityTableOnly(t *testing.T) {
	text := "# Legacy\n\n| Arctic Code | System Status | Last Updated |\n| :--- | :--- | :--- |\n" +
		"| **  XYZ9 ** | Synced | 2024-01-01 00:00 |\n\n**Subtitle:** Old subtitle  **Region:** Moab\n"

	ex, ok := Parse(text)
	require.True(t, ok)
	assert.Nil(t, ex.FrontMatter)
	assert.Equal(t, "XYZ9", ex.ShortCode)
	assert.Equal(t, "Old subtitle", ex.Subtitle)
	assert.Equal(t, "", ex.Description)
}

func TestParse_FrontMatterWinsOverTable(t *testing.T) {
	text := renderView(t, viewWith("ABC123", "S", "D"))
	text = strings.Replace(text, "| **ABC123** |", "| **EDITED** |", 1)

	ex, ok := Parse(text)
	require.True(t, ok)
	assert.Equal(t, "ABC123", ex.ShortCode)
}

func TestParse_InvalidFrontMatterFallsBack(t *testing.T) {
	text := renderView(t, viewWith("ABC123", "S", "D"))
	text = strings.Replace(text, "schema_version: 1", "schema_version: zero", 1)

	ex, ok := Parse(text)
	require.True(t, ok)
	require.Error(t, ex.FrontMatterErr)
	assert.Contains(t, ex.FrontMatterErr.Error(), "INVALID_FRONT_MATTER")
	assert.Equal(t, "ABC123", ex.ShortCode)
}

func TestPropose(t *testing.T) {
	tests := []struct {
		name     string
		ex       Extraction
		policy   Policy
		wantErr  error
		subtitle *string
		desc     *string
	}{
		{name: "both fields", ex: Extraction{ShortCode: "ABC", Subtitle: "S", Description: "D"}, subtitle: strPtr("S"), desc: strPtr("D")},
		{name: "empty subtitle unchanged", ex: Extraction{ShortCode: "ABC", Description: "D"}, desc: strPtr("D")},
		{name: "both empty suppressed", ex: Extraction{ShortCode: "ABC"}, wantErr: ErrEmptyExtraction},
		{name: "allow clear", ex: Extraction{ShortCode: "ABC"}, policy: Policy{AllowClear: true}, subtitle: strPtr(""), desc: strPtr("")},
		{name: "missing code", ex: Extraction{ShortCode: "N/A", Subtitle: "S"}, wantErr: ErrInvalidShortCode},
		{name: "empty code", ex: Extraction{Subtitle: "S"}, wantErr: ErrInvalidShortCode},
		{name: "path in code", ex: Extraction{ShortCode: "../admin", Subtitle: "S"}, wantErr: ErrInvalidShortCode},
		{name: "space in code", ex: Extraction{ShortCode: "AB C", Subtitle: "S"}, wantErr: ErrInvalidShortCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Propose(&tt.ex, tt.policy)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ex.ShortCode, p.ShortCode)
			assert.Equal(t, tt.subtitle, p.Subtitle)
			assert.Equal(t, tt.desc, p.Description)
		})
	}
}

func strPtr(s string) *string { return &s }

type fakeDocuments struct {
	docs    []models.ExternalDocument
	listErr error
	panicOn string
}

func (f *fakeDocuments) List(context.Context) ([]models.ExternalDocument, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.ExternalDocument, len(f.docs))
	for i, d := range f.docs {
		out[i] = models.ExternalDocument{ID: d.ID, Title: d.Title}
	}
	return out, nil
}

func (f *fakeDocuments) Info(_ context.Context, id string) (*models.ExternalDocument, error) {
	if id == f.panicOn {
		panic("corrupt document")
	}
	for _, d := range f.docs {
		if d.ID == id {
			doc := d
			return &doc, nil
		}
	}
	return nil, errors.New("not found")
}

type fakeUpstream struct {
	calls  map[string]arctic.TourUpdate
	failOn string
}

func (f *fakeUpstream) UpdateTourByShortname(_ context.Context, code string, u arctic.TourUpdate) error {
	if code == f.failOn {
		return fmt.Errorf("status 500: boom")
	}
	if f.calls == nil {
		f.calls = map[string]arctic.TourUpdate{}
	}
	f.calls[code] = u
	return nil
}

func TestSyncer_Run(t *testing.T) {
	docs := &fakeDocuments{
		docs: []models.ExternalDocument{
			{ID: "d1", Title: "Scenic Loop", Text: renderView(t, viewWith("ABC123", "Scenic Loop", "Hello world"))},
			{ID: "d2", Title: "Notes", Text: "# Notes"},
			{ID: "d3", Title: "No code", Text: renderView(t, viewWith("", "S", "D"))},
			{ID: "d4", Title: "Empty", Text: renderView(t, viewWith("EMPTY1", "", ""))},
			{ID: "d5", Title: "Failing", Text: renderView(t, viewWith("FAIL1", "S", "D"))},
			{ID: "d6", Title: "Corrupt"},
		},
		panicOn: "d6",
	}
	upstream := &fakeUpstream{failOn: "FAIL1"}

	s := NewSyncer(docs, upstream, Policy{}, logger.NewTestLogger(t))
	res, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 6, res.Documents)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Rejected)
	assert.Equal(t, 1, res.Suppressed)
	assert.Equal(t, 2, res.Failed)

	update := upstream.calls["ABC123"]
	require.NotNil(t, update.Subtitle)
	assert.Equal(t, "Scenic Loop", *update.Subtitle)
	require.NotNil(t, update.Description)
	assert.Equal(t, "Hello world", *update.Description)
	assert.Equal(t, arctic.SyncSource, update.SyncSource)
}

func TestSyncer_ListFailure(t *testing.T) {
	s := NewSyncer(&fakeDocuments{listErr: errors.New("unauthorized")}, &fakeUpstream{}, Policy{}, logger.NewNoOpLogger())
	_, err := s.Run(context.Background())
	assert.ErrorContains(t, err, "DOCUMENT_STORE_FAILED")
}
