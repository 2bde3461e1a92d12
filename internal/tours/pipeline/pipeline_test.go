package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tour-sync/internal/common/config"
	"tour-sync/internal/common/logger"
	"tour-sync/internal/models"
	"tour-sync/internal/tours/docsync"
	"tour-sync/internal/tours/merge"
	"tour-sync/internal/tours/render"
	"tour-sync/internal/tours/report"
	"tour-sync/internal/tours/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory canonical store.
type memStore struct {
	tourOrder []string
	tours     map[string]models.Tour
	content   map[string]models.SupplementaryContent
	links     map[string]models.ContentLink
	runs      []store.Run
}

func newMemStore() *memStore {
	return &memStore{
		tours:   map[string]models.Tour{},
		content: map[string]models.SupplementaryContent{},
		links:   map[string]models.ContentLink{},
	}
}

func (m *memStore) UpsertTour(_ context.Context, t models.Tour) error {
	if _, ok := m.tours[t.ArcticID]; !ok {
		m.tourOrder = append(m.tourOrder, t.ArcticID)
	}
	prev := m.tours[t.ArcticID]
	t.OutlineDocumentID = prev.OutlineDocumentID
	m.tours[t.ArcticID] = t
	return nil
}

func (m *memStore) UpsertContent(_ context.Context, c models.SupplementaryContent) error {
	m.content[c.WebsiteID] = c
	return nil
}

func (m *memStore) ListTourKeys(context.Context) ([]models.KeyedName, error) {
	var out []models.KeyedName
	for _, id := range m.tourOrder {
		out = append(out, models.KeyedName{Key: id, Name: m.tours[id].MasterName})
	}
	return out, nil
}

func (m *memStore) ListContentKeys(context.Context) ([]models.KeyedName, error) {
	var out []models.KeyedName
	for id, c := range m.content {
		out = append(out, models.KeyedName{Key: id, Name: c.MasterName})
	}
	return out, nil
}

func (m *memStore) ListLinks(context.Context) (map[string]models.ContentLink, error) {
	return m.links, nil
}

func (m *memStore) UpsertLink(_ context.Context, l models.ContentLink) error {
	m.links[l.ArcticID] = l
	return nil
}

func (m *memStore) ListJoined(context.Context) ([]store.Joined, error) {
	var out []store.Joined
	for _, id := range m.tourOrder {
		j := store.Joined{Tour: m.tours[id]}
		if l, ok := m.links[id]; ok && l.Status == models.LinkResolved {
			c := m.content[l.WebsiteID]
			j.Content = &c
		}
		out = append(out, j)
	}
	return out, nil
}

func (m *memStore) SetDocumentID(_ context.Context, arcticID, documentID string) error {
	t := m.tours[arcticID]
	t.OutlineDocumentID = documentID
	m.tours[arcticID] = t
	return nil
}

func (m *memStore) RecordRun(_ context.Context, r store.Run) error {
	m.runs = append(m.runs, r)
	return nil
}

// memDocs is an in-memory document store.
type memDocs struct {
	docs    []models.ExternalDocument
	creates int
}

func (d *memDocs) List(context.Context) ([]models.ExternalDocument, error) {
	return d.docs, nil
}

func (d *memDocs) Create(_ context.Context, collectionID, title, text string) (*models.ExternalDocument, error) {
	d.creates++
	doc := models.ExternalDocument{ID: fmt.Sprintf("doc-%d", d.creates), Title: title, Text: text, CollectionID: collectionID}
	d.docs = append(d.docs, doc)
	return &doc, nil
}

func (d *memDocs) Update(_ context.Context, id, title, text string) (*models.ExternalDocument, error) {
	for i := range d.docs {
		if d.docs[i].ID == id {
			d.docs[i].Title, d.docs[i].Text = title, text
			doc := d.docs[i]
			return &doc, nil
		}
	}
	return nil, fmt.Errorf("document %s not found", id)
}

type fakeMailer struct {
	body string
}

func (f *fakeMailer) SendText(_ context.Context, _ string, _ []string, _, body string) (string, error) {
	f.body = body
	return "mail-1", nil
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func newTestPipeline(t *testing.T, sources config.SourcesConfig) (*Pipeline, *memStore, *memDocs, *fakeMailer) {
	t.Helper()
	log := logger.NewTestLogger(t)
	st, docs, mailer := newMemStore(), &memDocs{}, &fakeMailer{}

	var notif config.NotificationConfig
	notif.SES.Enabled, notif.SES.From, notif.SES.To = true, "ops@example.com", []string{"team@example.com"}

	renderer := &render.Renderer{Now: func() time.Time { return time.Unix(0, 0).UTC() }}
	synchronizer := docsync.NewSynchronizer(docs, nil, docsync.NewRouter(config.CollectionsConfig{}), log)

	p := New(Deps{
		Sources:   sources,
		Merger:    merge.NewMerger(st, log),
		Publisher: docsync.NewPublisher(st, renderer, synchronizer, nil, log),
		Ledger:    st,
		Notifier:  report.NewNotifier(notif, mailer, nil, log),
		Logger:    log,
	})
	return p, st, docs, mailer
}

func testSources(t *testing.T) config.SourcesConfig {
	dir := t.TempDir()
	return config.SourcesConfig{
		TripTypesCSV: writeFile(t, dir, "trips.csv",
			"id,name,shortname,duration,businessgroupid\n"+
				"1,White Rim,WR4,4 days,3\n"+
				"2,Maze Private,MZP,3 days,10\n"+
				"3,Fruita Singletrack,FS2,2 days,3\n"),
		PricingCSV: writeFile(t, dir, "pricing.csv",
			"Arctic_ID,Price_Name,Amount\n"+
				"1,Adult,1299\n"+
				"2,Child,500\n"),
		WebsiteCSV: writeFile(t, dir, "website.csv",
			"ID,Title,subtitle\n"+
				"1,White Rim,Four days on the rim\n"+
				"50,maze private,The remote district\n"),
	}
}

func TestDaily(t *testing.T) {
	p, st, docs, mailer := newTestPipeline(t, testSources(t))

	rep, err := p.Daily(context.Background())
	require.NoError(t, err)

	require.Len(t, rep.Stages, 3)
	assert.Equal(t, merge.StageInventory, rep.Stages[0].Stage)
	assert.Equal(t, 3, rep.Stages[0].Processed)
	assert.Equal(t, 2, rep.Stages[1].Processed)
	assert.Equal(t, 3, rep.Stages[2].Processed)

	require.Len(t, rep.LinkIssues, 1)
	assert.Equal(t, "3", rep.LinkIssues[0].ArcticID)
	assert.True(t, rep.HasProblems())

	assert.Equal(t, "$1,299", st.tours["1"].Price)
	assert.Equal(t, models.PriceUnknown, st.tours["2"].Price)
	assert.Equal(t, models.VariantPrivate, st.tours["2"].VariantType)
	assert.Equal(t, "50", st.links["2"].WebsiteID)
	assert.Equal(t, models.LinkByTitle, st.links["2"].Method)

	assert.Equal(t, 3, docs.creates)
	assert.Equal(t, "doc-1", st.tours["1"].OutlineDocumentID)
	assert.Contains(t, docs.docs[0].Text, "Four days on the rim")

	require.Len(t, st.runs, 3)
	for _, run := range st.runs {
		assert.Equal(t, rep.RunID, run.RunID)
	}
	assert.Contains(t, mailer.body, "Fruita Singletrack")
}

func TestDaily_SecondRunUpdatesInPlace(t *testing.T) {
	p, _, docs, _ := newTestPipeline(t, testSources(t))

	_, err := p.Daily(context.Background())
	require.NoError(t, err)
	rep, err := p.Daily(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, docs.creates)
	assert.Len(t, docs.docs, 3)
	assert.Equal(t, 0, rep.Stages[2].Failed)
}

func TestDaily_FailedStageDoesNotStopRun(t *testing.T) {
	sources := testSources(t)
	sources.WebsiteCSV = filepath.Join(t.TempDir(), "missing.csv")
	p, st, docs, _ := newTestPipeline(t, sources)

	rep, err := p.Daily(context.Background())
	require.NoError(t, err)

	require.Len(t, rep.Stages, 3)
	assert.Contains(t, rep.Stages[1].Error, "SOURCE_READ_FAILED")
	assert.Equal(t, 3, docs.creates)
	assert.NotEmpty(t, st.runs[1].Error)
}

func TestReverseSync_NotConfigured(t *testing.T) {
	p, _, _, _ := newTestPipeline(t, testSources(t))
	_, err := p.ReverseSync(context.Background())
	assert.Error(t, err)
}
