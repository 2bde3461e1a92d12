package merge

import (
	"context"
	"errors"
	"testing"
	"time"

	"tour-sync/internal/common/logger"
	"tour-sync/internal/models"
	"tour-sync/internal/tours/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariantFor(t *testing.T) {
	for _, group := range []string{"9", "10", "11", "12"} {
		assert.Equal(t, models.VariantPrivate, VariantFor(group), group)
	}
	for _, group := range []string{"3", "", "90", "1"} {
		assert.Equal(t, models.VariantStandard, VariantFor(group), group)
	}
}

func TestPriceIndex_Resolve(t *testing.T) {
	idx := NewPriceIndex([]models.Row{
		{"Arctic_ID": "101", "Price_Name": "Deposit", "Amount": "100"},
		{"Arctic_ID": "101", "Price_Name": "ADULT rate", "Amount": "1299"},
		{"Arctic_ID": "101", "Price_Name": "Standard", "Amount": "999"},
		{"Arctic_ID": "102", "Price_Name": "Child", "Amount": "50"},
		{"Arctic_ID": "103", "Price_Name": "Standard", "Amount": "n/a"},
		{"Price_Name": "Standard", "Amount": "1"},
	})

	assert.Equal(t, "$1,299", idx.Resolve("101"))
	assert.Equal(t, models.PriceUnknown, idx.Resolve("102"))
	assert.Equal(t, models.PriceUnknown, idx.Resolve("103"))
	assert.Equal(t, models.PriceUnknown, idx.Resolve("404"))
	assert.Len(t, idx, 3)
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$199", FormatPrice("199"))
	assert.Equal(t, "$1,299", FormatPrice(" 1299.4 "))
	assert.Equal(t, "$12,500", FormatPrice("12500.00"))
	assert.Equal(t, models.PriceUnknown, FormatPrice(""))
	assert.Equal(t, models.PriceUnknown, FormatPrice("NaN"))
}

func TestBuildTour(t *testing.T) {
	prices := NewPriceIndex(nil)

	tour, ok := BuildTour(models.Row{"id": "7", "name": "Private Moab", "businessgroupid": "9"}, prices)
	require.True(t, ok)
	assert.Equal(t, models.VariantPrivate, tour.VariantType)
	assert.Equal(t, models.PriceUnknown, tour.Price)
	assert.Equal(t, "", tour.Shortname)

	_, ok = BuildTour(models.Row{"name": "No id"}, prices)
	assert.False(t, ok)
}

func TestJoin_InventoryWinsPrice(t *testing.T) {
	tour := models.Tour{ArcticID: "101", MasterName: "Scenic Loop", Price: "$199"}
	content := &models.SupplementaryContent{WebsiteID: "101", MasterName: "scenic  loop", PricingInfo: "$149", Subtitle: "Hello"}

	view := Join(tour, content)
	assert.True(t, view.ContentLinked)
	assert.Equal(t, "$199", view.Tour.Price)
	assert.Equal(t, "", view.Content.PricingInfo)
	assert.Equal(t, "Hello", view.Content.Subtitle)
	require.Len(t, view.Conflicts, 1)
	assert.Equal(t, models.Conflict{Field: "price", Winner: "$199", Discarded: "$149"}, view.Conflicts[0])
}

func TestJoin_LastUpdatedFallsBackToContent(t *testing.T) {
	synced := time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC)
	view := Join(models.Tour{ArcticID: "1"}, &models.SupplementaryContent{LastSynced: &synced})
	require.NotNil(t, view.LastUpdated)
	assert.Equal(t, synced, *view.LastUpdated)

	view = Join(models.Tour{ArcticID: "1"}, nil)
	assert.False(t, view.ContentLinked)
	assert.Nil(t, view.LastUpdated)
}

func TestAuthorityFor(t *testing.T) {
	assert.Equal(t, SourceInventory, AuthorityFor("price"))
	assert.Equal(t, SourceContent, AuthorityFor("description"))
	assert.Equal(t, Source(""), AuthorityFor("season"))
}

func TestIngestInventory_IdempotentUpsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	trips := []models.Row{
		{"id": "101", "name": "Scenic Loop", "shortname": "ABC123", "duration": "3 days", "businessgroupid": "3"},
		{"name": "missing id"},
	}
	pricing := []models.Row{{"Arctic_ID": "101", "Price_Name": "Standard", "Amount": "1299"}}

	for i := 0; i < 2; i++ {
		mock.ExpectExec(`INSERT INTO tours`).
			WithArgs("101", "Scenic Loop", "ABC123", "$1,299", "3 days", "3", "Standard").
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	m := NewMerger(store.New(db), logger.NewTestLogger(t))
	for i := 0; i < 2; i++ {
		res, err := m.IngestInventory(context.Background(), trips, pricing)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Processed)
		assert.Equal(t, 1, res.Skipped)
		assert.Equal(t, 0, res.Failed)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIngestInventory_ContinuesAfterRowFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO tours`).WithArgs("1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectExec(`INSERT INTO tours`).WithArgs("2", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	m := NewMerger(store.New(db), logger.NewNoOpLogger())
	res, err := m.IngestInventory(context.Background(), []models.Row{{"id": "1"}, {"id": "2"}}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "STORE_WRITE_FAILED")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIngestContent(t *testing.T) {
	repo := newFakeRepo()
	m := NewMerger(repo, logger.NewNoOpLogger())

	res, err := m.IngestContent(context.Background(), []models.Row{
		{"ID": "555", "Title": "White Rim", "Image URL": "http://x/a.jpg"},
		{"Title": "no id"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []string{"a.jpg"}, repo.contents["555"].Images)
}

type fakeRepo struct {
	tours    []models.KeyedName
	contents map[string]models.SupplementaryContent
	links    map[string]models.ContentLink
	linkErr  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{contents: map[string]models.SupplementaryContent{}, links: map[string]models.ContentLink{}}
}

func (f *fakeRepo) UpsertTour(_ context.Context, t models.Tour) error {
	f.tours = append(f.tours, models.KeyedName{Key: t.ArcticID, Name: t.MasterName})
	return nil
}

func (f *fakeRepo) UpsertContent(_ context.Context, c models.SupplementaryContent) error {
	f.contents[c.WebsiteID] = c
	return nil
}

func (f *fakeRepo) ListTourKeys(context.Context) ([]models.KeyedName, error) {
	return f.tours, nil
}

func (f *fakeRepo) ListContentKeys(context.Context) ([]models.KeyedName, error) {
	var out []models.KeyedName
	for id, c := range f.contents {
		out = append(out, models.KeyedName{Key: id, Name: c.MasterName})
	}
	return out, nil
}

func (f *fakeRepo) ListLinks(context.Context) (map[string]models.ContentLink, error) {
	return f.links, nil
}

func (f *fakeRepo) UpsertLink(_ context.Context, l models.ContentLink) error {
	if f.linkErr != nil {
		return f.linkErr
	}
	f.links[l.ArcticID] = l
	return nil
}

func TestReconcileLinks(t *testing.T) {
	repo := newFakeRepo()
	repo.tours = []models.KeyedName{
		{Key: "101", Name: "Scenic Loop"},
		{Key: "102", Name: "White Rim"},
		{Key: "103", Name: "Maze"},
		{Key: "104", Name: "Nowhere"},
		{Key: "105", Name: "Slickrock"},
	}
	for _, c := range []models.SupplementaryContent{
		{WebsiteID: "101", MasterName: "Something else"},
		{WebsiteID: "900", MasterName: "white rim"},
		{WebsiteID: "901", MasterName: "Maze"},
		{WebsiteID: "902", MasterName: "MAZE"},
		{WebsiteID: "903", MasterName: "Slickrock Trail"},
	} {
		repo.contents[c.WebsiteID] = c
	}
	repo.links["105"] = models.ContentLink{ArcticID: "105", WebsiteID: "903", Status: models.LinkResolved, Method: models.LinkByManual}

	m := NewMerger(repo, logger.NewTestLogger(t))
	report, err := m.ReconcileLinks(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.LinkByID, repo.links["101"].Method)
	assert.Equal(t, "900", repo.links["102"].WebsiteID)
	assert.Equal(t, models.LinkByTitle, repo.links["102"].Method)
	assert.Equal(t, models.LinkAmbiguous, repo.links["103"].Status)
	assert.Equal(t, models.LinkUnresolved, repo.links["104"].Status)
	assert.Equal(t, "903", repo.links["105"].WebsiteID)
	assert.Equal(t, models.LinkByManual, repo.links["105"].Method)

	assert.Equal(t, 3, report.Resolved)
	assert.Equal(t, 2, report.Unresolved())
	require.Len(t, report.Issues, 2)
	assert.ElementsMatch(t, []string{"901", "902"}, report.Issues[0].Candidates)
}

func TestReconcileLinks_StaleLinkIsRecomputed(t *testing.T) {
	repo := newFakeRepo()
	repo.tours = []models.KeyedName{{Key: "101", Name: "Scenic Loop"}}
	repo.links["101"] = models.ContentLink{ArcticID: "101", WebsiteID: "gone", Status: models.LinkResolved, Method: models.LinkByTitle}

	m := NewMerger(repo, logger.NewNoOpLogger())
	report, err := m.ReconcileLinks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.LinkUnresolved, repo.links["101"].Status)
	assert.Equal(t, 0, report.Resolved)
}

func TestReconcileLinks_WriteFailureCounted(t *testing.T) {
	repo := newFakeRepo()
	repo.tours = []models.KeyedName{{Key: "101", Name: "Scenic Loop"}}
	repo.linkErr = errors.New("db down")

	m := NewMerger(repo, logger.NewNoOpLogger())
	report, err := m.ReconcileLinks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
}
