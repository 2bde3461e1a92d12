package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "tour-sync/internal/common/errors"
	"tour-sync/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	body   map[string]interface{}
}

func newTestIndexer(t *testing.T, status int) (*Indexer, *[]recorded) {
	t.Helper()
	var calls []recorded
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path}
		_ = json.NewDecoder(r.Body).Decode(&rec.body)
		calls = append(calls, rec)

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)

	idx := NewIndexer(client, "tours")
	idx.now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	return idx, &calls
}

func testView() models.TourView {
	return models.TourView{
		Tour: models.Tour{ArcticID: "123", MasterName: "White Rim", Shortname: "WR4", Price: "$1,299"},
		Content: models.SupplementaryContent{
			Region: "Canyonlands",
			Images: []string{"a.jpg"},
		},
		ContentLinked: true,
	}
}

func TestIndexer_Index(t *testing.T) {
	idx, calls := newTestIndexer(t, http.StatusCreated)

	require.NoError(t, idx.Index(context.Background(), testView(), "doc-1"))
	require.Len(t, *calls, 1)

	call := (*calls)[0]
	assert.Equal(t, http.MethodPut, call.method)
	assert.Equal(t, "/tours/_doc/123", call.path)
	assert.Equal(t, "White Rim", call.body["name"])
	assert.Equal(t, "WR4", call.body["short_code"])
	assert.Equal(t, "doc-1", call.body["document_id"])
	assert.Equal(t, "Canyonlands", call.body["region"])
	assert.Equal(t, true, call.body["content_linked"])
	assert.Equal(t, "2024-05-01T00:00:00Z", call.body["indexed_at"])
}

func TestIndexer_IndexRejected(t *testing.T) {
	idx, _ := newTestIndexer(t, http.StatusBadRequest)

	err := idx.Index(context.Background(), testView(), "doc-1")
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeSearchIndexFailed, apperrors.CodeOf(err))
}

func TestIndexer_DeleteMissingIsNotAnError(t *testing.T) {
	idx, calls := newTestIndexer(t, http.StatusNotFound)

	require.NoError(t, idx.Delete(context.Background(), "123"))
	assert.Equal(t, http.MethodDelete, (*calls)[0].method)
	assert.Equal(t, "/tours/_doc/123", (*calls)[0].path)
}
