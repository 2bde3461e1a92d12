// Package arctic is a client for the Arctic reservation system's tour endpoint.
package arctic

import (
	"context"
	"net/http"
	"net/url"
	"time"

	httpclient "tour-sync/internal/common/http"
)

// SyncSource tags updates that originate from edited documents.
const SyncSource = "outline_update"

// TourUpdate is the partial update body. Nil fields are omitted from the payload.
type TourUpdate struct {
	Description *string `json:"description,omitempty"`
	Subtitle    *string `json:"subtitle,omitempty"`
	SyncSource  string  `json:"sync_source"`
}

type Client struct {
	api *httpclient.Client
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{api: httpclient.NewClient(baseURL, token, timeout)}
}

// UpdateTourByShortname sends PUT /tours/shortname/{code}. A non-2xx response is
// returned as *http.APIError with the body attached.
func (c *Client) UpdateTourByShortname(ctx context.Context, shortCode string, update TourUpdate) error {
	if update.SyncSource == "" {
		update.SyncSource = SyncSource
	}
	path := "/tours/shortname/" + url.PathEscape(shortCode)
	return c.api.DoJSON(ctx, http.MethodPut, path, update, nil)
}
