// Package outline is a client for the Outline document store API.
package outline

import (
	"context"
	"errors"
	"net/http"
	"time"

	httpclient "tour-sync/internal/common/http"
	"tour-sync/internal/models"
)

const defaultPageSize = 100

// ErrNotFound is returned by Info and Update when the document id does not exist.
var ErrNotFound = errors.New("DOCUMENT_NOT_FOUND")

// Client talks to the documents.* RPC endpoints. Every call is a POST with a JSON body.
type Client struct {
	api      *httpclient.Client
	pageSize int
}

func NewClient(baseURL, token string, timeout time.Duration, pageSize int) *Client {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Client{
		api:      httpclient.NewClient(baseURL, token, timeout),
		pageSize: pageSize,
	}
}

type document struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Text         string `json:"text"`
	CollectionID string `json:"collectionId"`
}

func (d document) toModel() models.ExternalDocument {
	return models.ExternalDocument{
		ID:           d.ID,
		Title:        d.Title,
		Text:         d.Text,
		CollectionID: d.CollectionID,
	}
}

type listResponse struct {
	Data       []document `json:"data"`
	Pagination struct {
		Offset int `json:"offset"`
		Limit  int `json:"limit"`
	} `json:"pagination"`
}

type documentResponse struct {
	Data document `json:"data"`
}

// List returns every document visible to the token, following pagination until a
// short page is returned.
func (c *Client) List(ctx context.Context) ([]models.ExternalDocument, error) {
	var out []models.ExternalDocument
	offset := 0
	for {
		var resp listResponse
		payload := map[string]interface{}{
			"offset": offset,
			"limit":  c.pageSize,
		}
		if err := c.api.DoJSON(ctx, http.MethodPost, "/documents.list", payload, &resp); err != nil {
			return nil, err
		}
		for _, d := range resp.Data {
			out = append(out, d.toModel())
		}
		if len(resp.Data) < c.pageSize {
			return out, nil
		}
		offset += len(resp.Data)
	}
}

// Info fetches one document with its full text.
func (c *Client) Info(ctx context.Context, id string) (*models.ExternalDocument, error) {
	var resp documentResponse
	err := c.api.DoJSON(ctx, http.MethodPost, "/documents.info", map[string]string{"id": id}, &resp)
	if err != nil {
		if httpclient.IsStatus(err, http.StatusNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	doc := resp.Data.toModel()
	return &doc, nil
}

// Create publishes a new document into collectionID and returns it.
func (c *Client) Create(ctx context.Context, collectionID, title, text string) (*models.ExternalDocument, error) {
	payload := map[string]interface{}{
		"collectionId": collectionID,
		"title":        title,
		"text":         text,
		"publish":      true,
	}
	var resp documentResponse
	if err := c.api.DoJSON(ctx, http.MethodPost, "/documents.create", payload, &resp); err != nil {
		return nil, err
	}
	doc := resp.Data.toModel()
	return &doc, nil
}

// Update replaces title and text of an existing document in place.
func (c *Client) Update(ctx context.Context, id, title, text string) (*models.ExternalDocument, error) {
	payload := map[string]interface{}{
		"id":      id,
		"title":   title,
		"text":    text,
		"publish": true,
	}
	var resp documentResponse
	if err := c.api.DoJSON(ctx, http.MethodPost, "/documents.update", payload, &resp); err != nil {
		if httpclient.IsStatus(err, http.StatusNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	doc := resp.Data.toModel()
	if doc.ID == "" {
		doc.ID = id
	}
	return &doc, nil
}
