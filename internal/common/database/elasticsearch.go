package database

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"tour-sync/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

// TourIndexMapping is applied when the tour index is created. Prices stay keywords
// because they are rendered strings such as "$1,299" or "TBD".
const TourIndexMapping = `{
  "mappings": {
    "properties": {
      "arctic_id":         {"type": "keyword"},
      "name":              {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "short_code":        {"type": "keyword"},
      "price":             {"type": "keyword"},
      "duration":          {"type": "keyword"},
      "variant":           {"type": "keyword"},
      "region":            {"type": "keyword"},
      "skill_level":       {"type": "keyword"},
      "season":            {"type": "keyword"},
      "subtitle":          {"type": "text"},
      "short_description": {"type": "text"},
      "images":            {"type": "keyword"},
      "document_id":       {"type": "keyword"},
      "content_linked":    {"type": "boolean"},
      "indexed_at":        {"type": "date"}
    }
  }
}`

// ElasticsearchClient holds the search cluster client and the tour index name.
type ElasticsearchClient struct {
	Client *elasticsearch.Client
	Index  string
}

// NewElasticsearch returns nil, nil when no addresses are configured.
func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client: %w", err)
	}
	return &ElasticsearchClient{Client: es, Index: cfg.Index}, nil
}

func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	res, err := c.Client.Ping(c.Client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: %s", res.Status())
	}
	return nil
}

// EnsureIndex creates the tour index with TourIndexMapping unless it exists.
func (c *ElasticsearchClient) EnsureIndex(ctx context.Context) (bool, error) {
	res, err := c.Client.Indices.Exists([]string{c.Index}, c.Client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("index %s exists check: %w", c.Index, err)
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return false, nil
	case http.StatusNotFound:
	default:
		return false, fmt.Errorf("index %s exists check: %s", c.Index, res.Status())
	}

	res, err = c.Client.Indices.Create(
		c.Index,
		c.Client.Indices.Create.WithBody(strings.NewReader(TourIndexMapping)),
		c.Client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return false, fmt.Errorf("index %s create: %w", c.Index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return false, fmt.Errorf("index %s create: %s: %s", c.Index, res.Status(), strings.TrimSpace(string(body)))
	}
	return true, nil
}
