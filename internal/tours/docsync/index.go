package docsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tour-sync/internal/models"

	"github.com/redis/go-redis/v9"
)

// Lister returns every document in the store.
type Lister interface {
	List(ctx context.Context) ([]models.ExternalDocument, error)
}

// TitleIndex resolves an exact document title to its id.
type TitleIndex interface {
	Lookup(ctx context.Context, title string) (string, bool, error)
	Remember(ctx context.Context, title, id string) error
}

// ListingIndex scans the full listing on every lookup.
type ListingIndex struct {
	docs Lister
}

func NewListingIndex(docs Lister) *ListingIndex {
	return &ListingIndex{docs: docs}
}

func (l *ListingIndex) Lookup(ctx context.Context, title string) (string, bool, error) {
	docs, err := l.docs.List(ctx)
	if err != nil {
		return "", false, err
	}
	for _, d := range docs {
		if d.Title == title {
			return d.ID, true, nil
		}
	}
	return "", false, nil
}

func (l *ListingIndex) Remember(context.Context, string, string) error {
	return nil
}

// RedisTitleIndex caches the title listing in a redis hash for ttl. Documents created
// through this process are added to the cached hash.
type RedisTitleIndex struct {
	client *redis.Client
	docs   Lister
	key    string
	ttl    time.Duration
}

const DefaultIndexKey = "tour-sync:outline:titles"

func NewRedisTitleIndex(client *redis.Client, docs Lister, ttl time.Duration) *RedisTitleIndex {
	return &RedisTitleIndex{client: client, docs: docs, key: DefaultIndexKey, ttl: ttl}
}

func (r *RedisTitleIndex) Lookup(ctx context.Context, title string) (string, bool, error) {
	if err := r.ensureLoaded(ctx); err != nil {
		return "", false, err
	}
	id, err := r.client.HGet(ctx, r.key, title).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("title index lookup: %w", err)
	}
	return id, true, nil
}

func (r *RedisTitleIndex) Remember(ctx context.Context, title, id string) error {
	exists, err := r.client.Exists(ctx, r.key).Result()
	if err != nil {
		return fmt.Errorf("title index check: %w", err)
	}
	if exists == 0 {
		return nil
	}
	return r.client.HSet(ctx, r.key, title, id).Err()
}

// Invalidate drops the cached listing.
func (r *RedisTitleIndex) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, r.key).Err()
}

func (r *RedisTitleIndex) ensureLoaded(ctx context.Context) error {
	exists, err := r.client.Exists(ctx, r.key).Result()
	if err != nil {
		return fmt.Errorf("title index check: %w", err)
	}
	if exists > 0 {
		return nil
	}

	docs, err := r.docs.List(ctx)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	// first title wins, as with a linear scan
	titles := make(map[string]interface{}, len(docs))
	for _, d := range docs {
		if _, seen := titles[d.Title]; !seen {
			titles[d.Title] = d.ID
		}
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, r.key, titles)
	pipe.Expire(ctx, r.key, r.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("title index load: %w", err)
	}
	return nil
}
