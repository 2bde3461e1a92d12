package ingestcontent

import "tour-sync/internal/tours/merge"

type Input struct {
	RunID string `json:"runId,omitempty"`
}

type Output struct {
	ContentResult   *merge.Result     `json:"contentResult"`
	Links           *merge.LinkReport `json:"links,omitempty"`
	UnresolvedLinks int               `json:"unresolvedLinks"`
}
