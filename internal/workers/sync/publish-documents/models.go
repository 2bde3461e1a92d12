package publishdocuments

import "tour-sync/internal/tours/docsync"

type Input struct {
	RunID string `json:"runId,omitempty"`
}

type Output struct {
	PublishResult *docsync.PublishResult `json:"publishResult"`
}
