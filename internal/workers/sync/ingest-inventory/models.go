package ingestinventory

import (
	"time"

	"tour-sync/internal/tours/merge"
)

type Input struct {
	RunID string `json:"runId,omitempty"`
}

type Output struct {
	RunID           string        `json:"runId"`
	StartedAt       time.Time     `json:"startedAt"`
	InventoryResult *merge.Result `json:"inventoryResult"`
}
