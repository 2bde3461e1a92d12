package sendsyncreport

import (
	"time"

	"tour-sync/internal/tours/docsync"
	"tour-sync/internal/tours/merge"
)

// Input is the variable set accumulated by the stage workers of one run.
type Input struct {
	RunID           string                 `json:"runId"`
	StartedAt       time.Time              `json:"startedAt"`
	InventoryResult *merge.Result          `json:"inventoryResult,omitempty"`
	ContentResult   *merge.Result          `json:"contentResult,omitempty"`
	Links           *merge.LinkReport      `json:"links,omitempty"`
	PublishResult   *docsync.PublishResult `json:"publishResult,omitempty"`
}

type Output struct {
	EmailID  string `json:"emailId,omitempty"`
	AlertID  string `json:"alertId,omitempty"`
	Problems bool   `json:"problems"`
}
