// Package report summarizes a sync run and delivers the summary to operators.
package report

import (
	"fmt"
	"strings"
	"time"

	"tour-sync/internal/tours/docsync"
	"tour-sync/internal/tours/merge"

	"github.com/google/uuid"
)

// StageSummary is the outcome of one stage of a run.
type StageSummary struct {
	Stage     string        `json:"stage"`
	Processed int           `json:"processed"`
	Skipped   int           `json:"skipped"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

func (s StageSummary) failed() bool {
	return s.Failed > 0 || s.Error != ""
}

type SyncReport struct {
	RunID      uuid.UUID               `json:"runId"`
	StartedAt  time.Time               `json:"startedAt"`
	FinishedAt time.Time               `json:"finishedAt"`
	Stages     []StageSummary          `json:"stages"`
	LinkIssues []merge.LinkIssue       `json:"linkIssues,omitempty"`
	Conflicts  []docsync.ConflictEntry `json:"conflicts,omitempty"`
}

// HasProblems reports failed records, a failed stage or tours without website content.
func (r *SyncReport) HasProblems() bool {
	if len(r.LinkIssues) > 0 {
		return true
	}
	for _, s := range r.Stages {
		if s.failed() {
			return true
		}
	}
	return false
}

func (r *SyncReport) Subject() string {
	status := "OK"
	if r.HasProblems() {
		status = "ATTENTION"
	}
	return fmt.Sprintf("[tour-sync] %s run %s", status, r.StartedAt.UTC().Format("2006-01-02"))
}

// Text renders the plain-text report body.
func (r *SyncReport) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s\n", r.RunID)
	fmt.Fprintf(&b, "Started:  %s\n", r.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Finished: %s\n\n", r.FinishedAt.UTC().Format(time.RFC3339))

	b.WriteString("Stages\n")
	for _, s := range r.Stages {
		fmt.Fprintf(&b, "  %-10s processed=%d skipped=%d failed=%d (%s)\n",
			s.Stage, s.Processed, s.Skipped, s.Failed, s.Duration.Round(time.Millisecond))
		if s.Error != "" {
			fmt.Fprintf(&b, "             error: %s\n", s.Error)
		}
	}

	if len(r.LinkIssues) > 0 {
		fmt.Fprintf(&b, "\nTours without website content (%d)\n", len(r.LinkIssues))
		for _, issue := range r.LinkIssues {
			fmt.Fprintf(&b, "  %s %s [%s]", issue.ArcticID, issue.Name, issue.Status)
			if len(issue.Candidates) > 0 {
				fmt.Fprintf(&b, " candidates: %s", strings.Join(issue.Candidates, ", "))
			}
			b.WriteByte('\n')
		}
	}

	if len(r.Conflicts) > 0 {
		fmt.Fprintf(&b, "\nField conflicts resolved by authority (%d)\n", len(r.Conflicts))
		for _, c := range r.Conflicts {
			fmt.Fprintf(&b, "  %s %s: %s kept %q, discarded %q\n",
				c.ArcticID, c.Name, c.Conflict.Field, c.Conflict.Winner, c.Conflict.Discarded)
		}
	}
	return b.String()
}
