package model

import "time"

// ContactResult is one contact annotated with its per-stage outcomes.
// Search is always succeeded for any contact present in a report.
type ContactResult struct {
	Contact Contact      `json:"contact"`
	Search  StageOutcome `json:"search"`
	Verify  StageOutcome `json:"verify"`
	Push    StageOutcome `json:"push"`
}

// Counts are the run-level tallies on a report.
type Counts struct {
	Requested      int `json:"requested"`
	Returned       int `json:"returned"`
	VerifiedOK     int `json:"verified_ok"`
	VerifiedFailed int `json:"verified_failed"`
	VerifySkipped  int `json:"verify_skipped"`
	PushedOK       int `json:"pushed_ok"`
	PushedFailed   int `json:"pushed_failed"`
	PushSkipped    int `json:"push_skipped"`
	Cancelled      int `json:"cancelled"`
}

// RunReport is the aggregated result of one pipeline run. Contacts appear at
// most once each, in the order the search stage discovered them.
type RunReport struct {
	RunID    string          `json:"run_id"`
	Query    Query           `json:"query"`
	Contacts []ContactResult `json:"contacts"`
	Counts   Counts          `json:"counts"`

	// Partial is set when search aborted after gathering at least one
	// contact; SearchError carries the abort reason.
	Partial     bool   `json:"partial,omitempty"`
	SearchError string `json:"search_error,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
}

// Tally recomputes Counts from the contact results.
func (r *RunReport) Tally() {
	c := Counts{Requested: r.Query.TotalRecords, Returned: len(r.Contacts)}
	for _, cr := range r.Contacts {
		switch cr.Verify.Status {
		case StageSucceeded:
			c.VerifiedOK++
		case StageFailed:
			c.VerifiedFailed++
		case StageSkipped:
			c.VerifySkipped++
		case StageCancelled:
			c.Cancelled++
		}
		switch cr.Push.Status {
		case StageSucceeded:
			c.PushedOK++
		case StageFailed:
			c.PushedFailed++
		case StageSkipped:
			c.PushSkipped++
		case StageCancelled:
			c.Cancelled++
		}
	}
	r.Counts = c
}
