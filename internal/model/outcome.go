package model

// StageStatus classifies the result of one stage for one contact.
type StageStatus string

const (
	StageSucceeded StageStatus = "succeeded"
	StageFailed    StageStatus = "failed"
	StageSkipped   StageStatus = "skipped"
	StageCancelled StageStatus = "cancelled"
)

// Skip reasons recorded on StageOutcome.
const (
	SkipNotRequested = "stage not requested"
	SkipNoEmail      = "contact has no email"
	SkipNotVerified  = "push requires verified email"
)

// StageOutcome is the tagged per-contact, per-stage result.
type StageOutcome struct {
	Status StageStatus `json:"status"`
	Reason string      `json:"reason,omitempty"`
}

// Succeeded returns a succeeded outcome.
func Succeeded() StageOutcome {
	return StageOutcome{Status: StageSucceeded}
}

// Failed returns a failed outcome with the given reason.
func Failed(reason string) StageOutcome {
	return StageOutcome{Status: StageFailed, Reason: reason}
}

// Skipped returns a skipped outcome with the given reason.
func Skipped(reason string) StageOutcome {
	return StageOutcome{Status: StageSkipped, Reason: reason}
}

// Cancelled returns a cancelled outcome.
func Cancelled() StageOutcome {
	return StageOutcome{Status: StageCancelled, Reason: "run cancelled"}
}
