package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReportTally(t *testing.T) {
	r := RunReport{
		Query: Query{TotalRecords: 5},
		Contacts: []ContactResult{
			{Verify: Succeeded(), Push: Succeeded()},
			{Verify: Failed("boom"), Push: Skipped(SkipNotVerified)},
			{Verify: Skipped(SkipNoEmail), Push: Skipped(SkipNoEmail)},
			{Verify: Cancelled(), Push: Cancelled()},
		},
	}
	r.Tally()

	assert.Equal(t, Counts{
		Requested:      5,
		Returned:       4,
		VerifiedOK:     1,
		VerifiedFailed: 1,
		VerifySkipped:  1,
		PushedOK:       1,
		PushedFailed:   0,
		PushSkipped:    2,
		Cancelled:      2,
	}, r.Counts)
}
