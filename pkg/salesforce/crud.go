package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Lead is the subset of the Salesforce Lead object the sink reads back.
type Lead struct {
	ID    string `json:"Id" salesforce:"Id"`
	Email string `json:"Email" salesforce:"Email"`
}

// FindLeadByEmail queries Salesforce for a Lead with the given email.
// Returns nil when none exists.
func FindLeadByEmail(ctx context.Context, c Client, email string) (*Lead, error) {
	soql := fmt.Sprintf(
		"SELECT Id, Email FROM Lead WHERE Email = '%s' LIMIT 1",
		escapeSoql(email),
	)

	var leads []Lead
	if err := c.Query(ctx, soql, &leads); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("sf: find lead by email %s", email))
	}
	if len(leads) == 0 {
		return nil, nil
	}
	return &leads[0], nil
}

// UpsertLeadByEmail inserts the lead or, when one already exists with the
// same email, updates it. Returns the record id and whether an existing
// record was updated. Fields must include Email and LastName (Salesforce
// requires LastName and Company on Lead; callers fill placeholders when the
// source record lacks them).
func UpsertLeadByEmail(ctx context.Context, c Client, fields map[string]any) (string, bool, error) {
	email, _ := fields["Email"].(string)
	if email == "" {
		return "", false, eris.New("sf: lead Email is required")
	}

	existing, err := FindLeadByEmail(ctx, c, email)
	if err != nil {
		return "", false, err
	}

	if existing != nil {
		update := make(map[string]any, len(fields))
		for k, v := range fields {
			update[k] = v
		}
		if err := c.UpdateOne(ctx, "Lead", existing.ID, update); err != nil {
			return "", false, eris.Wrap(err, fmt.Sprintf("sf: update lead %s", existing.ID))
		}
		return existing.ID, true, nil
	}

	id, err := c.InsertOne(ctx, "Lead", fields)
	if err != nil {
		return "", false, eris.Wrap(err, "sf: create lead")
	}
	return id, false, nil
}

// escapeSoql escapes single quotes and backslashes in SOQL string literals.
func escapeSoql(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return s
}
