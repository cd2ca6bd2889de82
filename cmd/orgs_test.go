package main

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/pkg/apollo"
	"github.com/sells-group/leadgen-cli/pkg/hubspot"
)

func fastRetry() resilience.Policy {
	return resilience.Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Multiplier:  2.0,
	}
}

// fakeCRM serves canned upsert results keyed by the company name or contact
// email, and records associations.
type fakeCRM struct {
	companyErrs      map[string]error
	contactErrs      map[string]error
	assocErr         error
	companyCalls     int
	contactCalls     int
	associations     [][2]string
	transientBefore  int
	nextID           int
	updatedCompanies map[string]bool
}

func newFakeCRM() *fakeCRM {
	return &fakeCRM{
		companyErrs:      map[string]error{},
		contactErrs:      map[string]error{},
		updatedCompanies: map[string]bool{},
	}
}

func (f *fakeCRM) UpsertCompany(_ context.Context, properties map[string]string) (*hubspot.UpsertResult, error) {
	f.companyCalls++
	if f.transientBefore > 0 {
		f.transientBefore--
		return nil, resilience.NewTransient(errors.New("503"), 503)
	}
	name := properties["name"]
	if err, ok := f.companyErrs[name]; ok {
		return nil, err
	}
	f.nextID++
	return &hubspot.UpsertResult{
		ID:      fmt.Sprintf("co-%d", f.nextID),
		Updated: f.updatedCompanies[name],
	}, nil
}

func (f *fakeCRM) UpsertContact(_ context.Context, properties map[string]string) (*hubspot.UpsertResult, error) {
	f.contactCalls++
	email := properties["email"]
	if err, ok := f.contactErrs[email]; ok {
		return nil, err
	}
	f.nextID++
	return &hubspot.UpsertResult{ID: fmt.Sprintf("ct-%d", f.nextID)}, nil
}

func (f *fakeCRM) AssociateContactWithCompany(_ context.Context, contactID, companyID string) error {
	if f.assocErr != nil {
		return f.assocErr
	}
	f.associations = append(f.associations, [2]string{contactID, companyID})
	return nil
}

func TestPushCompanies(t *testing.T) {
	crm := newFakeCRM()
	crm.companyErrs["Broken"] = resilience.NewRejected(resilience.KindValidation, errors.New("bad industry"))
	crm.updatedCompanies["Dup"] = true

	results := pushCompanies(context.Background(), crm, fastRetry(), []apollo.Organization{
		{Name: "Acme", WebsiteURL: "https://acme.com"},
		{Name: "Broken"},
		{Name: ""},
		{Name: "Dup"},
	})

	require.Len(t, results, 4)

	assert.Equal(t, "Acme", results[0].Name)
	assert.NotEmpty(t, results[0].RecordID)
	assert.Empty(t, results[0].Error)

	assert.Contains(t, results[1].Error, "bad industry")
	assert.Empty(t, results[1].RecordID)

	assert.Equal(t, "organization has no name", results[2].Error)

	assert.True(t, results[3].Updated)
	assert.Equal(t, 3, crm.companyCalls, "nameless organization never reaches the API")
}

func TestPushCompanies_TransientRetried(t *testing.T) {
	crm := newFakeCRM()
	crm.transientBefore = 1

	results := pushCompanies(context.Background(), crm, fastRetry(), []apollo.Organization{{Name: "Acme"}})

	require.Len(t, results, 1)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, 2, crm.companyCalls)
}

func TestPushPeople_AssociatesWithCompany(t *testing.T) {
	crm := newFakeCRM()

	results := pushPeople(context.Background(), crm, fastRetry(), []apollo.ContactRecord{
		{ID: "1", Email: "ada@acme.com", FirstName: "Ada"},
		{ID: "2", FirstName: "NoEmail"},
	}, "co-99")

	require.Len(t, results, 2)

	assert.NotEmpty(t, results[0].RecordID)
	assert.True(t, results[0].Associated)
	require.Len(t, crm.associations, 1)
	assert.Equal(t, results[0].RecordID, crm.associations[0][0])
	assert.Equal(t, "co-99", crm.associations[0][1])

	assert.Equal(t, "contact has no email", results[1].Error)
	assert.Equal(t, 1, crm.contactCalls)
}

func TestPushPeople_AssociationFailureKeepsContact(t *testing.T) {
	crm := newFakeCRM()
	crm.assocErr = resilience.NewRejected(resilience.KindUnknown, errors.New("scope missing"))

	results := pushPeople(context.Background(), crm, fastRetry(), []apollo.ContactRecord{
		{ID: "1", Email: "ada@acme.com"},
	}, "co-99")

	require.Len(t, results, 1)
	assert.NotEmpty(t, results[0].RecordID, "contact stays created when the association fails")
	assert.False(t, results[0].Associated)
	assert.Contains(t, results[0].Error, "association failed")
}

func TestPushPeople_NoCompanySkipsAssociation(t *testing.T) {
	crm := newFakeCRM()

	results := pushPeople(context.Background(), crm, fastRetry(), []apollo.ContactRecord{
		{ID: "1", Email: "ada@acme.com"},
	}, "")

	require.Len(t, results, 1)
	assert.False(t, results[0].Associated)
	assert.Empty(t, results[0].Error)
	assert.Empty(t, crm.associations)
}
