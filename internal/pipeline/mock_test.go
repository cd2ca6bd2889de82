package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/internal/resilience"
	"github.com/sells-group/leadgen-cli/pkg/apollo"
	"github.com/sells-group/leadgen-cli/pkg/hunter"
)

func fastConfig() Config {
	return Config{
		Retry: resilience.Policy{
			MaxAttempts: 3,
			BaseDelay:   time.Millisecond,
			MaxDelay:    5 * time.Millisecond,
			Multiplier:  2.0,
		},
		Concurrency: 4,
	}
}

func record(id, email string) apollo.ContactRecord {
	return apollo.ContactRecord{
		ID:        id,
		Email:     email,
		FirstName: "First" + id,
		LastName:  "Last" + id,
		Title:     "Engineer",
	}
}

// fakeSearch serves canned pages. failAtPage (1-based) makes that page fail
// with failErr; transientFailures fails that many calls with a retryable
// error before serving normally.
type fakeSearch struct {
	mu                sync.Mutex
	pages             [][]apollo.ContactRecord
	failAtPage        int
	failErr           error
	transientFailures int
	calls             int
}

func (f *fakeSearch) SearchContacts(_ context.Context, req apollo.SearchRequest) (*apollo.SearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if f.transientFailures > 0 {
		f.transientFailures--
		return nil, resilience.NewTransient(fmt.Errorf("search page %d: 503", req.Page), 503)
	}
	if f.failAtPage > 0 && req.Page == f.failAtPage {
		return nil, f.failErr
	}
	idx := req.Page - 1
	if idx < 0 || idx >= len(f.pages) {
		return &apollo.SearchResponse{}, nil
	}
	return &apollo.SearchResponse{Contacts: f.pages[idx]}, nil
}

func (f *fakeSearch) SearchOrganizations(context.Context, apollo.OrgSearchRequest) (*apollo.OrgSearchResponse, error) {
	return &apollo.OrgSearchResponse{}, nil
}

func (f *fakeSearch) OrganizationTopPeople(context.Context, string, int) ([]apollo.ContactRecord, error) {
	return nil, nil
}

// fakeVerifier maps emails to results or errors. transientBefore makes the
// first N calls for an email fail retryably.
type fakeVerifier struct {
	mu              sync.Mutex
	results         map[string]*hunter.Verification
	errs            map[string]error
	transientBefore map[string]int
	calls           map[string]int
}

func newFakeVerifier() *fakeVerifier {
	return &fakeVerifier{
		results:         map[string]*hunter.Verification{},
		errs:            map[string]error{},
		transientBefore: map[string]int{},
		calls:           map[string]int{},
	}
}

func (f *fakeVerifier) VerifyEmail(_ context.Context, email string) (*hunter.Verification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[email]++

	if n := f.transientBefore[email]; n > 0 {
		f.transientBefore[email] = n - 1
		return nil, resilience.NewTransient(fmt.Errorf("verify %s: 503", email), 503)
	}
	if err, ok := f.errs[email]; ok {
		return nil, err
	}
	if v, ok := f.results[email]; ok {
		return v, nil
	}
	return &hunter.Verification{Result: "deliverable", Score: 90}, nil
}

// fakeSink records upserts keyed by identity; repeated pushes ack as
// updates, mirroring the CRM's idempotent upsert.
type fakeSink struct {
	mu      sync.Mutex
	records map[string]string
	pushes  map[string]int
	errs    map[string]error
	nextID  int
}

func newFakeSink() *fakeSink {
	return &fakeSink{
		records: map[string]string{},
		pushes:  map[string]int{},
		errs:    map[string]error{},
	}
}

func (f *fakeSink) Name() string { return "fake-crm" }

func (f *fakeSink) Push(_ context.Context, c model.Contact) (model.PushAck, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := c.Identity()
	f.pushes[key]++
	if err, ok := f.errs[key]; ok {
		return model.PushAck{}, err
	}
	if id, ok := f.records[key]; ok {
		return model.PushAck{Provider: f.Name(), RecordID: id, Updated: true}, nil
	}
	f.nextID++
	id := fmt.Sprintf("crm-%d", f.nextID)
	f.records[key] = id
	return model.PushAck{Provider: f.Name(), RecordID: id}, nil
}
