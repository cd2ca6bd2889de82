// Package hubspot is a client for the HubSpot CRM v3 contacts API.
package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadgen-cli/internal/resilience"
)

const defaultBaseURL = "https://api.hubapi.com"

// Client defines the HubSpot operations used by the pipeline.
type Client interface {
	// UpsertContact creates the contact or, when HubSpot reports the email
	// as an existing record, updates that record in place. The operation is
	// idempotent by email.
	UpsertContact(ctx context.Context, properties map[string]string) (*UpsertResult, error)

	// UpsertCompany creates the company or, when HubSpot reports a
	// duplicate (it dedupes companies on domain), updates the existing
	// record in place.
	UpsertCompany(ctx context.Context, properties map[string]string) (*UpsertResult, error)

	// AssociateContactWithCompany links an existing contact record to an
	// existing company record.
	AssociateContactWithCompany(ctx context.Context, contactID, companyID string) error
}

// UpsertResult reports the CRM record an upsert landed on.
type UpsertResult struct {
	ID      string `json:"id"`
	Updated bool   `json:"updated"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) { c.baseURL = url }
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) { c.http = hc }
}

// WithRateLimit caps outgoing requests at rps per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a HubSpot API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// existingIDPattern matches the record id HubSpot embeds in its duplicate
// conflict message ("Contact already exists. Existing ID: 12345").
var existingIDPattern = regexp.MustCompile(`Existing ID:\s*(\d+)`)

func (c *httpClient) UpsertContact(ctx context.Context, properties map[string]string) (*UpsertResult, error) {
	if properties["email"] == "" {
		return nil, resilience.NewRejected(resilience.KindValidation, eris.New("hubspot: email property is required"))
	}
	return c.upsert(ctx, "/crm/v3/objects/contacts", properties)
}

func (c *httpClient) UpsertCompany(ctx context.Context, properties map[string]string) (*UpsertResult, error) {
	if properties["name"] == "" {
		return nil, resilience.NewRejected(resilience.KindValidation, eris.New("hubspot: name property is required"))
	}
	return c.upsert(ctx, "/crm/v3/objects/companies", properties)
}

// upsert creates the object and, on the duplicate conflict HubSpot reports
// with an embedded record id, updates that record in place.
func (c *httpClient) upsert(ctx context.Context, basePath string, properties map[string]string) (*UpsertResult, error) {
	id, status, body, err := c.send(ctx, http.MethodPost, basePath, objectBody{Properties: properties})
	if err != nil {
		return nil, err
	}
	if status == http.StatusOK || status == http.StatusCreated {
		return &UpsertResult{ID: id}, nil
	}

	if status == http.StatusConflict {
		if m := existingIDPattern.FindSubmatch(body); m != nil {
			existing := string(m[1])
			id, status, body, err = c.send(ctx, http.MethodPatch, basePath+"/"+existing, objectBody{Properties: properties})
			if err != nil {
				return nil, err
			}
			if status == http.StatusOK {
				if id == "" {
					id = existing
				}
				return &UpsertResult{ID: id, Updated: true}, nil
			}
			return nil, classifyStatus(status, body)
		}
	}

	return nil, classifyStatus(status, body)
}

type objectBody struct {
	Properties map[string]string `json:"properties"`
}

type associationInput struct {
	From associationRef `json:"from"`
	To   associationRef `json:"to"`
	Type string         `json:"type"`
}

type associationRef struct {
	ID string `json:"id"`
}

func (c *httpClient) AssociateContactWithCompany(ctx context.Context, contactID, companyID string) error {
	if contactID == "" || companyID == "" {
		return resilience.NewRejected(resilience.KindValidation, eris.New("hubspot: contact and company ids are required"))
	}

	payload := struct {
		Inputs []associationInput `json:"inputs"`
	}{
		Inputs: []associationInput{{
			From: associationRef{ID: contactID},
			To:   associationRef{ID: companyID},
			Type: "contact_to_company",
		}},
	}

	_, status, body, err := c.send(ctx, http.MethodPost, "/crm/v4/associations/contacts/companies/batch/create", payload)
	if err != nil {
		return err
	}
	// 207 is the batch endpoint's partial-success status; with a single
	// input it still means the association landed.
	if status == http.StatusOK || status == http.StatusCreated || status == http.StatusMultiStatus {
		return nil
	}
	return classifyStatus(status, body)
}

// send posts the JSON body and returns the record id (when the response
// carries one), the status code, and the raw body for error handling.
// Transport-level failures come back as errors.
func (c *httpClient) send(ctx context.Context, method, path string, reqBody any) (string, int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", 0, nil, eris.Wrap(err, "hubspot: rate limit wait")
		}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", 0, nil, eris.Wrap(err, "hubspot: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return "", 0, nil, eris.Wrap(err, "hubspot: create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", 0, nil, eris.Wrap(err, "hubspot: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, nil, eris.Wrap(err, "hubspot: read response")
	}

	var rec struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(body, &rec)
	return rec.ID, resp.StatusCode, body, nil
}

// classifyStatus maps a HubSpot error response onto the shared taxonomy.
func classifyStatus(status int, body []byte) error {
	var eb struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &eb)
	msg := eb.Message
	if msg == "" {
		msg = truncate(body, 200)
	}

	err := eris.Errorf("hubspot: status %d: %s", status, msg)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return resilience.NewRejected(resilience.KindUnauthorized, err)
	case status == http.StatusConflict:
		return resilience.NewRejected(resilience.KindConflict, err)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return resilience.NewRejected(resilience.KindValidation, err)
	case resilience.IsRetryableStatus(status):
		return resilience.NewTransient(err, status)
	default:
		return resilience.NewRejected(resilience.KindUnknown, err)
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// DomainFromURL extracts the bare domain from a website URL. HubSpot dedupes
// companies on the domain property, so the scheme, www prefix, and any path
// are stripped.
func DomainFromURL(website string) string {
	s := strings.TrimSpace(website)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	return s
}
