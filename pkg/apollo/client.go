// Package apollo is a client for the Apollo.io people and organization
// search API.
package apollo

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadgen-cli/internal/resilience"
)

const defaultBaseURL = "https://api.apollo.io/api"

// Client defines the Apollo operations used by the pipeline.
type Client interface {
	SearchContacts(ctx context.Context, req SearchRequest) (*SearchResponse, error)
	SearchOrganizations(ctx context.Context, req OrgSearchRequest) (*OrgSearchResponse, error)
	OrganizationTopPeople(ctx context.Context, organizationID string, perPage int) ([]ContactRecord, error)
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

// WithRateLimit caps outgoing requests at rps per second. The limiter is
// shared across all calls through this client, so concurrent pipeline
// workers draw from one budget.
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

// NewClient creates an Apollo API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
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

func (c *httpClient) SearchContacts(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.post(ctx, "/v1/contacts/search", req, &resp); err != nil {
		return nil, eris.Wrap(err, "apollo: search contacts")
	}
	return &resp, nil
}

func (c *httpClient) SearchOrganizations(ctx context.Context, req OrgSearchRequest) (*OrgSearchResponse, error) {
	var resp OrgSearchResponse
	if err := c.post(ctx, "/v1/organizations/search", req, &resp); err != nil {
		return nil, eris.Wrap(err, "apollo: search organizations")
	}
	return &resp, nil
}

func (c *httpClient) OrganizationTopPeople(ctx context.Context, organizationID string, perPage int) ([]ContactRecord, error) {
	if perPage <= 0 {
		perPage = 25
	}
	body := map[string]any{
		"organization_id": organizationID,
		"page":            1,
		"per_page":        perPage,
	}
	var resp struct {
		People []ContactRecord `json:"people"`
	}
	if err := c.post(ctx, "/v1/mixed_people/organization_top_people", body, &resp); err != nil {
		return nil, eris.Wrap(err, "apollo: organization top people")
	}
	return resp.People, nil
}

func (c *httpClient) post(ctx context.Context, path string, payload, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return eris.Wrap(err, "rate limit wait")
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Cache-Control", "no-cache")
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return eris.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response")
	}

	if resp.StatusCode != http.StatusOK {
		return classifyStatus(resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrap(err, "unmarshal response")
	}
	return nil
}

// classifyStatus maps an Apollo error response onto the shared taxonomy so
// the retry policy and the per-contact report agree on what happened.
func classifyStatus(status int, body []byte) error {
	err := eris.Errorf("unexpected status %d: %s", status, truncate(body, 200))
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return resilience.NewRejected(resilience.KindUnauthorized, err)
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
