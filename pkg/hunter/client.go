// Package hunter is a client for the Hunter.io email verification API.
package hunter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/leadgen-cli/internal/resilience"
)

const defaultBaseURL = "https://api.hunter.io"

// Client defines the Hunter operations used by the pipeline.
type Client interface {
	VerifyEmail(ctx context.Context, email string) (*Verification, error)
}

// Verification is the deliverability result for one address.
type Verification struct {
	Result    string `json:"result"`
	Score     int    `json:"score"`
	Status    string `json:"status"`
	SMTPCheck bool   `json:"smtp_check"`
	Email     string `json:"email"`
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

// NewClient creates a Hunter API client.
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

type errorBody struct {
	Errors []struct {
		ID      string `json:"id"`
		Code    int    `json:"code"`
		Details string `json:"details"`
	} `json:"errors"`
}

func (c *httpClient) VerifyEmail(ctx context.Context, email string) (*Verification, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "hunter: rate limit wait")
		}
	}

	q := url.Values{}
	q.Set("email", email)
	q.Set("api_key", c.apiKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/email-verifier?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "hunter: create request")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "hunter: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "hunter: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyError(resp.StatusCode, respBody)
	}

	var result struct {
		Data Verification `json:"data"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "hunter: unmarshal response")
	}
	return &result.Data, nil
}

// classifyError maps a Hunter error response onto the shared taxonomy. A 429
// that reports the account quota as exhausted is terminal; a plain 429 is a
// rate-limit blip worth retrying.
func classifyError(status int, body []byte) error {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)
	detail := ""
	id := ""
	if len(eb.Errors) > 0 {
		id = eb.Errors[0].ID
		detail = eb.Errors[0].Details
	}
	if detail == "" {
		detail = truncate(body, 200)
	}

	err := eris.Errorf("hunter: status %d (%s): %s", status, id, detail)
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return resilience.NewRejected(resilience.KindUnauthorized, err)
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return resilience.NewRejected(resilience.KindInvalidEmail, err)
	case status == http.StatusTooManyRequests && id == "usage_limit_reached":
		return resilience.NewRejected(resilience.KindRateLimited, err)
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
