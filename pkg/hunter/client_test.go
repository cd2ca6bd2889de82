package hunter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/internal/resilience"
)

func TestVerifyEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v2/email-verifier", r.URL.Path)
		assert.Equal(t, "ada@acme.com", r.URL.Query().Get("email"))
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))

		_, _ = w.Write([]byte(`{
			"data": {
				"result": "deliverable",
				"score": 93,
				"status": "valid",
				"smtp_check": true,
				"email": "ada@acme.com"
			}
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	v, err := client.VerifyEmail(context.Background(), "ada@acme.com")
	require.NoError(t, err)

	assert.Equal(t, "deliverable", v.Result)
	assert.Equal(t, 93, v.Score)
	assert.True(t, v.SMTPCheck)
}

func TestVerifyEmail_ErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantKind  resilience.Kind
		transient bool
	}{
		{
			name:     "unauthorized",
			status:   http.StatusUnauthorized,
			body:     `{"errors": [{"id": "authentication_failed", "code": 401, "details": "bad key"}]}`,
			wantKind: resilience.KindUnauthorized,
		},
		{
			name:     "invalid email",
			status:   http.StatusBadRequest,
			body:     `{"errors": [{"id": "wrong_params", "code": 400, "details": "email malformed"}]}`,
			wantKind: resilience.KindInvalidEmail,
		},
		{
			name:     "quota exhausted is terminal",
			status:   http.StatusTooManyRequests,
			body:     `{"errors": [{"id": "usage_limit_reached", "code": 429, "details": "monthly quota"}]}`,
			wantKind: resilience.KindRateLimited,
		},
		{
			name:      "plain 429 is retryable",
			status:    http.StatusTooManyRequests,
			body:      `{"errors": [{"id": "too_many_requests", "code": 429, "details": "slow down"}]}`,
			transient: true,
		},
		{
			name:      "server error",
			status:    http.StatusServiceUnavailable,
			body:      `{}`,
			transient: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient("test-key", WithBaseURL(srv.URL))
			_, err := client.VerifyEmail(context.Background(), "x@y.com")
			require.Error(t, err)

			assert.Equal(t, tt.transient, resilience.IsTransient(err))
			if !tt.transient {
				kind, ok := resilience.RejectionKind(err)
				require.True(t, ok)
				assert.Equal(t, tt.wantKind, kind)
			}
		})
	}
}
