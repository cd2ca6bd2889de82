// Package translate maps free-text prospecting requests onto the structured
// search query the pipeline consumes. It is a single LLM call per request.
package translate

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-cli/internal/model"
	"github.com/sells-group/leadgen-cli/pkg/anthropic"
)

const systemPrompt = `You translate lead prospecting requests into a search query.
Respond with a single JSON object and nothing else, using exactly these keys:
{
  "keywords": "free-text keywords, may be empty",
  "person_titles": ["job titles to match"],
  "organization_keywords": ["industry or company keywords"],
  "organization_locations": ["cities, states or countries"],
  "employee_ranges": ["min,max strings like \"11,50\""]
}
Omit a key rather than inventing filter values the request does not imply.`

// Translator turns natural-language requests into model.Query values.
type Translator struct {
	client    anthropic.Client
	modelName string
	maxTokens int64
}

// New creates a Translator using the given Anthropic client and model.
func New(client anthropic.Client, modelName string) *Translator {
	return &Translator{
		client:    client,
		modelName: modelName,
		maxTokens: 1024,
	}
}

// Translate converts text into a normalized query capped at maxRecords.
func (t *Translator) Translate(ctx context.Context, text string, maxRecords int) (model.Query, error) {
	if strings.TrimSpace(text) == "" {
		return model.Query{}, eris.New("translate: empty request")
	}
	if maxRecords <= 0 {
		maxRecords = 10
	}

	resp, err := t.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     t.modelName,
		MaxTokens: t.maxTokens,
		System:    systemPrompt,
		Messages: []anthropic.Message{
			{Role: "user", Content: text},
		},
	})
	if err != nil {
		return model.Query{}, eris.Wrap(err, "translate: query translation call")
	}

	q, err := parseQuery(resp.Text)
	if err != nil {
		return model.Query{}, err
	}
	q.TotalRecords = maxRecords

	q = q.Normalize()
	zap.L().Debug("translated query",
		zap.String("keywords", q.Keywords),
		zap.Strings("person_titles", q.PersonTitles),
		zap.Int("total_records", q.TotalRecords),
	)
	return q, nil
}

func parseQuery(text string) (model.Query, error) {
	var q model.Query
	cleaned := stripFences(text)
	if err := json.Unmarshal([]byte(cleaned), &q); err != nil {
		return model.Query{}, eris.Wrap(err, "translate: decode model output")
	}
	return q, nil
}

// stripFences removes a surrounding markdown code fence, which models emit
// despite instructions not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
