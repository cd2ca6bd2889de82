package translate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadgen-cli/pkg/anthropic"
)

type fakeLLM struct {
	text string
	err  error
	req  anthropic.MessageRequest
}

func (f *fakeLLM) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	f.req = req
	if f.err != nil {
		return nil, f.err
	}
	return &anthropic.MessageResponse{Text: f.text}, nil
}

func TestTranslate(t *testing.T) {
	llm := &fakeLLM{text: `{
		"keywords": "software engineer",
		"person_titles": ["CTO", "VP Engineering"],
		"organization_locations": ["Austin, TX"]
	}`}

	q, err := New(llm, "claude-haiku-4-5-20251001").Translate(context.Background(), "find me CTOs in Austin", 15)
	require.NoError(t, err)

	assert.Equal(t, "software engineer", q.Keywords)
	assert.Equal(t, []string{"CTO", "VP Engineering"}, q.PersonTitles)
	assert.Equal(t, []string{"Austin, TX"}, q.OrganizationLocations)
	assert.Equal(t, 15, q.TotalRecords)
	assert.Positive(t, q.PageSize, "normalize should assign a page size")

	assert.Equal(t, "find me CTOs in Austin", llm.req.Messages[0].Content)
	assert.NotEmpty(t, llm.req.System)
}

func TestTranslate_FencedOutput(t *testing.T) {
	llm := &fakeLLM{text: "```json\n{\"person_titles\": [\"CFO\"]}\n```"}

	q, err := New(llm, "m").Translate(context.Background(), "CFOs anywhere", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"CFO"}, q.PersonTitles)
	assert.Equal(t, 10, q.TotalRecords, "default cap applies when none given")
}

func TestTranslate_BadOutput(t *testing.T) {
	llm := &fakeLLM{text: "sorry, I cannot help with that"}

	_, err := New(llm, "m").Translate(context.Background(), "whatever", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode model output")
}

func TestTranslate_EmptyRequest(t *testing.T) {
	_, err := New(&fakeLLM{}, "m").Translate(context.Background(), "   ", 5)
	require.Error(t, err)
}
