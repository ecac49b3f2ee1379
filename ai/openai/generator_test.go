package openai

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/studyguide/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel is a minimal llms.Model that returns a canned response.
type fakeModel struct {
	response *llms.ContentResponse
	err      error
	messages []llms.MessageContent
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	if f.err != nil {
		return nil, f.err
	}
	return f.response, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func textResponse(s string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: s}}}
}

func TestGenerateGuide(t *testing.T) {
	model := &fakeModel{response: textResponse("  Cells\n- the unit of life  ")}
	gen := newGeneratorWithModel(model, 0.2)

	text, err := gen.GenerateGuide(context.Background(), "Cells are the unit of life.", "Biology")
	require.NoError(t, err)
	assert.Equal(t, "Cells\n- the unit of life", text)

	require.Len(t, model.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, model.messages[1].Role)

	system, ok := model.messages[0].Parts[0].(llms.TextContent)
	require.True(t, ok)
	assert.Contains(t, system.Text, `"Biology"`)

	human, ok := model.messages[1].Parts[0].(llms.TextContent)
	require.True(t, ok)
	assert.Contains(t, human.Text, "Cells are the unit of life.")
}

func TestGenerateGuide_Failures(t *testing.T) {
	clientErr := errors.New("rate limited")

	tests := []struct {
		name    string
		model   *fakeModel
		chunk   string
		wantErr error
	}{
		{
			name:    "client error",
			model:   &fakeModel{err: clientErr},
			chunk:   "text",
			wantErr: clientErr,
		},
		{
			name:    "no choices",
			model:   &fakeModel{response: &llms.ContentResponse{}},
			chunk:   "text",
			wantErr: ai.ErrEmptyResponse,
		},
		{
			name:    "blank content",
			model:   &fakeModel{response: textResponse("   \n")},
			chunk:   "text",
			wantErr: ai.ErrEmptyResponse,
		},
		{
			name:    "blank chunk",
			model:   &fakeModel{response: textResponse("unused")},
			chunk:   "  ",
			wantErr: ai.ErrEmptyChunk,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := newGeneratorWithModel(tt.model, 0)
			_, err := gen.GenerateGuide(context.Background(), tt.chunk, "Biology")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewGenerator_InvalidConfig(t *testing.T) {
	gen, err := NewGenerator(&ai.Config{Provider: ai.ProviderOpenAI})
	assert.Error(t, err)
	assert.Nil(t, gen)
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain", in: "  hello  ", want: "hello"},
		{name: "bare fence", in: "```\nhello\n```", want: "hello"},
		{name: "fence with info string", in: "```markdown\n# Title\nbody\n```", want: "# Title\nbody"},
		{name: "single line fence", in: "```hello```", want: "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripCodeFences(tt.in))
		})
	}
}
