package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/richinex/seekr/internal/llmtest"
	"github.com/richinex/seekr/llm"
	"github.com/richinex/seekr/tools"
)

func TestRelatedQuestions(t *testing.T) {
	five := `{"questions": ["Q1?", "Q2?", "Q3?", "Q4?", "Q5?"]}`
	tests := []struct {
		name  string
		reply llmtest.Reply
		want  []string
	}{
		{"five questions", llmtest.Reply{ToolArgs: []string{five[:10], five[10:]}}, []string{"Q1?", "Q2?", "Q3?", "Q4?", "Q5?"}},
		{"too few", llmtest.Tool(`{"questions": ["Q1?", "Q2?"]}`), DefaultRelatedQuestions()},
		{"blank entry", llmtest.Tool(`{"questions": ["Q1?", " ", "Q3?", "Q4?", "Q5?"]}`), DefaultRelatedQuestions()},
		{"not json", llmtest.Tool(`questions: Q1`), DefaultRelatedQuestions()},
		{"no tool call", llmtest.Text("Here are some questions"), DefaultRelatedQuestions()},
		{"transport error", llmtest.Fail(errors.New("reset")), DefaultRelatedQuestions()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := llmtest.ByLabel(map[string]llmtest.Reply{"related_questions": tt.reply})
			got := RelatedQuestions(context.Background(), llm.NewClient(p), "topic", "answer", "en", zaptest.NewLogger(t))
			assert.Equal(t, tt.want, got)

			reqs := p.Requests()
			require.Len(t, reqs, 1)
			assert.Equal(t, tools.RelatedQuestionsTool.Name, reqs[0].ToolChoice)
			assert.Equal(t, "Generate 5 related questions for this topic and response:\n\nTopic: topic\n\nResponse: answer",
				reqs[0].Messages[1].Content)
		})
	}
}

func TestRelatedForConversationMessages(t *testing.T) {
	p := llmtest.ByLabel(map[string]llmtest.Reply{})
	history := []llm.ChatMessage{
		llm.UserMessage("Tell me about Rust"),
		llm.AssistantMessage("Rust is a language."),
	}
	got := RelatedForConversation(context.Background(), llm.NewClient(p), "and Go?", history, "de", nil)
	assert.Equal(t, DefaultRelatedQuestions(), got)

	msgs := p.Requests()[0].Messages
	require.Len(t, msgs, 5)
	assert.Contains(t, msgs[0].Content, "German only")
	assert.Contains(t, msgs[1].Content, "ONLY in German")
	assert.Equal(t, "Previous topic: Tell me about Rust\nNew question: and Go?", msgs[4].Content)
}

func TestDirectMessages(t *testing.T) {
	history := []llm.ChatMessage{
		llm.UserMessage("first"),
		llm.AssistantMessage(WithSourcesNote("reply", []Source{{Title: "A"}, {Title: "B"}})),
	}
	snapshot := append([]llm.ChatMessage(nil), history...)

	msgs := DirectMessages("next", history, "[Source: A]\nsnippet\n", "es")
	require.Len(t, msgs, 5)
	assert.Equal(t, llm.RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "respond in Spanish")
	assert.Contains(t, msgs[0].Content, CiteSourcesInstruction)
	assert.Equal(t, "reply\nSources used: A, B", msgs[2].Content)
	assert.Equal(t, "Search Results:\n[Source: A]\nsnippet\n", msgs[3].Content)
	assert.Equal(t, "Previous topic: first\nNew question: next", msgs[4].Content)
	assert.Equal(t, snapshot, history)

	msgs = DirectMessages("solo", nil, "", "en")
	require.Len(t, msgs, 2)
	assert.NotContains(t, msgs[0].Content, CiteSourcesInstruction)
	assert.Equal(t, "solo", msgs[1].Content)
}

func TestWithSourcesNoteWithoutSources(t *testing.T) {
	assert.Equal(t, "plain", WithSourcesNote("plain", nil))
}
