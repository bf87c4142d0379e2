package search

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinex/seekr/internal/llmtest"
	"github.com/richinex/seekr/llm"
)

func TestGateDecisions(t *testing.T) {
	cases := []struct {
		name  string
		reply llmtest.Reply
		want  bool
	}{
		{"true", llmtest.Text("true"), true},
		{"capitalized with punctuation", llmtest.Text("True."), true},
		{"false", llmtest.Text("false"), false},
		{"unrelated text", llmtest.Text("maybe"), false},
		{"empty", llmtest.Reply{}, false},
		{"provider error fails open", llmtest.Fail(errors.New("503")), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := llmtest.New(func(llm.CompletionRequest) llmtest.Reply { return c.reply })
			g := NewGate(llm.NewClient(p), nil)
			assert.Equal(t, c.want, g.ShouldSearch(context.Background(), "what happened today", "English"))
		})
	}
}

func TestGateRequestShape(t *testing.T) {
	p := llmtest.New(func(llm.CompletionRequest) llmtest.Reply { return llmtest.Text("false") })
	NewGate(llm.NewClient(p), nil).ShouldSearch(context.Background(), "hello", "French")

	reqs := p.Requests()
	require.Len(t, reqs, 1)
	req := reqs[0]
	assert.Equal(t, "search_check", req.Label)
	require.NotNil(t, req.Temperature)
	assert.Zero(t, *req.Temperature)
	assert.Equal(t, 5, req.MaxTokens)
	require.Len(t, req.Messages, 2)
	assert.Contains(t, req.Messages[0].Content, "You communicate in French")
	assert.Equal(t, "Query: \"hello\"\nWould a web search help answer this query more accurately? Respond with true/false only.", req.Messages[1].Content)
}

func TestGateCanceledFailsOpen(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := llmtest.New(func(llm.CompletionRequest) llmtest.Reply { return llmtest.Text("false") })
	assert.True(t, NewGate(llm.NewClient(p), nil).ShouldSearch(ctx, "q", "English"))
}
