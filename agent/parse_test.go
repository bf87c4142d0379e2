package agent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinex/seekr/search"
)

func TestParsePlanCoercion(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		confidence float64
		sources    int
		steps      int
	}{
		{"well formed", `{"answer": "a", "sources": [], "confidence": 0.4, "steps": [{"id": 1, "description": "d", "requires_search": false, "requires_tools": [], "status": "pending"}]}`, 0.4, 0, 1},
		{"confidence too high", `{"answer": "a", "confidence": 3}`, DefaultConfidence, 0, 1},
		{"confidence negative", `{"answer": "a", "confidence": -0.1}`, DefaultConfidence, 0, 1},
		{"confidence string", `{"answer": "a", "confidence": "high"}`, DefaultConfidence, 0, 1},
		{"sources object", `{"answer": "a", "sources": {"title": "x"}, "confidence": 1}`, 1, 0, 1},
		{"sources mixed", `{"answer": "a", "sources": [{"title": "t", "url": "https://x.dev/a"}, 7, {"title": "rel", "url": "/a"}]}`, DefaultConfidence, 1, 1},
		{"steps wrong shape", `{"answer": "a", "steps": "search then answer"}`, DefaultConfidence, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := ParsePlan(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, "a", plan.Answer)
			assert.Equal(t, tt.confidence, plan.Confidence)
			assert.Len(t, plan.Sources, tt.sources)
			assert.NotNil(t, plan.Sources)
			assert.Len(t, plan.Steps, tt.steps)
		})
	}
}

func TestParsePlanRejectsMissingAnswer(t *testing.T) {
	for _, raw := range []string{
		`{"sources": []}`,
		`{"answer": ""}`,
		`{"answer": 42}`,
		`not json at all`,
		`["answer"]`,
	} {
		_, err := ParsePlan(raw)
		var pe *ParseError
		require.True(t, errors.As(err, &pe), "raw %q", raw)
		assert.Equal(t, "plan", pe.Phase)
		assert.Equal(t, raw, pe.Raw)
	}
}

func TestParsePlanNormalisesSteps(t *testing.T) {
	plan, err := ParsePlan(`{"answer": "a", "steps": [
		{"id": 1, "description": "one", "status": "complete"},
		{"id": 1, "description": "two", "requires_search": true}
	]}`)
	require.NoError(t, err)
	require.Len(t, plan.Steps, 2)
	assert.NotEqual(t, plan.Steps[0].ID, plan.Steps[1].ID)
	for _, s := range plan.Steps {
		assert.Equal(t, StepPending, s.Status)
		assert.NotNil(t, s.RequiredTools)
	}
}

func TestParseConsolidationDerivesSources(t *testing.T) {
	results := []search.Result{
		{Title: "A", URL: "https://a.example.com/x"},
		{Title: "B", URL: "ftp://b.example.com/y"},
	}

	got, err := ParseConsolidation(`Here you go: {"answer": "done", "confidence": 0.8}`, results)
	require.NoError(t, err)
	assert.Equal(t, "done", got.Answer)
	assert.Equal(t, 0.8, got.Confidence)
	assert.Equal(t, []Source{{Title: "A", URL: "https://a.example.com/x"}}, got.Sources)

	got, err = ParseConsolidation(`{"answer": "done", "sources": []}`, results)
	require.NoError(t, err)
	assert.Empty(t, got.Sources)
}

func TestFallbacks(t *testing.T) {
	plan := FallbackPlan("raw text")
	assert.Equal(t, "raw text", plan.Answer)
	assert.Equal(t, DefaultConfidence, plan.Confidence)
	assert.Equal(t, []PlanStep{{ID: 1, Description: "Process the query", RequiresSearch: true, RequiredTools: []string{}, Status: StepPending}}, plan.Steps)

	c := FallbackConsolidation("raw", []search.Result{{Title: "A", URL: "https://a.dev"}})
	assert.Equal(t, []Source{{Title: "A", URL: "https://a.dev"}}, c.Sources)
	assert.Equal(t, DefaultConfidence, c.Confidence)
}

func TestClampConfidence(t *testing.T) {
	assert.Equal(t, 0.0, ClampConfidence(-1))
	assert.Equal(t, 1.0, ClampConfidence(1.5))
	assert.Equal(t, 0.5, ClampConfidence(0.5))
}

func TestStepStatusOrder(t *testing.T) {
	assert.True(t, StepPending.Before(StepLoading))
	assert.True(t, StepLoading.Before(StepComplete))
	assert.False(t, StepComplete.Before(StepLoading))
	assert.False(t, StepLoading.Before(StepLoading))
}
