// Package agent provides the personas and phase executors of the answer
// pipeline: planning, search-query derivation, consolidation, related
// questions and the weather agent.
package agent

import (
	"fmt"

	"github.com/richinex/seekr/search"
)

// DefaultConfidence replaces a missing or out-of-range confidence.
const DefaultConfidence = 0.7

// StepStatus is the progress of one plan step.
type StepStatus string

const (
	StepPending  StepStatus = "pending"
	StepLoading  StepStatus = "loading"
	StepComplete StepStatus = "complete"
)

// rank orders statuses so that transitions can only move forward.
func (s StepStatus) rank() int {
	switch s {
	case StepLoading:
		return 1
	case StepComplete:
		return 2
	}
	return 0
}

// Before reports whether s precedes other in pending → loading → complete.
func (s StepStatus) Before(other StepStatus) bool {
	return s.rank() < other.rank()
}

// PlanStep is one step of a plan.
type PlanStep struct {
	ID             int        `json:"id"`
	Description    string     `json:"description"`
	RequiresSearch bool       `json:"requires_search"`
	RequiredTools  []string   `json:"requires_tools"`
	Status         StepStatus `json:"status"`
}

// Source is a cited web page.
type Source struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// AgentResult is the structured answer handed back to callers.
type AgentResult struct {
	Answer     string     `json:"answer"`
	Sources    []Source   `json:"sources"`
	Confidence float64    `json:"confidence"`
	Steps      []PlanStep `json:"steps,omitempty"`
}

// Result is the output of a structured phase: either a PlanResult or a
// ConsolidationResult.
type Result interface {
	AgentResult() AgentResult
	isResult()
}

// PlanResult is the planner's output.
type PlanResult struct {
	Answer     string     `json:"answer"`
	Sources    []Source   `json:"sources"`
	Confidence float64    `json:"confidence"`
	Steps      []PlanStep `json:"steps"`
}

func (PlanResult) isResult() {}

// AgentResult converts the plan to the caller-facing shape.
func (p PlanResult) AgentResult() AgentResult {
	return AgentResult{Answer: p.Answer, Sources: p.Sources, Confidence: p.Confidence, Steps: p.Steps}
}

// ConsolidationResult is the consolidator's output.
type ConsolidationResult struct {
	Answer     string   `json:"answer"`
	Sources    []Source `json:"sources"`
	Confidence float64  `json:"confidence"`
}

func (ConsolidationResult) isResult() {}

// AgentResult converts the consolidation to the caller-facing shape.
func (c ConsolidationResult) AgentResult() AgentResult {
	return AgentResult{Answer: c.Answer, Sources: c.Sources, Confidence: c.Confidence}
}

// ParseError reports model output that did not match the expected schema.
// Executors always recover from it with a fallback value.
type ParseError struct {
	Phase string
	Raw   string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: unparseable model output: %v", e.Phase, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ClampConfidence limits c to [0, 1].
func ClampConfidence(c float64) float64 {
	switch {
	case c != c: // NaN
		return 0
	case c < 0:
		return 0
	case c > 1:
		return 1
	}
	return c
}

// ValidSources drops sources whose URL is not absolute. It never returns nil.
func ValidSources(sources []Source) []Source {
	out := make([]Source, 0, len(sources))
	for _, s := range sources {
		if search.IsAbsoluteURL(s.URL) {
			out = append(out, s)
		}
	}
	return out
}

// SourcesFromResults cites every search result.
func SourcesFromResults(results []search.Result) []Source {
	out := make([]Source, 0, len(results))
	for _, r := range results {
		out = append(out, Source{Title: r.Title, URL: r.URL})
	}
	return out
}

// CloneSteps returns a deep copy of steps.
func CloneSteps(steps []PlanStep) []PlanStep {
	if steps == nil {
		return nil
	}
	out := make([]PlanStep, len(steps))
	for i, s := range steps {
		tools := make([]string, len(s.RequiredTools))
		copy(tools, s.RequiredTools)
		s.RequiredTools = tools
		out[i] = s
	}
	return out
}
