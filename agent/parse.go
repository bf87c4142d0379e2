package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	jsonutil "github.com/richinex/seekr/internal/json"
	"github.com/richinex/seekr/search"
)

// answerSchema is the part of the plan and consolidation shapes that is
// enforced. Everything else is coerced.
var answerSchema = gojsonschema.NewStringLoader(`{
	"type": "object",
	"required": ["answer"],
	"properties": {
		"answer": {"type": "string", "minLength": 1}
	}
}`)

// decodeStructured extracts the first JSON object from raw, validates it
// against answerSchema and returns its fields.
func decodeStructured(phase, raw string) (map[string]json.RawMessage, error) {
	doc, err := jsonutil.ExtractObject(raw)
	if err != nil {
		return nil, &ParseError{Phase: phase, Raw: raw, Err: err}
	}

	result, err := gojsonschema.Validate(answerSchema, gojsonschema.NewStringLoader(doc))
	if err != nil {
		return nil, &ParseError{Phase: phase, Raw: raw, Err: fmt.Errorf("validation error: %w", err)}
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, &ParseError{Phase: phase, Raw: raw, Err: fmt.Errorf("schema validation failed: %s", strings.Join(errs, "; "))}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(doc), &fields); err != nil {
		return nil, &ParseError{Phase: phase, Raw: raw, Err: err}
	}
	return fields, nil
}

// ParsePlan decodes planner output. Sources that are not a list become
// empty, a confidence outside [0, 1] becomes DefaultConfidence and steps
// that cannot be read fall back to a single search step.
func ParsePlan(raw string) (PlanResult, error) {
	fields, err := decodeStructured("plan", raw)
	if err != nil {
		return PlanResult{}, err
	}

	var answer string
	_ = json.Unmarshal(fields["answer"], &answer)

	sources, _ := coerceSources(fields["sources"])
	steps, ok := coerceSteps(fields["steps"])
	if !ok {
		steps = FallbackSteps()
	}

	return PlanResult{
		Answer:     answer,
		Sources:    ValidSources(sources),
		Confidence: coerceConfidence(fields["confidence"]),
		Steps:      steps,
	}, nil
}

// FallbackPlan wraps unparseable planner output.
func FallbackPlan(raw string) PlanResult {
	return PlanResult{
		Answer:     raw,
		Sources:    []Source{},
		Confidence: DefaultConfidence,
		Steps:      FallbackSteps(),
	}
}

// FallbackSteps is the plan used when the model's plan cannot be read.
func FallbackSteps() []PlanStep {
	return []PlanStep{{
		ID:             1,
		Description:    "Process the query",
		RequiresSearch: true,
		RequiredTools:  []string{},
		Status:         StepPending,
	}}
}

// ParseConsolidation decodes consolidator output. Missing sources are
// cited from results.
func ParseConsolidation(raw string, results []search.Result) (ConsolidationResult, error) {
	fields, err := decodeStructured("consolidate", raw)
	if err != nil {
		return ConsolidationResult{}, err
	}

	var answer string
	_ = json.Unmarshal(fields["answer"], &answer)

	sources, ok := coerceSources(fields["sources"])
	if !ok {
		sources = SourcesFromResults(results)
	}

	return ConsolidationResult{
		Answer:     answer,
		Sources:    ValidSources(sources),
		Confidence: coerceConfidence(fields["confidence"]),
	}, nil
}

// FallbackConsolidation wraps unparseable consolidator output.
func FallbackConsolidation(raw string, results []search.Result) ConsolidationResult {
	return ConsolidationResult{
		Answer:     raw,
		Sources:    ValidSources(SourcesFromResults(results)),
		Confidence: DefaultConfidence,
	}
}

// coerceSources reads a list of {title, url} objects, skipping entries of
// any other shape. ok is false when raw is not a list.
func coerceSources(raw json.RawMessage) ([]Source, bool) {
	var items []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil || items == nil {
		return []Source{}, false
	}
	out := make([]Source, 0, len(items))
	for _, item := range items {
		var s Source
		if json.Unmarshal(item, &s) == nil {
			out = append(out, s)
		}
	}
	return out, true
}

func coerceConfidence(raw json.RawMessage) float64 {
	var c float64
	if len(raw) == 0 || json.Unmarshal(raw, &c) != nil || c < 0 || c > 1 {
		return DefaultConfidence
	}
	return c
}

// coerceSteps reads the plan's steps. Every step starts pending and ids
// are renumbered when the model repeats one.
func coerceSteps(raw json.RawMessage) ([]PlanStep, bool) {
	var steps []PlanStep
	if len(raw) == 0 || json.Unmarshal(raw, &steps) != nil || len(steps) == 0 {
		return nil, false
	}
	seen := make(map[int]bool, len(steps))
	for i := range steps {
		if seen[steps[i].ID] {
			steps[i].ID = maxStepID(steps) + 1
		}
		seen[steps[i].ID] = true
		if steps[i].RequiredTools == nil {
			steps[i].RequiredTools = []string{}
		}
		steps[i].Status = StepPending
	}
	return steps, true
}

func maxStepID(steps []PlanStep) int {
	m := 0
	for _, s := range steps {
		m = max(m, s.ID)
	}
	return m
}
