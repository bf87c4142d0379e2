// Phase executor for the plan → search → consolidate pipeline.
//
// Information Hiding:
// - Prompt assembly per phase hidden
// - Model output parsing and fallback values hidden
// - Search query derivation and gating hidden

package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	jsonutil "github.com/richinex/seekr/internal/json"
	"github.com/richinex/seekr/internal/logger"
	"github.com/richinex/seekr/llm"
	"github.com/richinex/seekr/search"
)

// Executor runs the individual pipeline phases against one completion
// client and one search service.
type Executor struct {
	client  *llm.Client
	search  *search.Service
	gate    *search.Gate
	options search.Options
	logger  *zap.Logger
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the executor's logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Executor) { e.logger = logger.OrNop(l) }
}

// WithSearchOptions overrides search.DefaultOptions for the search phase.
func WithSearchOptions(opts search.Options) Option {
	return func(e *Executor) { e.options = opts }
}

// NewExecutor creates a phase executor. gate may be nil, in which case
// every derived query is searched.
func NewExecutor(client *llm.Client, svc *search.Service, gate *search.Gate, opts ...Option) *Executor {
	e := &Executor{
		client:  client,
		search:  svc,
		gate:    gate,
		options: search.DefaultOptions(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Client returns the executor's completion client.
func (e *Executor) Client() *llm.Client {
	return e.client
}

// Plan asks persona for a plan. Unparseable output becomes FallbackPlan;
// only completion failures are returned as errors.
func (e *Executor) Plan(ctx context.Context, persona Config, query, language string) (PlanResult, error) {
	out, err := e.client.Complete(ctx,
		[]llm.ChatMessage{
			llm.SystemMessage(persona.Prompt(language) + planSchemaInstructions),
			llm.UserMessage(query),
		},
		llm.WithFormat(llm.NewJSONObjectFormat()),
		llm.WithLabel("plan"),
	)
	if err != nil {
		return PlanResult{}, err
	}

	plan, err := ParsePlan(out.Text)
	if err != nil {
		e.logParseFailure(err)
		return FallbackPlan(out.Text), nil
	}
	return plan, nil
}

// Search derives a focused query from plan, asks the gate whether it is
// worth searching and runs the search. Search failures yield an empty
// list; only a failure of the query derivation is returned.
func (e *Executor) Search(ctx context.Context, persona Config, query string, plan PlanResult, language string) ([]search.Result, error) {
	planJSON, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode plan: %w", err)
	}

	out, err := e.client.Complete(ctx,
		[]llm.ChatMessage{
			llm.SystemMessage(persona.Prompt(language) + searchQueryInstructions),
			llm.UserMessage(fmt.Sprintf("Original query: %s\n\nPlan:\n%s", query, planJSON)),
		},
		llm.WithLabel("search_query"),
	)
	if err != nil {
		return nil, err
	}

	focused := CleanSearchQuery(out.Text, query)
	if e.gate != nil && !e.gate.ShouldSearch(ctx, focused, LanguageName(language)) {
		e.logger.Debug("search skipped", zap.String("query", focused))
		return []search.Result{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := e.search.Search(ctx, focused, e.options)
	e.logger.Debug("search finished", zap.String("query", focused), zap.Int("results", len(results)))
	return results, nil
}

// CleanSearchQuery trims whitespace and surrounding quotes from a
// model-written query and cuts it to search.MaxQueryLength. An empty
// result falls back to original.
func CleanSearchQuery(derived, original string) string {
	q := strings.Trim(strings.TrimSpace(derived), "\"'`")
	q = search.TruncateQuery(q, search.MaxQueryLength)
	if q == "" {
		return search.TruncateQuery(original, search.MaxQueryLength)
	}
	return q
}

// Consolidate combines plan and results into the final answer.
// Unparseable output becomes FallbackConsolidation.
func (e *Executor) Consolidate(ctx context.Context, persona Config, query string, plan PlanResult, results []search.Result, language string) (ConsolidationResult, error) {
	planJSON, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return ConsolidationResult{}, fmt.Errorf("failed to encode plan: %w", err)
	}

	out, err := e.client.Complete(ctx,
		[]llm.ChatMessage{
			llm.SystemMessage(persona.Prompt(language) + consolidationSchemaInstructions),
			llm.UserMessage(fmt.Sprintf("Original query: %s\n\nPlan:\n%s\n\nSearch Results:\n%s",
				query, planJSON, search.FormatContext(results))),
		},
		llm.WithFormat(llm.NewJSONObjectFormat()),
		llm.WithLabel("consolidate"),
	)
	if err != nil {
		return ConsolidationResult{}, err
	}

	result, err := ParseConsolidation(out.Text, results)
	if err != nil {
		e.logParseFailure(err)
		return FallbackConsolidation(out.Text, results), nil
	}
	return result, nil
}

func (e *Executor) logParseFailure(err error) {
	var pe *ParseError
	if errors.As(err, &pe) {
		e.logger.Warn("using fallback result",
			zap.String("phase", pe.Phase),
			zap.String("raw_preview", jsonutil.Preview(pe.Raw, 200)),
			zap.Error(pe.Err))
		return
	}
	e.logger.Warn("using fallback result", zap.Error(err))
}
