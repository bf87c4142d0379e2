package search

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/richinex/seekr/internal/logger"
	"github.com/richinex/seekr/llm"
	"github.com/richinex/seekr/metrics"
)

// NecessityCheckPrompt is the gate's system prompt.
func NecessityCheckPrompt(language string) string {
	return fmt.Sprintf("You are a search necessity checker. You communicate in %s. "+
		"Your task is to determine if a web search would be helpful to answer the query accurately. "+
		"Respond with 'true' or 'false' only.", language)
}

// NecessityCheckQuery is the gate's user prompt for query.
func NecessityCheckQuery(query string) string {
	return "Query: \"" + query + "\"\nWould a web search help answer this query more accurately? Respond with true/false only."
}

// Gate decides with one cheap completion whether a query needs a web search.
type Gate struct {
	client *llm.Client
	logger *zap.Logger
}

// NewGate creates a search necessity gate.
func NewGate(client *llm.Client, l *zap.Logger) *Gate {
	return &Gate{client: client, logger: logger.OrNop(l)}
}

// ShouldSearch reports whether a search would help answer query. Any
// answer containing "true" (case-insensitive) means yes; so does every
// failure, since skipping a needed search costs more than a wasted one.
func (g *Gate) ShouldSearch(ctx context.Context, query, language string) bool {
	out, err := g.client.Complete(ctx,
		[]llm.ChatMessage{
			llm.SystemMessage(NecessityCheckPrompt(language)),
			llm.UserMessage(NecessityCheckQuery(query)),
		},
		llm.WithTemperature(0),
		llm.WithMaxTokens(5),
		llm.WithLabel("search_check"),
	)
	if err != nil {
		if !llm.IsCanceled(err) {
			g.logger.Warn("search necessity check failed, searching anyway", zap.Error(err))
		}
		metrics.GateDecisions.WithLabelValues("fail_open").Inc()
		return true
	}

	decision := strings.Contains(strings.ToLower(out.Text), "true")
	metrics.GateDecisions.WithLabelValues(fmt.Sprintf("%t", decision)).Inc()
	g.logger.Debug("search necessity decided", zap.String("query", query), zap.Bool("search", decision))
	return decision
}
