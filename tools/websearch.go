// Web search tool.

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/richinex/seekr/search"
)

// WebSearchTool exposes the search service to the model.
type WebSearchTool struct {
	service *search.Service
	opts    search.Options
}

// NewWebSearchTool wraps svc with DefaultOptions.
func NewWebSearchTool(svc *search.Service) *WebSearchTool {
	return &WebSearchTool{service: svc, opts: search.DefaultOptions()}
}

// Metadata returns the tool metadata.
func (t *WebSearchTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        "web_search",
		Description: "Search the web for current information and return ranked results with snippets",
		Parameters: []ToolParameter{
			{Name: "query", ParamType: "string", Description: "The search query", Required: true},
			{Name: "max_results", ParamType: "integer", Description: "Maximum number of results (default 5)", Required: false},
		},
	}
}

type webSearchArgs struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

func parseWebSearchArgs(args json.RawMessage) (webSearchArgs, error) {
	var a webSearchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return a, fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(a.Query) == "" {
		return a, errors.New("query cannot be empty")
	}
	return a, nil
}

// Validate validates the arguments.
func (t *WebSearchTool) Validate(args json.RawMessage) error {
	_, err := parseWebSearchArgs(args)
	return err
}

// Execute runs the search. Results are returned as a JSON array; an empty
// array means nothing was found or the backend was unavailable.
func (t *WebSearchTool) Execute(ctx context.Context, args json.RawMessage) (ToolResult, error) {
	a, err := parseWebSearchArgs(args)
	if err != nil {
		return FailureResult(err), nil
	}
	if t.service == nil || !t.service.Enabled() {
		return FailureResultf("web search is not configured"), nil
	}

	opts := t.opts
	if a.MaxResults > 0 {
		opts.MaxResults = a.MaxResults
	}
	results := t.service.Search(ctx, search.TruncateQuery(a.Query, search.MaxQueryLength), opts)
	if err := ctx.Err(); err != nil {
		return ToolResult{}, err
	}
	return JSONResult(results), nil
}

var _ Tool = (*WebSearchTool)(nil)
