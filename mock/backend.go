// Package mock provides an offline backend: a deterministic completion
// provider, web search and a category news catalog, with artificial
// latency so that streaming and progress can be seen without any API key.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/richinex/seekr/llm"
	"github.com/richinex/seekr/search"
	"github.com/richinex/seekr/tools"
)

// DefaultWordDelay is the pause between streamed words.
const DefaultWordDelay = 30 * time.Millisecond

// Latency is the artificial delay before each kind of response.
type Latency struct {
	Search      time.Duration
	News        time.Duration
	Plan        time.Duration
	SearchAgent time.Duration
	Consolidate time.Duration
	Related     time.Duration
}

// DefaultLatency mimics a slow but healthy remote service.
func DefaultLatency() Latency {
	return Latency{
		Search:      500 * time.Millisecond,
		News:        800 * time.Millisecond,
		Plan:        300 * time.Millisecond,
		SearchAgent: 600 * time.Millisecond,
		Consolidate: 400 * time.Millisecond,
		Related:     200 * time.Millisecond,
	}
}

// Backend implements llm.Provider, search.Client and search.NewsSource.
type Backend struct {
	wordDelay time.Duration
	charDelay time.Duration
	latency   Latency
	now       func() time.Time

	mu   sync.Mutex
	urls map[string]string // title → URL of every result handed out
}

// Option configures a Backend.
type Option func(*Backend)

// WithDelay sets the pause between streamed words.
func WithDelay(d time.Duration) Option {
	return func(b *Backend) { b.wordDelay = d }
}

// WithLatency sets the per-response delays.
func WithLatency(l Latency) Option {
	return func(b *Backend) { b.latency = l }
}

// WithoutLatency removes every artificial delay.
func WithoutLatency() Option {
	return func(b *Backend) {
		b.wordDelay = 0
		b.charDelay = 0
		b.latency = Latency{}
	}
}

// New creates a mock backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		wordDelay: DefaultWordDelay,
		charDelay: 10 * time.Millisecond,
		latency:   DefaultLatency(),
		now:       time.Now,
		urls:      make(map[string]string),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the provider name.
func (b *Backend) Name() string { return "mock" }

// Model returns the model name.
func (b *Backend) Model() string { return "mock-model" }

// reply is one scripted completion.
type reply struct {
	wait     time.Duration
	step     time.Duration
	tokens   []string
	toolArgs []string
}

// Stream implements llm.Provider.
func (b *Backend) Stream(ctx context.Context, req llm.CompletionRequest) iter.Seq2[llm.StreamEvent, error] {
	r := b.respond(req)
	return func(yield func(llm.StreamEvent, error) bool) {
		if err := sleep(ctx, r.wait); err != nil {
			yield(llm.StreamEvent{}, err)
			return
		}
		emit := func(kind llm.EventKind, parts []string) bool {
			for _, p := range parts {
				if err := sleep(ctx, r.step); err != nil {
					yield(llm.StreamEvent{}, err)
					return false
				}
				if !yield(llm.StreamEvent{Kind: kind, Text: p}, nil) {
					return false
				}
			}
			return true
		}
		if emit(llm.EventToken, r.tokens) {
			emit(llm.EventToolArgs, r.toolArgs)
		}
	}
}

func (b *Backend) respond(req llm.CompletionRequest) reply {
	user := lastUserMessage(req.Messages)

	switch req.ToolChoice {
	case tools.RelatedQuestionsTool.Name:
		data, _ := json.Marshal(map[string][]string{"questions": relatedQuestions})
		return reply{wait: b.latency.Related, step: b.charDelay, toolArgs: chars(string(data))}
	case tools.ExtractLocationTool.Name:
		data, _ := json.Marshal(map[string]string{"location": extractLocation(user)})
		return reply{toolArgs: []string{string(data)}}
	case tools.WeatherTool.Name:
		data, _ := json.Marshal(mockWeather)
		return reply{toolArgs: []string{string(data)}}
	}

	switch req.Label {
	case "search_check":
		q := strings.ToLower(gateQuery(user))
		answer := "false"
		if strings.Contains(q, "search") || strings.Contains(q, "find") || strings.Contains(q, "latest") {
			answer = "true"
		}
		return reply{tokens: []string{answer}}
	case "plan":
		data, _ := json.Marshal(b.plan(topic(user), systemLanguage(req.Messages)))
		return reply{wait: b.latency.Plan, tokens: []string{string(data)}}
	case "search_query":
		return reply{wait: b.latency.SearchAgent, tokens: []string{originalQuery(user)}}
	case "consolidate":
		data, _ := json.Marshal(b.consolidate(originalQuery(user), user))
		return reply{wait: b.latency.Consolidate, tokens: []string{string(data)}}
	}

	return reply{step: b.wordDelay, tokens: words(mockResponse(topic(user)))}
}

func (b *Backend) plan(query, language string) map[string]any {
	return map[string]any{
		"answer":     "Plan for handling: " + query,
		"sources":    []any{},
		"confidence": 0.85,
		"steps": []map[string]any{
			{"id": 1, "description": "Analyzing query in " + language, "requires_search": true, "requires_tools": []string{"web_search"}, "status": "pending"},
			{"id": 2, "description": "Gathering information in " + language, "requires_search": true, "requires_tools": []string{}, "status": "pending"},
			{"id": 3, "description": "Synthesizing response in " + language, "requires_search": false, "requires_tools": []string{}, "status": "pending"},
		},
	}
}

var sourceLine = regexp.MustCompile(`\[Source: ([^\]\n]*)\]`)

// consolidate cites every result in the prompt that this backend handed
// out earlier, since only those URLs are known.
func (b *Backend) consolidate(query, prompt string) map[string]any {
	type source struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	}
	sources := []source{}
	b.mu.Lock()
	for _, m := range sourceLine.FindAllStringSubmatch(prompt, -1) {
		if u, ok := b.urls[m[1]]; ok {
			sources = append(sources, source{Title: m[1], URL: u})
		}
	}
	b.mu.Unlock()

	answer := mockResponse(query)
	if len(sources) > 0 {
		cites := make([]string, len(sources))
		for i, s := range sources {
			cites[i] = fmt.Sprintf("[%d] %s", i+1, s.Title)
		}
		answer += "\n\nSources: " + strings.Join(cites, ", ")
	}
	return map[string]any{"answer": answer, "sources": sources, "confidence": 0.9}
}

// Search implements search.Client with the default result set, tailored
// to the query's first word.
func (b *Backend) Search(ctx context.Context, query string, opts search.Options) ([]search.Result, error) {
	if err := sleep(ctx, b.latency.Search); err != nil {
		return nil, err
	}

	first := "topic"
	if f := strings.Fields(query); len(f) > 0 {
		first = f[0]
	}
	published := b.now()
	out := make([]search.Result, 0, len(defaultResults))
	for _, r := range defaultResults {
		r.Title = strings.Replace(r.Title, "example", first, 1)
		r.Snippet = strings.Replace(r.Snippet, "topic", query, 1)
		r.PublishedDate = &published
		out = append(out, r)
	}
	if opts.MaxResults > 0 && len(out) > opts.MaxResults {
		out = out[:opts.MaxResults]
	}

	b.remember(out)
	return out, nil
}

// News implements search.NewsSource.
func (b *Backend) News(ctx context.Context, category string, maxResults int) ([]search.Result, error) {
	if err := sleep(ctx, b.latency.News); err != nil {
		return nil, err
	}
	if maxResults <= 0 {
		maxResults = search.DefaultNewsCount
	}
	out := catalogNews(category, maxResults, b.now())
	b.remember(out)
	return out, nil
}

func (b *Backend) remember(results []search.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range results {
		b.urls[r.Title] = r.URL
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func lastUserMessage(messages []llm.ChatMessage) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == llm.RoleUser {
			return messages[i].Content
		}
	}
	return "Hello"
}

var languagePattern = regexp.MustCompile(`(?i:only) in ([A-Z][a-zA-Z]+)`)

func systemLanguage(messages []llm.ChatMessage) string {
	for _, m := range messages {
		if m.Role != llm.RoleSystem {
			continue
		}
		if match := languagePattern.FindStringSubmatch(m.Content); match != nil {
			return match[1]
		}
	}
	return "English"
}

// topic strips the follow-up framing from a user turn.
func topic(text string) string {
	if _, after, ok := strings.Cut(text, "\nNew question: "); ok {
		return after
	}
	return text
}

func gateQuery(text string) string {
	_, rest, ok := strings.Cut(text, `Query: "`)
	if !ok {
		return text
	}
	if i := strings.LastIndex(rest, "\"\n"); i >= 0 {
		return rest[:i]
	}
	return rest
}

func originalQuery(text string) string {
	_, rest, ok := strings.Cut(text, "Original query: ")
	if !ok {
		return topic(text)
	}
	q, _, _ := strings.Cut(rest, "\n\nPlan:")
	return topic(q)
}

var locationPattern = regexp.MustCompile(`\b(?:in|for)\s+(\p{Lu}\p{L}*(?:\s+\p{Lu}\p{L}*)*)`)

func extractLocation(text string) string {
	if _, q, ok := strings.Cut(text, "this query: "); ok {
		text = q
	}
	if m := locationPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return "London"
}

func words(text string) []string {
	parts := strings.Split(text, " ")
	for i := 1; i < len(parts); i++ {
		parts[i] = " " + parts[i]
	}
	return parts
}

func chars(text string) []string {
	out := make([]string, 0, len(text))
	for _, r := range text {
		out = append(out, string(r))
	}
	return out
}

var (
	_ llm.Provider      = (*Backend)(nil)
	_ search.Client     = (*Backend)(nil)
	_ search.NewsSource = (*Backend)(nil)
)
