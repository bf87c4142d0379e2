package orchestration

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/richinex/seekr/agent"
	"github.com/richinex/seekr/internal/logger"
	"github.com/richinex/seekr/llm"
	"github.com/richinex/seekr/search"
)

// DirectResponse is the direct path's answer, complete or partial.
type DirectResponse struct {
	Answer  string         `json:"answer"`
	Sources []agent.Source `json:"sources"`
	Related []string       `json:"related"`
}

// FailureDirectResponse is returned with fatal direct-path errors.
func FailureDirectResponse() DirectResponse {
	return DirectResponse{Answer: FailureAnswer, Sources: []agent.Source{}, Related: []string{}}
}

// UpdateFunc receives throttled partial answers and then the final one.
type UpdateFunc func(DirectResponse)

// DirectResponder answers with a single streamed completion, searching
// first when the gate asks for it. Related questions are generated
// alongside the answer.
type DirectResponder struct {
	client   *llm.Client
	search   *search.Service
	gate     *search.Gate
	interval time.Duration
	related  bool
	logger   *zap.Logger
}

// DirectOption configures a DirectResponder.
type DirectOption func(*DirectResponder)

// WithUpdateInterval sets the minimum gap between partial updates.
func WithUpdateInterval(d time.Duration) DirectOption {
	return func(r *DirectResponder) { r.interval = d }
}

// WithDirectRelated toggles follow-up generation. On by default.
func WithDirectRelated(enabled bool) DirectOption {
	return func(r *DirectResponder) { r.related = enabled }
}

// WithDirectLogger sets the responder's logger.
func WithDirectLogger(l *zap.Logger) DirectOption {
	return func(r *DirectResponder) { r.logger = logger.OrNop(l) }
}

// NewDirectResponder creates a direct-path responder. gate may be nil to
// search whenever a search backend is configured.
func NewDirectResponder(client *llm.Client, svc *search.Service, gate *search.Gate, opts ...DirectOption) *DirectResponder {
	r := &DirectResponder{
		client:   client,
		search:   svc,
		gate:     gate,
		interval: DefaultUpdateInterval,
		related:  true,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Answer streams an answer to query. onUpdate may be nil.
//
// Cancellation returns the partial answer with the context's error. A
// failed completion returns FailureDirectResponse and the error.
func (r *DirectResponder) Answer(ctx context.Context, query string, history []llm.ChatMessage, language string, onUpdate UpdateFunc) (DirectResponse, error) {
	if strings.TrimSpace(query) == "" {
		return DirectResponse{}, ErrEmptyQuery
	}

	results := r.searchWeb(ctx, query, language)
	sources := agent.ValidSources(agent.SourcesFromResults(results))
	var searchContext string
	if len(results) > 0 {
		searchContext = search.FormatContext(results)
	}

	var (
		mu      sync.Mutex
		related = agent.DefaultRelatedQuestions()
	)
	current := func(answer string) DirectResponse {
		mu.Lock()
		defer mu.Unlock()
		return DirectResponse{Answer: answer, Sources: slices.Clone(sources), Related: slices.Clone(related)}
	}

	throttle := NewThrottle[DirectResponse](r.interval, onUpdate)

	var (
		answer strings.Builder
		out    llm.Completion
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out, err = r.client.Complete(gctx, agent.DirectMessages(query, history, searchContext, language),
			llm.WithLabel("answer"),
			llm.WithOnToken(func(tok string) {
				answer.WriteString(tok)
				throttle.Update(current(answer.String()))
			}),
		)
		return err
	})
	if r.related {
		g.Go(func() error {
			qs := agent.RelatedForConversation(gctx, r.client, query, history, language, r.logger)
			mu.Lock()
			related = qs
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if ctx.Err() != nil || llm.IsCanceled(err) {
			r.logger.Debug("direct answer canceled", zap.Int("partial_len", len(out.Text)))
			partial := current(out.Text)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return partial, ctxErr
			}
			return partial, err
		}
		r.logger.Error("direct answer failed", zap.Error(err))
		return FailureDirectResponse(), err
	}

	final := current(out.Text)
	throttle.Update(final)
	throttle.Flush()
	return final, nil
}

func (r *DirectResponder) searchWeb(ctx context.Context, query, language string) []search.Result {
	if r.search == nil || !r.search.Enabled() {
		return []search.Result{}
	}
	if r.gate != nil && !r.gate.ShouldSearch(ctx, query, agent.LanguageName(language)) {
		return []search.Result{}
	}
	return r.search.Search(ctx, search.TruncateQuery(query, search.MaxQueryLength), search.DefaultOptions())
}
