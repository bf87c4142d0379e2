// Auto-fallback wrapper: replays a request against a secondary provider
// when the primary fails before producing anything.

package llm

import (
	"context"
	"iter"

	"go.uber.org/zap"

	"github.com/richinex/seekr/internal/logger"
	"github.com/richinex/seekr/metrics"
)

// FallbackProvider streams from primary and switches to secondary when
// primary fails before its first event. Once any event has been yielded
// the primary's error is passed through, since emitted output cannot be
// taken back.
type FallbackProvider struct {
	primary   Provider
	secondary Provider
	logger    *zap.Logger
}

// NewFallbackProvider wraps primary with secondary as the fallback.
func NewFallbackProvider(primary, secondary Provider, l *zap.Logger) *FallbackProvider {
	return &FallbackProvider{primary: primary, secondary: secondary, logger: logger.OrNop(l)}
}

// Name returns the primary provider's name.
func (f *FallbackProvider) Name() string {
	return f.primary.Name()
}

// Model returns the primary provider's model.
func (f *FallbackProvider) Model() string {
	return f.primary.Model()
}

// Stream implements Provider.
func (f *FallbackProvider) Stream(ctx context.Context, req CompletionRequest) iter.Seq2[StreamEvent, error] {
	return func(yield func(StreamEvent, error) bool) {
		emitted := false
		for ev, err := range f.primary.Stream(ctx, req) {
			if err == nil {
				emitted = true
				if !yield(ev, nil) {
					return
				}
				continue
			}
			if emitted || ctx.Err() != nil {
				yield(StreamEvent{}, err)
				return
			}

			f.logger.Warn("primary provider failed, using fallback",
				zap.String("provider", f.primary.Name()),
				zap.String("fallback", f.secondary.Name()),
				zap.String("label", req.Label),
				zap.Error(err))
			metrics.LLMRequests.WithLabelValues(f.primary.Name(), req.Label, metrics.StatusFallback).Inc()

			for ev, err := range f.secondary.Stream(ctx, req) {
				if !yield(ev, err) || err != nil {
					return
				}
			}
			return
		}
	}
}

// Verify FallbackProvider implements Provider
var _ Provider = (*FallbackProvider)(nil)
