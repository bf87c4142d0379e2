package search

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/richinex/seekr/internal/logger"
	"github.com/richinex/seekr/metrics"
)

// Service wraps a Client so that searching never fails the caller: a
// transport failure yields an empty list, or the fallback client's
// results when one is configured.
type Service struct {
	client   Client
	fallback Client
	logger   *zap.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithFallback substitutes fb's results whenever the primary client fails.
func WithFallback(fb Client) ServiceOption {
	return func(s *Service) { s.fallback = fb }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger.OrNop(l) }
}

// NewService creates a search service. client may be nil when no search
// provider is configured.
func NewService(client Client, opts ...ServiceOption) *Service {
	s := &Service{client: client, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enabled reports whether any search backend is available.
func (s *Service) Enabled() bool {
	return s.client != nil || s.fallback != nil
}

// Search runs query and always returns a non-nil slice.
func (s *Service) Search(ctx context.Context, query string, opts Options) []Result {
	if s.client == nil {
		return s.useFallback(ctx, query, opts)
	}

	results, err := s.client.Search(ctx, query, opts)
	switch {
	case err == nil:
		metrics.SearchRequests.WithLabelValues("primary", metrics.StatusOK).Inc()
		if results == nil {
			results = []Result{}
		}
		return results
	case isCanceled(err) || ctx.Err() != nil:
		metrics.SearchRequests.WithLabelValues("primary", metrics.StatusCanceled).Inc()
		return []Result{}
	}

	metrics.SearchRequests.WithLabelValues("primary", metrics.StatusError).Inc()
	s.logger.Warn("web search failed",
		zap.String("query", query),
		zap.Bool("fallback", s.fallback != nil),
		zap.Error(err))
	return s.useFallback(ctx, query, opts)
}

func (s *Service) useFallback(ctx context.Context, query string, opts Options) []Result {
	if s.fallback == nil {
		return []Result{}
	}
	results, err := s.fallback.Search(ctx, query, opts)
	if err != nil {
		metrics.SearchRequests.WithLabelValues("fallback", metrics.StatusError).Inc()
		if !isCanceled(err) {
			s.logger.Warn("fallback search failed", zap.Error(err))
		}
		return []Result{}
	}
	metrics.SearchRequests.WithLabelValues("fallback", metrics.StatusOK).Inc()
	if results == nil {
		results = []Result{}
	}
	return results
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
