package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/richinex/seekr/internal/logger"
	"github.com/richinex/seekr/metrics"
)

// Category news defaults.
const (
	DefaultNewsCount     = 10
	DefaultNewsRateLimit = 60 * time.Second
	newsResultsPerQuery  = 25
)

// NewsQuery is one leg of the category fan-out. Template receives the
// category through a single %s.
type NewsQuery struct {
	Name      string
	Template  string
	TimeRange string
}

// DefaultNewsQueries fetches the latest stories first, then the week's top.
var DefaultNewsQueries = []NewsQuery{
	{Name: "latest", Template: "latest breaking %s news today", TimeRange: "day"},
	{Name: "top", Template: "top trending %s news this week", TimeRange: "week"},
}

// NewsExcludedDomains are never used as news sources.
var NewsExcludedDomains = []string{
	"wikipedia.org", "reddit.com", "youtube.com",
	"facebook.com", "twitter.com", "instagram.com",
	"tiktok.com", "pinterest.com",
}

// NewsEntry is a cached category result.
type NewsEntry struct {
	Articles  []Result  `json:"articles"`
	FetchedAt time.Time `json:"fetched_at"`
}

// NewsCache stores the latest articles per category. Set replaces the
// whole entry.
type NewsCache interface {
	Get(ctx context.Context, category string) (NewsEntry, bool, error)
	Set(ctx context.Context, category string, entry NewsEntry) error
}

// NewsSource supplies ready-made category news, e.g. an offline catalog.
type NewsSource interface {
	News(ctx context.Context, category string, maxResults int) ([]Result, error)
}

// NewsService fetches, merges and caches news per category.
type NewsService struct {
	client    Client
	fallback  NewsSource
	cache     NewsCache
	dedup     Deduplicator
	queries   []NewsQuery
	rateLimit time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// NewsOption configures a NewsService.
type NewsOption func(*NewsService)

// WithNewsCache enables caching.
func WithNewsCache(c NewsCache) NewsOption {
	return func(n *NewsService) { n.cache = c }
}

// WithNewsFallback uses src when fetching fails.
func WithNewsFallback(src NewsSource) NewsOption {
	return func(n *NewsService) { n.fallback = src }
}

// WithNewsQueries replaces the fan-out legs.
func WithNewsQueries(qs ...NewsQuery) NewsOption {
	return func(n *NewsService) {
		if len(qs) > 0 {
			n.queries = qs
		}
	}
}

// WithRateLimit sets how long a sufficiently large cached entry is served
// without refetching.
func WithRateLimit(d time.Duration) NewsOption {
	return func(n *NewsService) { n.rateLimit = d }
}

// WithDeduplicator sets the merge policy.
func WithDeduplicator(d Deduplicator) NewsOption {
	return func(n *NewsService) { n.dedup = d }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) NewsOption {
	return func(n *NewsService) { n.now = now }
}

// WithNewsLogger sets the logger.
func WithNewsLogger(l *zap.Logger) NewsOption {
	return func(n *NewsService) { n.logger = logger.OrNop(l) }
}

// NewNewsService creates a news service over client, which may be nil
// when no search key is configured.
func NewNewsService(client Client, opts ...NewsOption) *NewsService {
	n := &NewsService{
		client:    client,
		dedup:     NewDeduplicator(DefaultSimilarityThreshold),
		queries:   DefaultNewsQueries,
		rateLimit: DefaultNewsRateLimit,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// ByCategory returns up to count deduplicated articles for category.
// Fetch failures are logged and produce an empty list (or the fallback's
// articles); only cancellation is returned as an error.
func (n *NewsService) ByCategory(ctx context.Context, category string, count int) ([]Result, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		category = "general"
	}
	if count <= 0 {
		count = DefaultNewsCount
	}

	now := n.now()
	if entry, ok := n.cached(ctx, category); ok &&
		now.Sub(entry.FetchedAt) < n.rateLimit && len(entry.Articles) >= count {
		metrics.NewsCache.WithLabelValues("hit").Inc()
		return entry.Articles[:count], nil
	}
	metrics.NewsCache.WithLabelValues("miss").Inc()

	articles, err := n.fetch(ctx, category, count)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		n.logger.Warn("news fetch failed",
			zap.String("category", category),
			zap.Bool("fallback", n.fallback != nil),
			zap.Error(err))
		articles = n.fromFallback(ctx, category, count)
	}

	if n.cache != nil {
		if err := n.cache.Set(ctx, category, NewsEntry{Articles: articles, FetchedAt: now}); err != nil {
			n.logger.Warn("news cache write failed", zap.String("category", category), zap.Error(err))
		}
	}
	return articles, nil
}

func (n *NewsService) cached(ctx context.Context, category string) (NewsEntry, bool) {
	if n.cache == nil {
		return NewsEntry{}, false
	}
	entry, ok, err := n.cache.Get(ctx, category)
	if err != nil {
		n.logger.Warn("news cache read failed", zap.String("category", category), zap.Error(err))
		return NewsEntry{}, false
	}
	return entry, ok
}

func (n *NewsService) fetch(ctx context.Context, category string, count int) ([]Result, error) {
	if n.client == nil {
		return n.fromFallback(ctx, category, count), nil
	}

	lists := make([][]Result, len(n.queries))
	g, gctx := errgroup.WithContext(ctx)
	for i, q := range n.queries {
		g.Go(func() error {
			opts := Options{
				SearchDepth:              DepthAdvanced,
				IncludeImages:            true,
				IncludeImageDescriptions: true,
				MaxResults:               newsResultsPerQuery,
				Topic:                    "news",
				TimeRange:                q.TimeRange,
				ExcludeDomains:           NewsExcludedDomains,
			}
			results, err := n.client.Search(gctx, fmt.Sprintf(q.Template, category), opts)
			if err != nil {
				return fmt.Errorf("%s news: %w", q.Name, err)
			}
			lists[i] = results
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := n.dedup.MergeAll(lists...)
	for i := range merged {
		if merged[i].Domain == "" {
			merged[i].Domain = DomainOf(merged[i].URL)
		}
	}
	if len(merged) > count {
		merged = merged[:count]
	}
	return merged, nil
}

func (n *NewsService) fromFallback(ctx context.Context, category string, count int) []Result {
	if n.fallback == nil {
		return []Result{}
	}
	articles, err := n.fallback.News(ctx, category, count)
	if err != nil {
		n.logger.Warn("fallback news failed", zap.String("category", category), zap.Error(err))
		return []Result{}
	}
	if len(articles) > count {
		articles = articles[:count]
	}
	return articles
}
