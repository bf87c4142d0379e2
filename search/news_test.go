package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// queryClient answers by matching the query prefix.
type queryClient struct {
	mu      sync.Mutex
	byQuery map[string][]Result
	err     error
	seen    []Options
	calls   int
}

func (q *queryClient) Search(_ context.Context, query string, opts Options) ([]Result, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls++
	q.seen = append(q.seen, opts)
	if q.err != nil {
		return nil, q.err
	}
	for prefix, rs := range q.byQuery {
		if strings.HasPrefix(query, prefix) {
			return rs, nil
		}
	}
	return nil, nil
}

type mapCache struct {
	entries map[string]NewsEntry
	sets    int
}

func newMapCache() *mapCache { return &mapCache{entries: map[string]NewsEntry{}} }

func (m *mapCache) Get(_ context.Context, category string) (NewsEntry, bool, error) {
	e, ok := m.entries[category]
	return e, ok, nil
}

func (m *mapCache) Set(_ context.Context, category string, e NewsEntry) error {
	m.sets++
	m.entries[category] = e
	return nil
}

type staticNews struct{ articles []Result }

func (s staticNews) News(_ context.Context, _ string, max int) ([]Result, error) {
	if len(s.articles) > max {
		return s.articles[:max], nil
	}
	return s.articles, nil
}

func articles(prefix string, n int) []Result {
	out := make([]Result, n)
	for i := range out {
		out[i] = Result{
			Title: fmt.Sprintf("%s story number %d about something", prefix, i),
			URL:   fmt.Sprintf("https://%s%d.example.com/%s/%d", prefix, i, prefix, i),
		}
	}
	return out
}

func TestNewsMergesLatestBeforeTop(t *testing.T) {
	shared := Result{Title: "Shared headline", URL: "https://wire.example.com/shared"}
	c := &queryClient{byQuery: map[string][]Result{
		"latest": append([]Result{shared}, articles("latest", 2)...),
		"top":    append(articles("top", 2), shared),
	}}

	got, err := NewNewsService(c).ByCategory(context.Background(), "Technology", 10)
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, "Shared headline", got[0].Title)
	assert.Equal(t, "https://latest0.example.com/latest/0", got[1].URL)
	assert.Equal(t, "https://top1.example.com/top/1", got[4].URL)
	assert.Equal(t, "wire.example.com", got[0].Domain)

	require.Len(t, c.seen, 2)
	for _, o := range c.seen {
		assert.Equal(t, "news", o.Topic)
		assert.Equal(t, DepthAdvanced, o.SearchDepth)
		assert.True(t, o.IncludeImages)
		assert.Equal(t, NewsExcludedDomains, o.ExcludeDomains)
		assert.Contains(t, []string{"day", "week"}, o.TimeRange)
	}
}

func TestNewsCapsAtCount(t *testing.T) {
	c := &queryClient{byQuery: map[string][]Result{
		"latest": articles("latest", 8),
		"top":    articles("top", 8),
	}}
	got, err := NewNewsService(c).ByCategory(context.Background(), "sports", 0)
	require.NoError(t, err)
	assert.Len(t, got, DefaultNewsCount)
}

func TestNewsServesCacheWithinRateLimit(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := &queryClient{byQuery: map[string][]Result{
		"latest": articles("latest", 5),
		"top":    articles("top", 5),
	}}
	cache := newMapCache()
	svc := NewNewsService(c, WithNewsCache(cache), WithClock(func() time.Time { return now }))

	first, err := svc.ByCategory(context.Background(), "business", 4)
	require.NoError(t, err)
	assert.Equal(t, 2, c.calls)

	now = now.Add(30 * time.Second)
	second, err := svc.ByCategory(context.Background(), "business", 4)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, c.calls, "served from cache")

	// A larger request than the cached entry refetches.
	_, err = svc.ByCategory(context.Background(), "business", 8)
	require.NoError(t, err)
	assert.Equal(t, 4, c.calls)

	now = now.Add(2 * time.Minute)
	_, err = svc.ByCategory(context.Background(), "business", 4)
	require.NoError(t, err)
	assert.Equal(t, 6, c.calls, "stale entry refetched")
}

func TestNewsFailureUsesFallback(t *testing.T) {
	c := &queryClient{err: errors.New("quota exceeded")}
	fb := staticNews{articles: articles("offline", 20)}
	cache := newMapCache()

	got, err := NewNewsService(c, WithNewsFallback(fb), WithNewsCache(cache)).ByCategory(context.Background(), "health", 5)
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.Equal(t, 1, cache.sets)
}

func TestNewsFailureWithoutFallbackIsEmpty(t *testing.T) {
	c := &queryClient{err: errors.New("down")}
	got, err := NewNewsService(c).ByCategory(context.Background(), "world", 5)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestNewsWithoutClientUsesFallback(t *testing.T) {
	got, err := NewNewsService(nil, WithNewsFallback(staticNews{articles: articles("offline", 3)})).
		ByCategory(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestNewsCancellationIsReturned(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &queryClient{err: context.Canceled}
	_, err := NewNewsService(c).ByCategory(ctx, "science", 5)
	assert.ErrorIs(t, err, context.Canceled)
}
