package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinex/seekr/search"
)

func sampleEntry() search.NewsEntry {
	published := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	return search.NewsEntry{
		Articles: []search.Result{
			{Title: "Breaking", URL: "https://news.example.com/1", Domain: "news.example.com", PublishedDate: &published},
			{Title: "Second", URL: "https://news.example.com/2", ImageURL: "https://img.example.com/2.png"},
		},
		FetchedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestMemoryNewsCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryNewsCache()

	_, ok, err := c.Get(ctx, "science")
	require.NoError(t, err)
	assert.False(t, ok)

	entry := sampleEntry()
	require.NoError(t, c.Set(ctx, "science", entry))

	got, ok, err := c.Get(ctx, "science")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entry, got)

	// Mutating the caller's slice after Set does not leak into the cache.
	entry.Articles[0].Title = "changed"
	got, _, _ = c.Get(ctx, "science")
	assert.Equal(t, "Breaking", got.Articles[0].Title)

	require.NoError(t, c.Set(ctx, "science", search.NewsEntry{Articles: []search.Result{{Title: "only"}}}))
	got, _, _ = c.Get(ctx, "science")
	assert.Len(t, got.Articles, 1)
}

func newRedisCache(t *testing.T, ttl time.Duration) (*RedisNewsCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := NewRedisNewsCache(client, ttl)
	t.Cleanup(func() { c.Close() })
	return c, mr
}

func TestRedisNewsCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t, time.Minute)

	_, ok, err := c.Get(ctx, "business")
	require.NoError(t, err)
	assert.False(t, ok)

	entry := sampleEntry()
	require.NoError(t, c.Set(ctx, "business", entry))
	assert.True(t, mr.Exists("seekr:news:business"))
	assert.Equal(t, time.Minute, mr.TTL("seekr:news:business"))

	got, ok, err := c.Get(ctx, "business")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entry.Articles[0].Title, got.Articles[0].Title)
	assert.True(t, entry.FetchedAt.Equal(got.FetchedAt))
	require.NotNil(t, got.Articles[0].PublishedDate)
	assert.True(t, entry.Articles[0].PublishedDate.Equal(*got.Articles[0].PublishedDate))
	assert.Equal(t, "https://img.example.com/2.png", got.Articles[1].ImageURL)
}

func TestRedisNewsCacheExpires(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisCache(t, 0)
	require.NoError(t, c.Set(ctx, "world", sampleEntry()))
	assert.Equal(t, DefaultNewsTTL, mr.TTL("seekr:news:world"))

	mr.FastForward(DefaultNewsTTL + time.Second)
	_, ok, err := c.Get(ctx, "world")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisNewsCacheCorruptValue(t *testing.T) {
	c, mr := newRedisCache(t, time.Minute)
	require.NoError(t, mr.Set("seekr:news:health", "{not json"))

	_, ok, err := c.Get(context.Background(), "health")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisNewsCacheServesNewsService(t *testing.T) {
	c, _ := newRedisCache(t, time.Minute)
	src := &countingClient{results: []search.Result{
		{Title: "Alpha story", URL: "https://a.example.com/1"},
		{Title: "Beta story", URL: "https://b.example.com/2"},
	}}
	svc := search.NewNewsService(src, search.WithNewsCache(c),
		search.WithNewsQueries(search.NewsQuery{Name: "latest", Template: "latest %s", TimeRange: "day"}))

	ctx := context.Background()
	first, err := svc.ByCategory(ctx, "gaming", 2)
	require.NoError(t, err)
	second, err := svc.ByCategory(ctx, "gaming", 2)
	require.NoError(t, err)

	assert.Equal(t, 1, src.calls)
	assert.Equal(t, first[1].Title, second[1].Title)
}

func TestDialRedisNewsCacheUnreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := DialRedisNewsCache(ctx, "127.0.0.1:1", time.Minute)
	assert.Error(t, err)
}

type countingClient struct {
	results []search.Result
	calls   int
}

func (c *countingClient) Search(context.Context, string, search.Options) ([]search.Result, error) {
	c.calls++
	return c.results, nil
}
