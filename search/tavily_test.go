package search

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTavilySearchMapsResults(t *testing.T) {
	var body map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"results": [
				{"title": "A", "url": "https://www.alpha.com/a", "content": "first", "score": 0.9, "published_date": "2025-03-01"},
				{"title": "B", "url": "https://beta.org/b", "content": "second", "score": 0.5},
				{"title": "C", "url": "https://gamma.net/c", "content": "third", "score": 0.1}
			],
			"images": [
				{"url": "https://img/1.png", "description": "one"},
				"https://img/2.png"
			]
		}`)
	}))
	defer srv.Close()

	c := NewTavilyClient("tvly-key", WithEndpoint(srv.URL))
	opts := DefaultOptions()
	opts.IncludeImages = true
	opts.MaxResults = 3
	got, err := c.Search(context.Background(), "golang", opts)
	require.NoError(t, err)

	assert.Equal(t, "Bearer tvly-key", auth)
	assert.Equal(t, "golang", body["query"])
	assert.Equal(t, "advanced", body["search_depth"])
	assert.Equal(t, true, body["include_images"])
	assert.EqualValues(t, 3, body["max_results"])

	require.Len(t, got, 3)
	assert.Equal(t, "alpha.com", got[0].Domain)
	assert.Equal(t, "first", got[0].Snippet)
	require.NotNil(t, got[0].PublishedDate)
	assert.Equal(t, 2025, got[0].PublishedDate.Year())
	assert.Nil(t, got[1].PublishedDate)

	// Images are assigned round-robin.
	assert.Equal(t, "https://img/1.png", got[0].ImageURL)
	assert.Equal(t, "one", got[0].ImageDescription)
	assert.Equal(t, "https://img/2.png", got[1].ImageURL)
	assert.Equal(t, "https://img/1.png", got[2].ImageURL)
}

func TestTavilyCapsAtMaxResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"results":[{"title":"1","url":"https://a/1"},{"title":"2","url":"https://a/2"},{"title":"3","url":"https://a/3"}]}`)
	}))
	defer srv.Close()

	got, err := NewTavilyClient("k", WithEndpoint(srv.URL)).Search(context.Background(), "q", Options{MaxResults: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestTavilyRetriesOn429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = io.WriteString(w, `{"results":[{"title":"ok","url":"https://a/ok"}]}`)
	}))
	defer srv.Close()

	c := NewTavilyClient("k", WithEndpoint(srv.URL), WithBackoff(time.Millisecond, 2*time.Millisecond))
	got, err := c.Search(context.Background(), "q", DefaultOptions())
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.EqualValues(t, 3, calls.Load())
}

func TestTavilyRetryHonorsCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	c := NewTavilyClient("k", WithEndpoint(srv.URL), WithBackoff(time.Hour, time.Hour))
	_, err := c.Search(ctx, "q", DefaultOptions())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTavilyErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewTavilyClient("bad", WithEndpoint(srv.URL)).Search(context.Background(), "q", DefaultOptions())
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, http.StatusUnauthorized, te.StatusCode)
	assert.Contains(t, te.Error(), "invalid api key")
}

func TestTavilyInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"results": [`)
	}))
	defer srv.Close()

	_, err := NewTavilyClient("k", WithEndpoint(srv.URL)).Search(context.Background(), "q", DefaultOptions())
	var te *TransportError
	assert.True(t, errors.As(err, &te))
}

func TestTavilyMissingKey(t *testing.T) {
	_, err := NewTavilyClient("  ").Search(context.Background(), "q", DefaultOptions())
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestTruncateQuery(t *testing.T) {
	assert.Equal(t, "abc", TruncateQuery("  abc  ", 10))
	assert.Equal(t, "ab", TruncateQuery("abcdef", 2))
	assert.Equal(t, "héé", TruncateQuery("hééllo", 3))
	assert.Equal(t, "a", TruncateQuery("a bc", 2))
}

func TestDomainOf(t *testing.T) {
	assert.Equal(t, "example.com", DomainOf("https://www.example.com/x"))
	assert.Equal(t, "news.example.com", DomainOf("http://news.example.com"))
	assert.Equal(t, "", DomainOf("not a url"))
}

func TestFormatContext(t *testing.T) {
	got := FormatContext([]Result{{Title: "A", Snippet: "one"}, {Title: "B", Snippet: "two"}})
	assert.Equal(t, "[Source: A]\none\n\n[Source: B]\ntwo\n", got)
	assert.Equal(t, "", FormatContext(nil))
}
