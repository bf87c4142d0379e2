// Package search provides web search for seekr: the Tavily client, the
// fail-soft search service, the search necessity gate, near-duplicate
// merging and category news.
package search

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// MaxQueryLength is the soft budget for agent-composed search queries.
const MaxQueryLength = 400

// ErrMissingAPIKey is returned by clients constructed without credentials.
var ErrMissingAPIKey = errors.New("search: API key is missing")

// Result is a single ranked search hit.
type Result struct {
	Title            string     `json:"title"`
	URL              string     `json:"url"`
	Snippet          string     `json:"snippet"`
	Score            float64    `json:"score"`
	Domain           string     `json:"domain"`
	PublishedDate    *time.Time `json:"published_date,omitempty"`
	ImageURL         string     `json:"image_url,omitempty"`
	ImageDescription string     `json:"image_description,omitempty"`
}

// Search depths accepted by Options.SearchDepth.
const (
	DepthBasic    = "basic"
	DepthAdvanced = "advanced"
)

// Options tune a single search call.
type Options struct {
	SearchDepth              string   `json:"search_depth"`
	IncludeImages            bool     `json:"include_images"`
	IncludeImageDescriptions bool     `json:"include_image_descriptions,omitempty"`
	IncludeAnswer            bool     `json:"include_answer"`
	MaxResults               int      `json:"max_results"`
	Topic                    string   `json:"topic,omitempty"`
	TimeRange                string   `json:"time_range,omitempty"`
	ExcludeDomains           []string `json:"exclude_domains,omitempty"`
}

// DefaultOptions returns advanced depth, no images, no answer, five results.
func DefaultOptions() Options {
	return Options{
		SearchDepth: DepthAdvanced,
		MaxResults:  5,
	}
}

// Client is a search provider.
type Client interface {
	Search(ctx context.Context, query string, opts Options) ([]Result, error)
}

// TransportError is a network or HTTP failure talking to a search endpoint.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: http %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TruncateQuery trims q and cuts it to at most n runes.
func TruncateQuery(q string, n int) string {
	q = strings.TrimSpace(q)
	r := []rune(q)
	if len(r) <= n {
		return q
	}
	return strings.TrimSpace(string(r[:n]))
}

// DomainOf returns the URL's hostname without a leading "www.", or ""
// when the URL is not absolute.
func DomainOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// IsAbsoluteURL reports whether raw parses as an absolute http(s) URL.
func IsAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// FormatContext renders results as prompt context, one
// "[Source: title]\nsnippet\n" block per result.
func FormatContext(results []Result) string {
	blocks := make([]string, len(results))
	for i, r := range results {
		blocks[i] = fmt.Sprintf("[Source: %s]\n%s\n", r.Title, r.Snippet)
	}
	return strings.Join(blocks, "\n")
}
