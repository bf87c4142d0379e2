package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTavilyEndpoint is Tavily's search API.
const DefaultTavilyEndpoint = "https://api.tavily.com/search"

// TavilyClient calls the Tavily search API.
type TavilyClient struct {
	apiKey       string
	endpoint     string
	client       *http.Client
	initialDelay time.Duration
	maxDelay     time.Duration
}

// TavilyOption configures a TavilyClient.
type TavilyOption func(*TavilyClient)

// WithEndpoint overrides the API endpoint.
func WithEndpoint(endpoint string) TavilyOption {
	return func(t *TavilyClient) {
		if endpoint != "" {
			t.endpoint = endpoint
		}
	}
}

// WithHTTPClient supplies the HTTP client, e.g. to set a timeout.
func WithHTTPClient(c *http.Client) TavilyOption {
	return func(t *TavilyClient) { t.client = c }
}

// WithBackoff sets the initial and maximum delay between retries after
// HTTP 429.
func WithBackoff(initial, max time.Duration) TavilyOption {
	return func(t *TavilyClient) {
		t.initialDelay = initial
		t.maxDelay = max
	}
}

// NewTavilyClient constructs a Tavily search client.
func NewTavilyClient(apiKey string, opts ...TavilyOption) *TavilyClient {
	t := &TavilyClient{
		apiKey:       apiKey,
		endpoint:     DefaultTavilyEndpoint,
		client:       &http.Client{Timeout: 30 * time.Second},
		initialDelay: time.Second,
		maxDelay:     30 * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type tavilyRequest struct {
	Query string `json:"query"`
	Options
}

type tavilyResponse struct {
	Results []struct {
		Title         string  `json:"title"`
		URL           string  `json:"url"`
		Content       string  `json:"content"`
		Score         float64 `json:"score"`
		PublishedDate string  `json:"published_date"`
	} `json:"results"`
	Images []tavilyImage `json:"images"`
}

// tavilyImage accepts both image shapes Tavily returns: a bare URL string,
// or {url, description} when descriptions are requested.
type tavilyImage struct {
	URL         string `json:"url"`
	Description string `json:"description"`
}

func (i *tavilyImage) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &i.URL)
	}
	type plain tavilyImage
	return json.Unmarshal(b, (*plain)(i))
}

// Search posts a query to Tavily.
func (t *TavilyClient) Search(ctx context.Context, query string, opts Options) ([]Result, error) {
	if strings.TrimSpace(t.apiKey) == "" {
		return nil, ErrMissingAPIKey
	}

	payload, err := json.Marshal(tavilyRequest{Query: query, Options: opts})
	if err != nil {
		return nil, err
	}

	var resp *http.Response
	delay := t.initialDelay
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+t.apiKey)

		resp, err = t.client.Do(req)
		if err != nil {
			return nil, &TransportError{Op: "tavily search", Err: err}
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			break
		}
		resp.Body.Close()

		// Back off and retry on 429, doubling the delay each time up to maxDelay.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		if delay < t.maxDelay {
			delay = min(delay*2, t.maxDelay)
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &TransportError{
			Op:         "tavily search",
			StatusCode: resp.StatusCode,
			Err:        errors.New(strings.TrimSpace(string(msg))),
		}
	}

	var response tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, &TransportError{Op: "tavily decode", Err: fmt.Errorf("invalid response: %w", err)}
	}

	results := make([]Result, 0, len(response.Results))
	for i, r := range response.Results {
		res := Result{
			Title:         r.Title,
			URL:           r.URL,
			Snippet:       r.Content,
			Score:         r.Score,
			Domain:        DomainOf(r.URL),
			PublishedDate: parsePublished(r.PublishedDate),
		}
		if n := len(response.Images); n > 0 {
			res.ImageURL = response.Images[i%n].URL
			res.ImageDescription = response.Images[i%n].Description
		}
		results = append(results, res)
		if opts.MaxResults > 0 && len(results) >= opts.MaxResults {
			break
		}
	}
	return results, nil
}

var publishedLayouts = []string{
	time.RFC3339,
	time.RFC1123,
	time.RFC1123Z,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parsePublished(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range publishedLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return &ts
		}
	}
	return nil
}

// Verify TavilyClient implements Client
var _ Client = (*TavilyClient)(nil)
