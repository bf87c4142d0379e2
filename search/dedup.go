package search

import (
	"net/url"
	"strings"
)

// DefaultSimilarityThreshold is the title similarity above which two
// results from the same host are considered the same story.
const DefaultSimilarityThreshold = 0.8

// Deduplicator merges ranked result lists, dropping near-duplicates.
//
// A candidate duplicates an already accepted result when their URL path
// keys are equal, or their normalized titles are equal, or they share a
// host and their normalized titles are more similar than Threshold.
type Deduplicator struct {
	Threshold float64
}

// NewDeduplicator returns a Deduplicator; a non-positive threshold selects
// DefaultSimilarityThreshold.
func NewDeduplicator(threshold float64) Deduplicator {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return Deduplicator{Threshold: threshold}
}

// Merge keeps primary's survivors in order, then secondary's.
func (d Deduplicator) Merge(primary, secondary []Result) []Result {
	return d.MergeAll(primary, secondary)
}

// MergeAll is Merge over any number of lists, in argument order.
func (d Deduplicator) MergeAll(lists ...[]Result) []Result {
	threshold := d.Threshold
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}

	out := []Result{}
	var accepted []identity
	for _, list := range lists {
		for _, r := range list {
			id := identityOf(r)
			if id.collidesWithAny(accepted, threshold) {
				continue
			}
			accepted = append(accepted, id)
			out = append(out, r)
		}
	}
	return out
}

type identity struct {
	title string
	path  string
	host  string
}

func identityOf(r Result) identity {
	id := identity{
		title: NormalizeTitle(r.Title),
		path:  URLPathKey(r.URL),
	}
	if u, ok := parseAbsolute(r.URL); ok {
		id.host = strings.ToLower(u.Hostname())
	}
	return id
}

func (id identity) collidesWithAny(accepted []identity, threshold float64) bool {
	for _, other := range accepted {
		if id.path == other.path || id.title == other.title {
			return true
		}
		if id.host != "" && id.host == other.host && Similarity(id.title, other.title) > threshold {
			return true
		}
	}
	return false
}

// NormalizeTitle lowercases s and drops everything outside [a-z0-9].
func NormalizeTitle(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// URLPathKey is the lowercased path of an absolute URL, ignoring query and
// fragment. Anything that is not an absolute URL keys on its whole
// lowercased text.
func URLPathKey(raw string) string {
	u, ok := parseAbsolute(raw)
	if !ok {
		return strings.ToLower(raw)
	}
	if u.Path == "" {
		return "/"
	}
	return strings.ToLower(u.Path)
}

func parseAbsolute(raw string) (*url.URL, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, false
	}
	return u, true
}

// Similarity is 1 - levenshtein(a, b)/len(longer), over runes. Equal
// strings score 1; otherwise an empty operand scores 0.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	longer := max(len(ra), len(rb))
	return float64(longer-levenshtein(ra, rb)) / float64(longer)
}

// levenshtein computes unit-cost edit distance with two rolling rows.
func levenshtein(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1]
			} else {
				curr[j] = 1 + min(prev[j], curr[j-1], prev[j-1])
			}
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
