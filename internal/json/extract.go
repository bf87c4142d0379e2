// Package json extracts JSON values from model output.
//
// Models asked for JSON often wrap it in a markdown fence or surround it
// with commentary. Extraction tries the whole text first, then the first
// fenced block, then the first balanced object or array.
package json

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoJSON is returned when no JSON value can be found.
var ErrNoJSON = errors.New("no valid JSON found in response")

// ExtractJSON returns the first JSON object or array in response.
func ExtractJSON(response string) (string, error) {
	return extract(response, "{[")
}

// ExtractObject returns the first JSON object in response.
func ExtractObject(response string) (string, error) {
	return extract(response, "{")
}

func extract(response, openers string) (string, error) {
	accept := func(s string) bool {
		return s != "" && strings.IndexByte(openers, s[0]) >= 0 && json.Valid([]byte(s))
	}

	trimmed := strings.TrimSpace(response)
	if accept(trimmed) {
		return trimmed, nil
	}

	if fenced, ok := fencedBlock(trimmed); ok && accept(fenced) {
		return fenced, nil
	}

	for i := 0; i < len(trimmed); i++ {
		if strings.IndexByte(openers, trimmed[i]) < 0 {
			continue
		}
		end := balancedEnd(trimmed, i)
		if end < 0 {
			continue
		}
		if candidate := trimmed[i : end+1]; accept(candidate) {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrNoJSON, Preview(trimmed, 100))
}

// Extract parses the first JSON value in response into a T.
func Extract[T any](response string) (T, error) {
	var result T
	err := ExtractInto(response, &result)
	return result, err
}

// ExtractInto parses the first JSON value in response into v.
func ExtractInto(response string, v any) error {
	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(jsonStr), v); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return nil
}

// Preview shortens s to at most n runes for log and error messages.
func Preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// fencedBlock returns the body of the first ``` fence, dropping an
// optional language tag.
func fencedBlock(s string) (string, bool) {
	start := strings.Index(s, "```")
	if start < 0 {
		return "", false
	}
	body := s[start+3:]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 && !strings.ContainsAny(body[:nl], "{[") {
		body = body[nl+1:]
	}
	end := strings.Index(body, "```")
	if end < 0 {
		return strings.TrimSpace(body), true
	}
	return strings.TrimSpace(body[:end]), true
}

// balancedEnd returns the index of the bracket closing the one at start,
// skipping brackets inside string literals, or -1.
func balancedEnd(s string, start int) int {
	var stack []byte
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}
	return -1
}
