package json

import (
	"errors"
	"testing"
)

type plan struct {
	Answer     string  `json:"answer"`
	Confidence float64 `json:"confidence"`
}

func TestExtractPureJSON(t *testing.T) {
	result, err := Extract[plan](`{"answer": "test", "confidence": 0.5}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Answer != "test" || result.Confidence != 0.5 {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestExtractWithCommentary(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{"prefix", `Here is the plan: {"answer": "a"}`, `{"answer": "a"}`},
		{"suffix", `{"answer": "a"} Hope this helps.`, `{"answer": "a"}`},
		{"fenced", "```json\n{\"answer\": \"a\"}\n```", `{"answer": "a"}`},
		{"fence without tag", "Sure:\n```\n{\"answer\": \"a\"}\n```\nDone.", `{"answer": "a"}`},
		{"braces inside strings", `Result: {"answer": "use {x} and }"} trailing }`, `{"answer": "use {x} and }"}`},
		{"nested", `x {"answer": "a", "steps": [{"id": 1}]} y`, `{"answer": "a", "steps": [{"id": 1}]}`},
		{"array", `questions: ["a", "b"]`, `["a", "b"]`},
		{"skips invalid candidate", `{oops} then {"answer": "a"}`, `{"answer": "a"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.response)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ExtractJSON() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractNoJSON(t *testing.T) {
	for _, response := range []string{"", "no json here", `{"unterminated": `, "{ not: json }"} {
		if _, err := ExtractJSON(response); !errors.Is(err, ErrNoJSON) {
			t.Errorf("ExtractJSON(%q) error = %v, want ErrNoJSON", response, err)
		}
	}
}

func TestExtractIntoTypeMismatch(t *testing.T) {
	var p plan
	if err := ExtractInto(`{"answer": 42}`, &p); err == nil {
		t.Error("expected unmarshal error")
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("abcdef", 3); got != "abc..." {
		t.Errorf("Preview = %q", got)
	}
	if got := Preview("ab", 3); got != "ab" {
		t.Errorf("Preview = %q", got)
	}
	if got := Preview("héllo", 2); got != "hé..." {
		t.Errorf("Preview = %q, want whole runes", got)
	}
}

func TestExtractObjectSkipsArrays(t *testing.T) {
	got, err := ExtractObject(`Step [1]: {"answer": "a"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"answer": "a"}` {
		t.Errorf("ExtractObject() = %q", got)
	}
	if _, err := ExtractObject(`["a"]`); !errors.Is(err, ErrNoJSON) {
		t.Errorf("expected ErrNoJSON for a bare array, got %v", err)
	}
}
