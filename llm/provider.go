// Package llm provides LLM provider abstractions.
//
// LLM Provider interface - the abstract interface for streaming providers.
// Each provider implementation hides:
// - API client initialization and authentication
// - Request/response format conversion
// - Chunk decoding and malformed-chunk handling

package llm

import (
	"context"
	"iter"
)

// Provider defines the abstract interface for LLM providers.
// Implementations hide provider-specific details while exposing
// a single lazy streaming operation.
type Provider interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// Model returns the current model being used.
	Model() string

	// Stream opens one streaming completion and yields its fragments in
	// transport order. The sequence is finite and cannot be restarted.
	// A transport failure is yielded once as (zero, err) and ends the
	// sequence; malformed chunks are skipped. Stopping the range loop
	// releases the underlying connection.
	Stream(ctx context.Context, req CompletionRequest) iter.Seq2[StreamEvent, error]
}

// errSeq yields a single error.
func errSeq(err error) iter.Seq2[StreamEvent, error] {
	return func(yield func(StreamEvent, error) bool) {
		yield(StreamEvent{}, err)
	}
}
