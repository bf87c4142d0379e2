// Package llmtest provides an in-process llm.Provider for tests.
package llmtest

import (
	"context"
	"iter"
	"sync"

	"github.com/richinex/seekr/llm"
)

// Reply is what the provider streams for one request.
type Reply struct {
	Tokens   []string
	ToolArgs []string
	Err      error
}

// Text streams s as a single token.
func Text(s string) Reply { return Reply{Tokens: []string{s}} }

// Tool streams s as a single tool-arguments fragment.
func Tool(s string) Reply { return Reply{ToolArgs: []string{s}} }

// Fail yields err before any event.
func Fail(err error) Reply { return Reply{Err: err} }

// Provider answers each request with Respond and records the requests.
type Provider struct {
	Respond func(req llm.CompletionRequest) Reply

	mu       sync.Mutex
	requests []llm.CompletionRequest
}

// New returns a provider driven by respond.
func New(respond func(req llm.CompletionRequest) Reply) *Provider {
	return &Provider{Respond: respond}
}

// ByLabel routes requests on CompletionRequest.Label. Unknown labels get
// an empty reply.
func ByLabel(replies map[string]Reply) *Provider {
	return New(func(req llm.CompletionRequest) Reply { return replies[req.Label] })
}

func (p *Provider) Name() string  { return "test" }
func (p *Provider) Model() string { return "test-model" }

// Stream implements llm.Provider.
func (p *Provider) Stream(ctx context.Context, req llm.CompletionRequest) iter.Seq2[llm.StreamEvent, error] {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()

	reply := p.Respond(req)
	return func(yield func(llm.StreamEvent, error) bool) {
		if reply.Err != nil {
			yield(llm.StreamEvent{}, reply.Err)
			return
		}
		if err := ctx.Err(); err != nil {
			yield(llm.StreamEvent{}, err)
			return
		}
		for _, t := range reply.Tokens {
			if !yield(llm.StreamEvent{Kind: llm.EventToken, Text: t}, nil) {
				return
			}
		}
		for _, a := range reply.ToolArgs {
			if !yield(llm.StreamEvent{Kind: llm.EventToolArgs, Text: a}, nil) {
				return
			}
		}
	}
}

// Requests returns a copy of every request seen so far.
func (p *Provider) Requests() []llm.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]llm.CompletionRequest(nil), p.requests...)
}

// Labels returns the label of every request seen so far, in order.
func (p *Provider) Labels() []string {
	var out []string
	for _, r := range p.Requests() {
		out = append(out, r.Label)
	}
	return out
}

var _ llm.Provider = (*Provider)(nil)
