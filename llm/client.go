// LLMClient - Drives a provider stream and accumulates the completion.

package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/richinex/seekr/internal/logger"
	"github.com/richinex/seekr/metrics"
)

// ErrEmptyMessages is returned when a completion is requested without messages.
var ErrEmptyMessages = errors.New("llm: at least one message is required")

// IsCanceled reports whether err is the result of the caller aborting.
// Cancellation is an expected outcome and is not logged as a failure.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Client wraps a Provider with the accumulate-and-notify completion call.
type Client struct {
	provider Provider
	logger   *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the client's logger.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = logger.OrNop(l) }
}

// NewClient creates a new LLM client from a provider.
func NewClient(provider Provider, opts ...ClientOption) *Client {
	c := &Client{provider: provider, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider returns the underlying provider.
func (c *Client) Provider() Provider {
	return c.provider
}

type completeConfig struct {
	req        CompletionRequest
	onToken    func(string)
	onToolArgs func(string)
}

// CompleteOption customises a single Complete call.
type CompleteOption func(*completeConfig)

// WithTools offers tool definitions to the model.
func WithTools(tools ...ToolDefinition) CompleteOption {
	return func(c *completeConfig) { c.req.Tools = append(c.req.Tools, tools...) }
}

// WithToolChoice forces the model to call the named tool. The tool's
// definition must also be supplied with WithTools.
func WithToolChoice(name string) CompleteOption {
	return func(c *completeConfig) { c.req.ToolChoice = name }
}

// WithForcedTool offers exactly one tool and forces it.
func WithForcedTool(def ToolDefinition) CompleteOption {
	return func(c *completeConfig) {
		c.req.Tools = []ToolDefinition{def}
		c.req.ToolChoice = def.Name
	}
}

// WithTemperature overrides the provider's default temperature.
func WithTemperature(t float32) CompleteOption {
	return func(c *completeConfig) { c.req.Temperature = &t }
}

// WithMaxTokens overrides the provider's default output limit.
func WithMaxTokens(n int) CompleteOption {
	return func(c *completeConfig) { c.req.MaxTokens = n }
}

// WithFormat requests a structured response format.
func WithFormat(f *ResponseFormat) CompleteOption {
	return func(c *completeConfig) { c.req.Format = f }
}

// WithLabel names the call site for logs and metrics.
func WithLabel(label string) CompleteOption {
	return func(c *completeConfig) { c.req.Label = label }
}

// WithOnToken registers a callback for each content fragment.
func WithOnToken(fn func(string)) CompleteOption {
	return func(c *completeConfig) { c.onToken = fn }
}

// WithOnToolArgs registers a callback for each tool-argument fragment.
func WithOnToolArgs(fn func(string)) CompleteOption {
	return func(c *completeConfig) { c.onToolArgs = fn }
}

// Complete runs one streaming completion to the end.
//
// Content fragments are appended to Text and tool-argument fragments are
// concatenated into ToolArgs, both in arrival order. Callbacks run
// synchronously on the calling goroutine. Once ctx is done no further
// callback fires and Complete returns what was gathered so far together
// with an error wrapping ctx.Err().
func (c *Client) Complete(ctx context.Context, messages []ChatMessage, opts ...CompleteOption) (Completion, error) {
	if len(messages) == 0 {
		return Completion{}, ErrEmptyMessages
	}

	cfg := completeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.req.Messages = messages
	label := cfg.req.Label
	if label == "" {
		label = "completion"
	}

	start := time.Now()
	var text, args strings.Builder
	partial := func() Completion {
		return Completion{Text: text.String(), ToolArgs: args.String()}
	}
	finish := func(status string) {
		metrics.LLMRequests.WithLabelValues(c.provider.Name(), label, status).Inc()
		c.logger.Debug("completion finished",
			zap.String("provider", c.provider.Name()),
			zap.String("label", label),
			zap.String("status", status),
			zap.Int("text_len", text.Len()),
			zap.Int("tool_args_len", args.Len()),
			zap.Int64("elapsed_ms", time.Since(start).Milliseconds()))
	}

	for ev, err := range c.provider.Stream(ctx, cfg.req) {
		if ctx.Err() != nil {
			finish(metrics.StatusCanceled)
			return partial(), fmt.Errorf("%s aborted: %w", label, ctx.Err())
		}
		if err != nil {
			if IsCanceled(err) {
				finish(metrics.StatusCanceled)
				return partial(), fmt.Errorf("%s aborted: %w", label, err)
			}
			finish(metrics.StatusError)
			return partial(), fmt.Errorf("%s completion failed: %w", label, err)
		}

		switch ev.Kind {
		case EventToken:
			text.WriteString(ev.Text)
			if cfg.onToken != nil {
				cfg.onToken(ev.Text)
			}
		case EventToolArgs:
			args.WriteString(ev.Text)
			if cfg.onToolArgs != nil {
				cfg.onToolArgs(ev.Text)
			}
		}
	}

	if ctx.Err() != nil {
		finish(metrics.StatusCanceled)
		return partial(), fmt.Errorf("%s aborted: %w", label, ctx.Err())
	}
	finish(metrics.StatusOK)
	return partial(), nil
}
