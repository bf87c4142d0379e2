// Tool Executor with Retry Logic.
//
// Information Hiding:
// - Retry strategy implementation hidden
// - Backoff algorithm hidden
// - Error classification logic hidden

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/richinex/seekr/internal/logger"
)

// Executor provides tool execution with validation, retry and timeout.
type Executor struct {
	config    ToolConfig
	logger    *zap.Logger
	baseDelay time.Duration
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithExecutorLogger sets the executor logger.
func WithExecutorLogger(l *zap.Logger) ExecutorOption {
	return func(e *Executor) { e.logger = logger.OrNop(l) }
}

// WithBaseDelay sets the first retry delay; later retries double it.
func WithBaseDelay(d time.Duration) ExecutorOption {
	return func(e *Executor) { e.baseDelay = d }
}

// NewExecutor creates a new tool executor with the given configuration.
func NewExecutor(config ToolConfig, opts ...ExecutorOption) *Executor {
	e := &Executor{config: config, logger: zap.NewNop(), baseDelay: 100 * time.Millisecond}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewDefaultExecutor creates an executor with default configuration.
func NewDefaultExecutor(opts ...ExecutorOption) *Executor {
	return NewExecutor(DefaultToolConfig(), opts...)
}

// Run looks the tool up by name and executes it.
func (e *Executor) Run(ctx context.Context, registry *Registry, name string, args json.RawMessage) (ToolResult, error) {
	tool, ok := registry.Get(name)
	if !ok {
		return FailureResultf("unknown tool '%s'", name), nil
	}
	return e.Execute(ctx, tool, args)
}

// Execute validates args, then runs the tool within the configured timeout,
// retrying retryable failures with exponential backoff.
func (e *Executor) Execute(ctx context.Context, tool Tool, args json.RawMessage) (ToolResult, error) {
	toolName := tool.Metadata().Name
	if err := tool.Validate(args); err != nil {
		return FailureResult(fmt.Errorf("validation failed: %w", err)), nil
	}

	ctx, cancel := context.WithTimeout(ctx, time.Duration(e.config.Timeout())*time.Second)
	defer cancel()

	var lastErr error
	maxRetries := e.config.Retries()
	for attempt := uint32(0); attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ToolResult{}, ctx.Err()
			case <-time.After(e.calculateBackoff(attempt)):
			}
		}

		result, err := tool.Execute(ctx, args)
		if err != nil {
			if ctx.Err() != nil {
				return ToolResult{}, ctx.Err()
			}
			lastErr = err
			e.logger.Debug("tool attempt failed",
				zap.String("tool", toolName), zap.Uint32("attempt", attempt+1), zap.Error(err))
			continue
		}
		if result.Success() || !e.shouldRetry(result) {
			return result, nil
		}
		lastErr = result.Error
		e.logger.Debug("tool attempt failed",
			zap.String("tool", toolName), zap.Uint32("attempt", attempt+1), zap.Error(result.Error))
	}

	errMsg := "unknown error"
	if lastErr != nil {
		errMsg = lastErr.Error()
	}
	e.logger.Warn("tool failed", zap.String("tool", toolName), zap.Uint32("attempts", maxRetries), zap.String("error", errMsg))
	return FailureResultf("tool '%s' failed after %d attempts: %s", toolName, maxRetries, errMsg), nil
}

// calculateBackoff returns the backoff duration for the given attempt.
func (e *Executor) calculateBackoff(attempt uint32) time.Duration {
	const maxDelay = 5 * time.Second

	delay := e.baseDelay * time.Duration(1<<(attempt-1))
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// shouldRetry determines if a failed result is worth another attempt.
func (e *Executor) shouldRetry(result ToolResult) bool {
	if result.Error == nil {
		return false
	}

	errLower := strings.ToLower(result.Error.Error())

	// Bad input fails the same way every time.
	nonRetryable := []string{"validation", "invalid", "not configured", "empty", "unknown tool"}
	for _, s := range nonRetryable {
		if strings.Contains(errLower, s) {
			return false
		}
	}
	return true
}
