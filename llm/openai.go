// OpenAI Provider implementation using go-openai library.
//
// Information Hiding:
// - API endpoint and authentication (any OpenAI-compatible base URL)
// - Request format for the Chat Completions API, including forced tool choice
// - SSE decoding via go-openai; undecodable chunks are skipped

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"math"

	openai "github.com/sashabaranov/go-openai"

	"github.com/richinex/seekr/metrics"
)

// OpenAIProvider implements the Provider interface for OpenAI and
// OpenAI-compatible endpoints.
type OpenAIProvider struct {
	client      *openai.Client
	name        string
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAICompatibleProvider creates a provider for any endpoint speaking
// the Chat Completions protocol. An empty baseURL keeps OpenAI's.
func NewOpenAICompatibleProvider(name, apiKey, baseURL, model string, maxTokens uint32, temperature float32) *OpenAIProvider {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(config),
		name:        name,
		model:       model,
		maxTokens:   int(maxTokens),
		temperature: temperature,
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return p.name
}

// Model returns the current model.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// Stream opens a streaming chat completion.
func (p *OpenAIProvider) Stream(ctx context.Context, req CompletionRequest) iter.Seq2[StreamEvent, error] {
	return func(yield func(StreamEvent, error) bool) {
		stream, err := p.client.CreateChatCompletionStream(ctx, p.buildRequest(req))
		if err != nil {
			yield(StreamEvent{}, fmt.Errorf("stream creation failed: %w", err))
			return
		}
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				if isMalformedChunk(err) {
					metrics.StreamSkippedChunks.WithLabelValues(p.name).Inc()
					continue
				}
				yield(StreamEvent{}, fmt.Errorf("stream recv failed: %w", err))
				return
			}

			if len(response.Choices) == 0 {
				continue
			}
			delta := response.Choices[0].Delta
			if delta.Content != "" {
				if !yield(StreamEvent{Kind: EventToken, Text: delta.Content}, nil) {
					return
				}
			}
			// Only the first tool call is tracked.
			if len(delta.ToolCalls) > 0 && delta.ToolCalls[0].Function.Arguments != "" {
				if !yield(StreamEvent{Kind: EventToolArgs, Text: delta.ToolCalls[0].Function.Arguments}, nil) {
					return
				}
			}
		}
	}
}

func (p *OpenAIProvider) buildRequest(req CompletionRequest) openai.ChatCompletionRequest {
	temperature := p.temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	// go-openai drops a zero temperature from the payload.
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}
	maxTokens := p.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	out := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    convertToOpenAIMessages(req.Messages),
		MaxTokens:   maxTokens,
		Temperature: temperature,
		Stream:      true,
	}
	if len(req.Tools) > 0 {
		out.Tools = convertToOpenAITools(req.Tools)
	}
	if req.ToolChoice != "" {
		out.ToolChoice = openai.ToolChoice{
			Type:     openai.ToolTypeFunction,
			Function: openai.ToolFunction{Name: req.ToolChoice},
		}
	}
	if req.Format != nil {
		out.ResponseFormat = convertToOpenAIFormat(req.Format)
	}
	return out
}

// isMalformedChunk reports whether a Recv error came from decoding a
// single chunk. go-openai has consumed the offending line at that point,
// so the next Recv continues with the following chunk.
func isMalformedChunk(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

// convertToOpenAIMessages converts our ChatMessage to openai.ChatCompletionMessage
func convertToOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		result[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return result
}

// convertToOpenAITools converts tool definitions to OpenAI format.
func convertToOpenAITools(tools []ToolDefinition) []openai.Tool {
	result := make([]openai.Tool, len(tools))
	for i, t := range tools {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return result
}

func convertToOpenAIFormat(format *ResponseFormat) *openai.ChatCompletionResponseFormat {
	out := &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatType(format.Type),
	}
	if format.JSONSchema != nil {
		out.JSONSchema = &openai.ChatCompletionResponseFormatJSONSchema{
			Name:        format.JSONSchema.Name,
			Description: format.JSONSchema.Description,
			Schema:      format.JSONSchema.Schema,
			Strict:      format.JSONSchema.Strict,
		}
	}
	return out
}

// Verify OpenAIProvider implements Provider
var _ Provider = (*OpenAIProvider)(nil)
