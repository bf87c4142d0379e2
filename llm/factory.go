// Provider construction from configuration.
//
// Information Hiding:
// - Per-provider defaults (key and model variables, endpoint) hidden
// - Choice of SDK per provider hidden behind Provider

package llm

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ProviderType identifies a supported LLM backend.
type ProviderType int

const (
	// ProviderOpenAI is the OpenAI provider (GPT models).
	ProviderOpenAI ProviderType = iota
	// ProviderAnthropic is the Anthropic provider (Claude models).
	ProviderAnthropic
	// ProviderDeepSeek is DeepSeek, served over the OpenAI protocol.
	ProviderDeepSeek
	// ProviderGemini is the Google Gemini provider.
	ProviderGemini
)

type providerSpec struct {
	name         string
	keyEnv       string
	modelEnv     string
	defaultModel string
	baseURL      string
}

var providerSpecs = map[ProviderType]providerSpec{
	ProviderOpenAI:    {"openai", "OPENAI_API_KEY", "OPENAI_MODEL", ModelOpenAIGPT4oMini, ""},
	ProviderAnthropic: {"anthropic", "ANTHROPIC_API_KEY", "ANTHROPIC_MODEL", ModelAnthropicClaudeHaiku4, ""},
	ProviderDeepSeek:  {"deepseek", "DEEPSEEK_API_KEY", "DEEPSEEK_MODEL", ModelDeepSeekChat, "https://api.deepseek.com/v1"},
	ProviderGemini:    {"gemini", "GEMINI_API_KEY", "GEMINI_MODEL", ModelGeminiFlash2, ""},
}

var providerAliases = map[string]ProviderType{
	"gpt":    ProviderOpenAI,
	"claude": ProviderAnthropic,
	"google": ProviderGemini,
}

// String returns the canonical provider name.
func (p ProviderType) String() string {
	if spec, ok := providerSpecs[p]; ok {
		return spec.name
	}
	return "unknown"
}

// KeyEnv names the environment variable holding the provider's API key.
func (p ProviderType) KeyEnv() string { return providerSpecs[p].keyEnv }

// ModelEnv names the environment variable that overrides the default model.
func (p ProviderType) ModelEnv() string { return providerSpecs[p].modelEnv }

// DefaultModel returns the model used when none is configured.
func (p ProviderType) DefaultModel() string { return providerSpecs[p].defaultModel }

// ProviderTypes lists the supported providers ordered by name.
func ProviderTypes() []ProviderType {
	out := make([]ProviderType, 0, len(providerSpecs))
	for p := range providerSpecs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// ParseProviderType parses a provider name or alias, case-insensitively.
func ParseProviderType(s string) (ProviderType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if p, ok := providerAliases[name]; ok {
		return p, nil
	}
	for p, spec := range providerSpecs {
		if spec.name == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown provider: %q", s)
}

// ErrMissingAPIKey is returned by NewProvider without a key.
var ErrMissingAPIKey = errors.New("llm: API key is required")

// ProviderConfig configures NewProvider. Zero values take the provider's
// defaults.
type ProviderConfig struct {
	APIKey      string
	Model       string
	BaseURL     string // OpenAI-compatible providers only
	MaxTokens   uint32
	Temperature *float32
}

// NewProvider builds the provider p with cfg.
func NewProvider(p ProviderType, cfg ProviderConfig) (Provider, error) {
	spec, ok := providerSpecs[p]
	if !ok {
		return nil, fmt.Errorf("unknown provider type: %d", int(p))
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w (set %s)", spec.name, ErrMissingAPIKey, spec.keyEnv)
	}

	model := cfg.Model
	if model == "" {
		model = spec.defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}
	temperature := float32(0.7)
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}

	switch p {
	case ProviderAnthropic:
		return NewAnthropicProvider(cfg.APIKey, model, maxTokens, temperature), nil
	case ProviderGemini:
		return NewGeminiProvider(cfg.APIKey, model, maxTokens, temperature), nil
	default:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = spec.baseURL
		}
		return NewOpenAICompatibleProvider(spec.name, cfg.APIKey, baseURL, model, maxTokens, temperature), nil
	}
}

// Model identifiers.
const (
	ModelOpenAIGPT4oMini = "gpt-4o-mini"
	ModelOpenAIGPT4o     = "gpt-4o"

	ModelAnthropicClaudeSonnet4 = "claude-sonnet-4-20250514"
	ModelAnthropicClaudeHaiku4  = "claude-haiku-4-20250514"

	ModelDeepSeekChat     = "deepseek-chat"
	ModelDeepSeekReasoner = "deepseek-reasoner"

	ModelGeminiFlash2 = "gemini-2.0-flash"
)
