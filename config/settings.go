// Package config provides application settings loaded from the
// environment, an optional .env file and an optional seekr.yaml.
//
// Settings are created via Load() which handles:
// - .env loading (a missing file is ignored)
// - Environment variable parsing with validation
// - Default value application
// - Provider-specific configuration lookup

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/richinex/seekr/llm"
)

// Settings holds all application configuration.
type Settings struct {
	LLM           LLMConfig           `mapstructure:"llm"`
	Search        SearchConfig        `mapstructure:"search"`
	News          NewsConfig          `mapstructure:"news"`
	Orchestration OrchestrationConfig `mapstructure:"orchestration"`
	Mock          MockConfig          `mapstructure:"mock"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Server        ServerConfig        `mapstructure:"server"`
	Log           LogConfig           `mapstructure:"log"`
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	MaxTokens   uint32  `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// SearchConfig holds web search configuration.
type SearchConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	Endpoint       string  `mapstructure:"endpoint"`
	MaxResults     int     `mapstructure:"max_results"`
	Depth          string  `mapstructure:"depth"`
	DedupThreshold float64 `mapstructure:"dedup_threshold"`
}

// NewsConfig holds category news configuration.
type NewsConfig struct {
	RateLimit time.Duration `mapstructure:"rate_limit"`
	Count     int           `mapstructure:"count"`
}

// OrchestrationConfig holds pipeline configuration.
type OrchestrationConfig struct {
	UpdateInterval   time.Duration `mapstructure:"update_interval"`
	RelatedQuestions bool          `mapstructure:"related_questions"`
}

// MockConfig controls the offline backend.
type MockConfig struct {
	// Enabled answers everything from the mock backend.
	Enabled bool `mapstructure:"enabled"`
	// AutoFallback switches to the mock backend when a real service fails.
	AutoFallback bool          `mapstructure:"auto_fallback"`
	WordDelay    time.Duration `mapstructure:"word_delay"`
}

// RedisConfig enables the shared news cache when Addr is set.
type RedisConfig struct {
	Addr string        `mapstructure:"addr"`
	TTL  time.Duration `mapstructure:"ttl"`
}

// StorageConfig holds conversation storage configuration.
type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// providerInfo holds configuration for a specific LLM provider.
type providerInfo struct {
	modelEnv     string
	defaultModel string
	apiKeyEnv    string
}

// ProviderMock answers from the offline backend and needs no key.
const ProviderMock = "mock"

const mockModel = "mock-model"

type loadOptions struct {
	envFile    string
	configFile string
	provider   string
}

// LoadOption customises Load.
type LoadOption func(*loadOptions)

// WithEnvFile reads path instead of ./.env.
func WithEnvFile(path string) LoadOption {
	return func(o *loadOptions) { o.envFile = path }
}

// WithConfigFile reads path instead of searching for seekr.yaml. Unlike
// the default search, a missing file is an error.
func WithConfigFile(path string) LoadOption {
	return func(o *loadOptions) { o.configFile = path }
}

// WithProvider overrides LLM_PROVIDER.
func WithProvider(provider string) LoadOption {
	return func(o *loadOptions) { o.provider = provider }
}

// Load builds Settings. Precedence, highest first: options, environment
// (including .env), config file, defaults.
func Load(opts ...LoadOption) (Settings, error) {
	o := loadOptions{envFile: ".env"}
	for _, opt := range opts {
		opt(&o)
	}

	if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Settings{}, fmt.Errorf("failed to load %s: %w", o.envFile, err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("search.api_key", "SEARCH_API_KEY", "TAVILY_API_KEY")

	if o.configFile != "" {
		v.SetConfigFile(o.configFile)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("failed to read config %s: %w", o.configFile, err)
		}
	} else {
		v.SetConfigName("seekr")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Settings{}, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("invalid configuration: %w", err)
	}

	if o.provider != "" {
		s.LLM.Provider = o.provider
	}
	s.LLM.Provider = normalizeProvider(s.LLM.Provider)
	if _, err := getProviderInfo(s.LLM.Provider); err != nil {
		return Settings{}, err
	}
	if s.LLM.Provider == ProviderMock {
		s.Mock.Enabled = true
	}
	if s.LLM.Model == "" {
		s.LLM.Model, _ = ModelFor(s.LLM.Provider)
	}

	if err := s.validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.max_tokens", 4096)
	v.SetDefault("llm.temperature", 0.7)

	v.SetDefault("search.api_key", "")
	v.SetDefault("search.endpoint", "https://api.tavily.com/search")
	v.SetDefault("search.max_results", 5)
	v.SetDefault("search.depth", "advanced")
	v.SetDefault("search.dedup_threshold", 0.8)

	v.SetDefault("news.rate_limit", "60s")
	v.SetDefault("news.count", 10)

	v.SetDefault("orchestration.update_interval", "50ms")
	v.SetDefault("orchestration.related_questions", true)

	v.SetDefault("mock.enabled", false)
	v.SetDefault("mock.auto_fallback", false)
	v.SetDefault("mock.word_delay", "30ms")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.ttl", "10m")

	v.SetDefault("storage.db_path", "seekr.db")
	v.SetDefault("server.addr", ":8080")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

func (s Settings) validate() error {
	var errs []error
	if s.Search.Depth != "basic" && s.Search.Depth != "advanced" {
		errs = append(errs, fmt.Errorf("search.depth must be basic or advanced, got %q", s.Search.Depth))
	}
	if s.Search.MaxResults <= 0 {
		errs = append(errs, fmt.Errorf("search.max_results must be positive, got %d", s.Search.MaxResults))
	}
	if s.Search.DedupThreshold < 0 || s.Search.DedupThreshold > 1 {
		errs = append(errs, fmt.Errorf("search.dedup_threshold must be within [0, 1], got %v", s.Search.DedupThreshold))
	}
	if s.News.Count <= 0 {
		errs = append(errs, fmt.Errorf("news.count must be positive, got %d", s.News.Count))
	}
	if s.Orchestration.UpdateInterval < 0 {
		errs = append(errs, fmt.Errorf("orchestration.update_interval must not be negative"))
	}
	if s.Log.Format != "json" && s.Log.Format != "console" {
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", s.Log.Format))
	}
	return errors.Join(errs...)
}

// New creates settings for the specified provider, loading values from
// the environment. Returns an error if the provider is unknown or the
// environment contains invalid values.
func New(provider string) (Settings, error) {
	return Load(WithProvider(provider))
}

// MustNew creates settings for the specified provider.
// Panics if the provider is unknown or environment variables are invalid.
// Use this only when configuration errors should be fatal.
func MustNew(provider string) Settings {
	settings, err := New(provider)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// normalizeProvider converts provider aliases to canonical names.
func normalizeProvider(provider string) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if p, err := llm.ParseProviderType(provider); err == nil {
		return p.String()
	}
	return provider
}

// getProviderInfo returns configuration for a provider. Key and model
// variables come from the llm provider table.
func getProviderInfo(provider string) (providerInfo, error) {
	if provider == ProviderMock {
		return providerInfo{defaultModel: mockModel}, nil
	}
	p, err := llm.ParseProviderType(provider)
	if err != nil {
		return providerInfo{}, err
	}
	return providerInfo{modelEnv: p.ModelEnv(), defaultModel: p.DefaultModel(), apiKeyEnv: p.KeyEnv()}, nil
}

// APIKeyFor returns the API key for a provider from environment variables.
// The mock provider needs none.
func APIKeyFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}
	if info.apiKeyEnv == "" {
		return "", nil
	}

	key := os.Getenv(info.apiKeyEnv)
	if key == "" {
		return "", fmt.Errorf("%s environment variable not set", info.apiKeyEnv)
	}
	return key, nil
}

// ModelFor returns the model for a provider, checking environment first.
func ModelFor(provider string) (string, error) {
	provider = normalizeProvider(provider)

	info, err := getProviderInfo(provider)
	if err != nil {
		return "", err
	}

	if info.modelEnv != "" {
		if val := os.Getenv(info.modelEnv); val != "" {
			return val, nil
		}
	}
	return info.defaultModel, nil
}

// SupportedProviders returns the sorted list of supported provider names.
func SupportedProviders() []string {
	result := []string{ProviderMock}
	for _, p := range llm.ProviderTypes() {
		result = append(result, p.String())
	}
	sort.Strings(result)
	return result
}
