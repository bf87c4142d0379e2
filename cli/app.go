// Component wiring for CLI commands.
//
// Information Hiding:
// - Provider selection and mock fallback hidden
// - Search, news cache and tool registry construction hidden

package cli

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/richinex/seekr/agent"
	"github.com/richinex/seekr/config"
	"github.com/richinex/seekr/internal/logger"
	"github.com/richinex/seekr/llm"
	"github.com/richinex/seekr/mock"
	"github.com/richinex/seekr/orchestration"
	"github.com/richinex/seekr/search"
	"github.com/richinex/seekr/storage"
	"github.com/richinex/seekr/tools"
)

// Options holds CLI execution options.
type Options struct {
	Provider     string
	ConfigFile   string
	Mock         bool
	AutoFallback bool
	Language     string
	Verbose      bool
}

// DefaultOptions returns default CLI options.
func DefaultOptions() Options {
	return Options{Language: "en"}
}

// App holds the components shared by every command.
type App struct {
	Settings config.Settings
	Logger   *zap.Logger
	Client   *llm.Client
	Search   *search.Service
	Gate     *search.Gate
	News     *search.NewsService
	Executor *agent.Executor
	Tools    *tools.Registry

	closers []func() error
}

// LoadSettings reads configuration and applies command-line overrides.
func LoadSettings(opts Options) (config.Settings, error) {
	var loadOpts []config.LoadOption
	if opts.ConfigFile != "" {
		loadOpts = append(loadOpts, config.WithConfigFile(opts.ConfigFile))
	}
	if opts.Provider != "" {
		loadOpts = append(loadOpts, config.WithProvider(opts.Provider))
	}
	settings, err := config.Load(loadOpts...)
	if err != nil {
		return config.Settings{}, err
	}
	if opts.Mock {
		settings.Mock.Enabled = true
	}
	if opts.AutoFallback {
		settings.Mock.AutoFallback = true
	}
	if opts.Verbose {
		settings.Log.Level = "debug"
	}
	return settings, nil
}

// NewApp wires the components described by settings.
func NewApp(ctx context.Context, settings config.Settings) (*App, error) {
	log := logger.New(settings.Log.Level, settings.Log.Format)
	app := &App{Settings: settings, Logger: log}

	var backend *mock.Backend
	if settings.Mock.Enabled || settings.Mock.AutoFallback {
		backend = mock.New(mock.WithDelay(settings.Mock.WordDelay))
	}

	provider, err := createProvider(settings, backend, log)
	if err != nil {
		return nil, err
	}
	app.Client = llm.NewClient(provider, llm.WithLogger(log))

	searchOpts := []search.ServiceOption{search.WithLogger(log)}
	if backend != nil && !settings.Mock.Enabled {
		searchOpts = append(searchOpts, search.WithFallback(backend))
	}
	app.Search = search.NewService(createSearchClient(settings, backend), searchOpts...)
	app.Gate = search.NewGate(app.Client, log)

	newsOpts := []search.NewsOption{
		search.WithRateLimit(settings.News.RateLimit),
		search.WithDeduplicator(search.NewDeduplicator(settings.Search.DedupThreshold)),
		search.WithNewsLogger(log),
	}
	if backend != nil {
		newsOpts = append(newsOpts, search.WithNewsFallback(backend))
	}
	cache, err := createNewsCache(ctx, settings)
	if err != nil {
		if !settings.Mock.AutoFallback {
			return nil, err
		}
		log.Warn("redis unavailable, using in-memory news cache", zap.Error(err))
		cache = storage.NewMemoryNewsCache()
	}
	if c, ok := cache.(interface{ Close() error }); ok {
		app.closers = append(app.closers, c.Close)
	}
	newsOpts = append(newsOpts, search.WithNewsCache(cache))
	// The catalog is the only news source in mock mode.
	var newsClient search.Client
	if !settings.Mock.Enabled {
		newsClient = createSearchClient(settings, nil)
	}
	app.News = search.NewNewsService(newsClient, newsOpts...)

	executorOpts := search.DefaultOptions()
	executorOpts.SearchDepth = settings.Search.Depth
	executorOpts.MaxResults = settings.Search.MaxResults
	app.Executor = agent.NewExecutor(app.Client, app.Search, app.Gate,
		agent.WithLogger(log), agent.WithSearchOptions(executorOpts))

	if app.Tools, err = tools.WithDefaults(app.Search); err != nil {
		return nil, err
	}
	return app, nil
}

// Orchestrator builds the agent pipeline. route selects when the weather
// agent answers instead of the general pipeline.
func (a *App) Orchestrator(route orchestration.Route) *orchestration.Orchestrator {
	return orchestration.New(a.Executor,
		orchestration.WithLogger(a.Logger),
		orchestration.WithRelatedQuestions(a.Settings.Orchestration.RelatedQuestions),
		orchestration.WithWeatherAgent(agent.NewWeatherAgent(a.Client, a.Logger), route),
	)
}

// Direct builds the single-completion responder.
func (a *App) Direct() *orchestration.DirectResponder {
	return orchestration.NewDirectResponder(a.Client, a.Search, a.Gate,
		orchestration.WithUpdateInterval(a.Settings.Orchestration.UpdateInterval),
		orchestration.WithDirectRelated(a.Settings.Orchestration.RelatedQuestions),
		orchestration.WithDirectLogger(a.Logger),
	)
}

// Close releases external connections and flushes the logger.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	_ = a.Logger.Sync()
	return errors.Join(errs...)
}

func createProvider(settings config.Settings, backend *mock.Backend, log *zap.Logger) (llm.Provider, error) {
	if settings.Mock.Enabled {
		return backend, nil
	}

	providerType, err := llm.ParseProviderType(settings.LLM.Provider)
	if err != nil {
		return nil, err
	}

	apiKey, err := config.APIKeyFor(settings.LLM.Provider)
	if err != nil {
		if backend == nil {
			return nil, err
		}
		log.Warn("no API key, answering from the mock backend",
			zap.String("provider", settings.LLM.Provider), zap.Error(err))
		return backend, nil
	}

	temperature := float32(settings.LLM.Temperature)
	provider, err := llm.NewProvider(providerType, llm.ProviderConfig{
		APIKey:      apiKey,
		Model:       settings.LLM.Model,
		BaseURL:     settings.LLM.BaseURL,
		MaxTokens:   settings.LLM.MaxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", settings.LLM.Provider, err)
	}
	if backend != nil {
		return llm.NewFallbackProvider(provider, backend, log), nil
	}
	return provider, nil
}

// createSearchClient returns Tavily when a key is configured, the mock
// backend in mock mode, and nil otherwise.
func createSearchClient(settings config.Settings, backend *mock.Backend) search.Client {
	if settings.Mock.Enabled && backend != nil {
		return backend
	}
	if settings.Search.APIKey == "" {
		return nil
	}
	return search.NewTavilyClient(settings.Search.APIKey, search.WithEndpoint(settings.Search.Endpoint))
}

func createNewsCache(ctx context.Context, settings config.Settings) (search.NewsCache, error) {
	if settings.Redis.Addr == "" {
		return storage.NewMemoryNewsCache(), nil
	}
	cache, err := storage.DialRedisNewsCache(ctx, settings.Redis.Addr, settings.Redis.TTL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", settings.Redis.Addr, err)
	}
	return cache, nil
}
