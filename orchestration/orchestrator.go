// Package orchestration drives the answer pipelines.
//
// Orchestrator runs the agent pipeline (plan → search → consolidate) and
// reports progress after every step transition. DirectResponder answers in
// a single streamed completion with throttled partial updates.
//
// Information Hiding:
// - Step state machine hidden
// - Phase timing, tracing and metrics hidden
// - Concurrent related-question generation hidden
package orchestration

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/richinex/seekr/agent"
	"github.com/richinex/seekr/internal/logger"
	"github.com/richinex/seekr/llm"
	"github.com/richinex/seekr/metrics"
	"github.com/richinex/seekr/search"
)

// TracerName is the instrumentation scope of the pipeline spans.
const TracerName = "github.com/richinex/seekr/orchestration"

// FailureAnswer is shown when a run cannot produce an answer.
const FailureAnswer = "I apologize, but I encountered an error while processing your request. Please try again."

// ErrEmptyQuery is returned for blank queries before any work starts.
var ErrEmptyQuery = errors.New("query must not be empty")

// Response is the outcome of one agent run.
type Response struct {
	agent.AgentResult
	Related []string `json:"related"`
	RunID   string   `json:"run_id"`
}

// FailureResponse is the well-formed response returned with fatal errors.
func FailureResponse(runID string) Response {
	return Response{
		AgentResult: agent.AgentResult{
			Answer:     FailureAnswer,
			Sources:    []agent.Source{},
			Confidence: 0,
		},
		Related: []string{},
		RunID:   runID,
	}
}

// Orchestrator runs the agent pipeline. It holds no per-run state and is
// safe for concurrent use.
type Orchestrator struct {
	executor     *agent.Executor
	weather      *agent.WeatherAgent
	router       *Router
	route        Route
	related      bool
	planner      agent.Config
	searcher     agent.Config
	consolidator agent.Config
	tracer       trace.Tracer
	logger       *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the orchestrator's logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger.OrNop(l) }
}

// WithRelatedQuestions toggles follow-up generation. On by default.
func WithRelatedQuestions(enabled bool) Option {
	return func(o *Orchestrator) { o.related = enabled }
}

// WithTracer replaces the global otel tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

// WithWeatherAgent enables weather routing. route selects when it is
// used; RouteAuto consults the keyword router.
func WithWeatherAgent(w *agent.WeatherAgent, route Route) Option {
	return func(o *Orchestrator) {
		o.weather = w
		o.route = route
	}
}

// WithPersonas overrides the three pipeline personas.
func WithPersonas(planner, searcher, consolidator agent.Config) Option {
	return func(o *Orchestrator) {
		o.planner, o.searcher, o.consolidator = planner, searcher, consolidator
	}
}

// New creates an orchestrator around executor.
func New(executor *agent.Executor, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		executor:     executor,
		router:       NewRouter(),
		route:        RouteGeneral,
		related:      true,
		planner:      agent.Planner(),
		searcher:     agent.Searcher(),
		consolidator: agent.Consolidator(),
		tracer:       otel.Tracer(TracerName),
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Process answers query.
//
// Cancellation returns ctx's error and an empty Response. Any other
// failure returns FailureResponse together with the error, so the
// response is always displayable.
func (o *Orchestrator) Process(ctx context.Context, query string, history []llm.ChatMessage, onProgress ProgressFunc, language string) (Response, error) {
	if strings.TrimSpace(query) == "" {
		return Response{}, ErrEmptyQuery
	}

	runID := uuid.NewString()
	log := o.logger.With(zap.String("run_id", runID))
	metrics.ActiveRuns.Inc()
	defer metrics.ActiveRuns.Dec()

	ctx, span := o.tracer.Start(ctx, "seekr.process", trace.WithAttributes(
		attribute.String("seekr.run_id", runID),
		attribute.String("seekr.language", language),
	))
	defer span.End()

	if o.useWeather(query) {
		resp, err := o.processWeather(ctx, query, onProgress, language, runID, log)
		if !errors.Is(err, agent.ErrNoLocation) && !errors.Is(err, agent.ErrNoWeather) {
			return resp, err
		}
		log.Info("weather agent could not answer, using general pipeline", zap.Error(err))
	}

	return o.processGeneral(ctx, query, history, onProgress, language, runID, log)
}

func (o *Orchestrator) useWeather(query string) bool {
	if o.weather == nil {
		return false
	}
	switch o.route {
	case RouteWeather:
		return true
	case RouteAuto:
		return o.router.Route(query) == RouteWeather
	}
	return false
}

func (o *Orchestrator) processGeneral(ctx context.Context, query string, history []llm.ChatMessage, onProgress ProgressFunc, language, runID string, log *zap.Logger) (Response, error) {
	prog := newProgress(InitialSteps(language))
	emit := func() {
		if onProgress != nil {
			onProgress(prog.snapshot())
		}
	}

	if err := prog.set(stepPlan, agent.StepLoading); err != nil {
		return o.fail(ctx, log, runID, "plan", err)
	}
	emit()

	prompt := agent.FollowUpMessage(query, history)

	var plan agent.PlanResult
	err := o.phase(ctx, "plan", func(ctx context.Context) (err error) {
		plan, err = o.executor.Plan(ctx, o.planner, prompt, language)
		return err
	})
	if err != nil {
		return o.fail(ctx, log, runID, "plan", err)
	}
	if err := prog.advance(stepPlan, stepSearch); err != nil {
		return o.fail(ctx, log, runID, "plan", err)
	}
	emit()

	var results []search.Result
	err = o.phase(ctx, "search", func(ctx context.Context) (err error) {
		results, err = o.executor.Search(ctx, o.searcher, prompt, plan, language)
		return err
	})
	if err != nil {
		return o.fail(ctx, log, runID, "search", err)
	}
	if err := prog.advance(stepSearch, stepConsolidate); err != nil {
		return o.fail(ctx, log, runID, "search", err)
	}
	emit()

	var (
		final   agent.ConsolidationResult
		related []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return o.phase(gctx, "consolidate", func(ctx context.Context) (err error) {
			final, err = o.executor.Consolidate(ctx, o.consolidator, prompt, plan, results, language)
			return err
		})
	})
	if o.related {
		g.Go(func() error {
			related = agent.RelatedQuestions(gctx, o.executor.Client(), query, plan.Answer, language, log)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return o.fail(ctx, log, runID, "consolidate", err)
	}
	if err := prog.set(stepConsolidate, agent.StepComplete); err != nil {
		return o.fail(ctx, log, runID, "consolidate", err)
	}
	emit()

	if related == nil {
		related = []string{}
	}
	log.Debug("run finished",
		zap.Int("results", len(results)),
		zap.Int("sources", len(final.Sources)),
		zap.Float64("confidence", final.Confidence))

	return Response{
		AgentResult: agent.AgentResult{
			Answer:     final.Answer,
			Sources:    agent.ValidSources(final.Sources),
			Confidence: agent.ClampConfidence(final.Confidence),
			Steps:      prog.snapshot(),
		},
		Related: related,
		RunID:   runID,
	}, nil
}

func (o *Orchestrator) processWeather(ctx context.Context, query string, onProgress ProgressFunc, language, runID string, log *zap.Logger) (Response, error) {
	prog := newProgress([]agent.PlanStep{{
		ID:            1,
		Description:   "Fetching weather information in " + agent.LanguageName(language),
		RequiredTools: []string{"extract_location", "get_weather"},
		Status:        agent.StepPending,
	}})
	emit := func() {
		if onProgress != nil {
			onProgress(prog.snapshot())
		}
	}
	if err := prog.set(1, agent.StepLoading); err != nil {
		return o.fail(ctx, log, runID, "weather", err)
	}
	emit()

	var result agent.AgentResult
	err := o.phase(ctx, "weather", func(ctx context.Context) (err error) {
		result, err = o.weather.Process(ctx, query, language)
		return err
	})
	if errors.Is(err, agent.ErrNoLocation) || errors.Is(err, agent.ErrNoWeather) {
		return Response{}, err
	}
	if err != nil {
		return o.fail(ctx, log, runID, "weather", err)
	}
	if err := prog.set(1, agent.StepComplete); err != nil {
		return o.fail(ctx, log, runID, "weather", err)
	}
	emit()

	related := []string{}
	if o.related {
		related = agent.RelatedQuestions(ctx, o.executor.Client(), query, result.Answer, language, log)
	}
	result.Sources = agent.ValidSources(result.Sources)
	result.Confidence = agent.ClampConfidence(result.Confidence)
	result.Steps = prog.snapshot()
	return Response{AgentResult: result, Related: related, RunID: runID}, nil
}

// phase runs fn inside a span and records its duration.
func (o *Orchestrator) phase(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := o.tracer.Start(ctx, "seekr."+name)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	metrics.PhaseDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil && !llm.IsCanceled(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (o *Orchestrator) fail(ctx context.Context, log *zap.Logger, runID, phase string, err error) (Response, error) {
	if ctx.Err() != nil || llm.IsCanceled(err) {
		log.Debug("run canceled", zap.String("phase", phase))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Response{}, ctxErr
		}
		return Response{}, err
	}
	log.Error("run failed", zap.String("phase", phase), zap.Error(err))
	trace.SpanFromContext(ctx).SetStatus(codes.Error, err.Error())
	return FailureResponse(runID), err
}
