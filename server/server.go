// Package server exposes the answer pipelines, web search and category
// news over HTTP.
//
// Information Hiding:
// - Request decoding and NDJSON framing hidden
// - Request logging, CORS and metrics hidden
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/richinex/seekr/agent"
	"github.com/richinex/seekr/internal/logger"
	"github.com/richinex/seekr/llm"
	"github.com/richinex/seekr/orchestration"
	"github.com/richinex/seekr/search"
)

// Chat modes.
const (
	ModeAgent  = "agent"
	ModeDirect = "direct"
)

// Services are the components the API serves. Search and News may be nil.
type Services struct {
	Orchestrator *orchestration.Orchestrator
	Direct       *orchestration.DirectResponder
	Search       *search.Service
	News         *search.NewsService
}

// Server is the HTTP API.
type Server struct {
	services Services
	origin   string
	logger   *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = logger.OrNop(l) }
}

// WithAllowedOrigin sets Access-Control-Allow-Origin. Defaults to "*".
func WithAllowedOrigin(origin string) Option {
	return func(s *Server) { s.origin = origin }
}

// New creates a server.
func New(services Services, opts ...Option) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{services: services, origin: "*", logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed, instrumented handler.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery(), s.cors(), s.instrument())

	api := r.Group("/api")
	{
		api.POST("/chat", s.handleChat)
		api.POST("/search", s.handleSearch)
		api.GET("/news", s.handleNews)
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.logger.Info("server listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	if err := srv.Shutdown(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// ─────────────────────────────────────────────
// DTOs
// ─────────────────────────────────────────────

type chatRequest struct {
	Query    string            `json:"query"`
	History  []llm.ChatMessage `json:"history"`
	Language string            `json:"language"`
	Mode     string            `json:"mode"`
}

// chatEvent is one NDJSON line of a chat stream.
type chatEvent struct {
	Type     string           `json:"type"`
	Steps    []agent.PlanStep `json:"steps,omitempty"`
	Answer   string           `json:"answer,omitempty"`
	Response any              `json:"response,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// Chat event types.
const (
	EventProgress = "progress"
	EventUpdate   = "update"
	EventFinal    = "final"
	EventError    = "error"
)

type searchRequest struct {
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	IncludeImages *bool  `json:"include_images"`
	IncludeAnswer bool   `json:"include_answer"`
	MaxResults    int    `json:"max_results"`
}

// ─────────────────────────────────────────────
// Handlers
// ─────────────────────────────────────────────

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		badRequest(c, "query is required")
		return
	}
	if req.Language == "" {
		req.Language = "en"
	}
	switch req.Mode {
	case "", ModeAgent:
		req.Mode = ModeAgent
	case ModeDirect:
	default:
		badRequest(c, "mode must be agent or direct")
		return
	}

	stream := newEventStream(c)
	ctx := c.Request.Context()

	var (
		final any
		err   error
	)
	if req.Mode == ModeAgent {
		final, err = s.services.Orchestrator.Process(ctx, req.Query, req.History,
			func(steps []agent.PlanStep) {
				stream.send(chatEvent{Type: EventProgress, Steps: steps})
			}, req.Language)
	} else {
		final, err = s.services.Direct.Answer(ctx, req.Query, req.History, req.Language,
			func(update orchestration.DirectResponse) {
				stream.send(chatEvent{Type: EventUpdate, Answer: update.Answer})
			})
	}

	switch {
	case ctx.Err() != nil:
		s.logger.Debug("chat canceled by client", zap.String("mode", req.Mode))
		return
	case err != nil:
		s.logger.Error("chat failed", zap.String("mode", req.Mode), zap.Error(err))
		stream.send(chatEvent{Type: EventError, Error: err.Error(), Response: final})
		return
	}
	stream.send(chatEvent{Type: EventFinal, Response: final})
}

func (s *Server) handleSearch(c *gin.Context) {
	if s.services.Search == nil || !s.services.Search.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "search is not configured"})
		return
	}

	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		badRequest(c, "query is required")
		return
	}

	opts := search.DefaultOptions()
	opts.IncludeImages = true
	opts.IncludeAnswer = req.IncludeAnswer
	if req.IncludeImages != nil {
		opts.IncludeImages = *req.IncludeImages
	}
	switch req.SearchDepth {
	case "":
	case search.DepthBasic, search.DepthAdvanced:
		opts.SearchDepth = req.SearchDepth
	default:
		badRequest(c, "search_depth must be basic or advanced")
		return
	}
	if req.MaxResults > 0 {
		opts.MaxResults = req.MaxResults
	}

	results := s.services.Search.Search(c.Request.Context(), req.Query, opts)
	if results == nil {
		results = []search.Result{}
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *Server) handleNews(c *gin.Context) {
	if s.services.News == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "news is not configured"})
		return
	}

	count := search.DefaultNewsCount
	if raw := c.Query("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			badRequest(c, "count must be a positive integer")
			return
		}
		count = n
	}

	articles, err := s.services.News.ByCategory(c.Request.Context(), c.Query("category"), count)
	if err != nil {
		// Only cancellation reaches here; the client is gone.
		return
	}
	if articles == nil {
		articles = []search.Result{}
	}
	c.JSON(http.StatusOK, gin.H{"articles": articles})
}

// ─────────────────────────────────────────────
// NDJSON
// ─────────────────────────────────────────────

// eventStream writes one JSON object per line, flushing after each.
type eventStream struct {
	mu  sync.Mutex
	w   gin.ResponseWriter
	enc *json.Encoder
}

func newEventStream(c *gin.Context) *eventStream {
	c.Header("Content-Type", "application/x-ndjson")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	return &eventStream{w: c.Writer, enc: json.NewEncoder(c.Writer)}
}

func (e *eventStream) send(ev chatEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enc.Encode(ev); err != nil {
		return
	}
	e.w.Flush()
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
