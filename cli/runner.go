// Command execution for CLI commands.
//
// Information Hiding:
// - Command dispatch logic hidden
// - Pipeline setup hidden
// - Output formatting hidden

package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/richinex/seekr/agent"
	"github.com/richinex/seekr/llm"
	"github.com/richinex/seekr/orchestration"
	"github.com/richinex/seekr/search"
	"github.com/richinex/seekr/server"
	"github.com/richinex/seekr/storage"
	"github.com/richinex/seekr/tools"
)

// withApp loads settings, wires the components and runs fn.
func withApp(ctx context.Context, opts Options, fn func(*App) error) error {
	settings, err := LoadSettings(opts)
	if err != nil {
		return err
	}
	app, err := NewApp(ctx, settings)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}

// Ask answers query with a single streamed completion.
func Ask(ctx context.Context, w io.Writer, query string, opts Options) error {
	return withApp(ctx, opts, func(app *App) error {
		return ask(ctx, w, app.Direct(), query, opts.Language, app.Logger)
	})
}

// ask prints the streamed answer. A cancelled run keeps what was printed
// and is not an error. A failed run prints the failure answer.
func ask(ctx context.Context, w io.Writer, direct *orchestration.DirectResponder, query, language string, log *zap.Logger) error {
	printer := &answerPrinter{w: w}
	resp, err := direct.Answer(ctx, query, nil, language, printer.update)
	switch {
	case errors.Is(err, orchestration.ErrEmptyQuery):
		return err
	case llm.IsCanceled(err):
		printer.update(resp)
		fmt.Fprintln(w)
		return nil
	case err != nil:
		log.Debug("direct answer failed", zap.Error(err))
	}
	printer.update(resp)
	fmt.Fprintln(w)
	printSources(w, resp.Sources)
	printRelated(w, resp.Related)
	return nil
}

// RunAgent answers query with the plan, search and consolidate pipeline.
func RunAgent(ctx context.Context, w io.Writer, query, route string, opts Options) error {
	r, err := orchestration.ParseRoute(route)
	if err != nil {
		return err
	}
	return withApp(ctx, opts, func(app *App) error {
		return runAgent(ctx, w, app.Orchestrator(r), query, opts.Language, app.Logger)
	})
}

func runAgent(ctx context.Context, w io.Writer, orch *orchestration.Orchestrator, query, language string, log *zap.Logger) error {
	progress := &progressPrinter{w: w, seen: map[int]agent.StepStatus{}}
	resp, err := orch.Process(ctx, query, nil, progress.update, language)
	switch {
	case errors.Is(err, orchestration.ErrEmptyQuery):
		return err
	case llm.IsCanceled(err):
		return nil
	case err != nil:
		log.Debug("agent run failed", zap.Error(err))
		fmt.Fprintf(w, "\n%s\n", resp.Answer)
		return nil
	}
	fmt.Fprintf(w, "\n%s\n\n", resp.Answer)
	fmt.Fprintf(w, "(confidence %.2f)\n", resp.Confidence)
	printSources(w, resp.Sources)
	printRelated(w, resp.Related)
	return nil
}

// Chat starts an interactive chat session. Sessions are persisted in
// SQLite when sessionID is given and kept in memory otherwise.
func Chat(ctx context.Context, in io.Reader, w io.Writer, sessionID, dbPath string, agentMode bool, opts Options) error {
	return withApp(ctx, opts, func(app *App) error {
		var store storage.ConversationStorage
		if sessionID != "" {
			if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
				return fmt.Errorf("failed to create database directory: %w", err)
			}
			s, err := storage.OpenSqlite(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer s.Close()
			store = s
		} else {
			store = storage.NewInMemoryStorage()
			sessionID = storage.NewSessionID()
		}

		history, err := store.Load(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		if len(history) > 0 {
			fmt.Fprintf(w, "Resuming session '%s' (%d messages)\n\n", sessionID, len(history))
		}

		mode := "direct"
		orch := app.Orchestrator(orchestration.RouteAuto)
		direct := app.Direct()
		if agentMode {
			mode = "agent"
		}
		fmt.Fprintf(w, "Chat (%s mode). Type 'exit' to quit.\n\n", mode)

		scanner := bufio.NewScanner(in)
		for {
			fmt.Fprint(w, "> ")
			if !scanner.Scan() {
				break
			}

			input := strings.TrimSpace(scanner.Text())
			if input == "" {
				continue
			}
			if input == "exit" || input == "quit" {
				break
			}

			var (
				answer  string
				sources []agent.Source
				related []string
				err     error
			)
			fmt.Fprintln(w)
			if agentMode {
				var resp orchestration.Response
				resp, err = orch.Process(ctx, input, history, nil, opts.Language)
				answer, sources, related = resp.Answer, resp.Sources, resp.Related
				if !llm.IsCanceled(err) {
					fmt.Fprint(w, answer)
				}
			} else {
				printer := &answerPrinter{w: w}
				var resp orchestration.DirectResponse
				resp, err = direct.Answer(ctx, input, history, opts.Language, printer.update)
				printer.update(resp)
				answer, sources, related = resp.Answer, resp.Sources, resp.Related
			}
			if llm.IsCanceled(err) {
				fmt.Fprintln(w)
				return nil
			}
			if err != nil {
				// The failure answer was shown; keep it out of the history.
				app.Logger.Debug("chat turn failed", zap.Error(err))
				fmt.Fprintln(w)
				fmt.Fprintln(w)
				continue
			}
			fmt.Fprintln(w)
			printSources(w, sources)
			printRelated(w, related)
			fmt.Fprintln(w)

			history = append(history,
				llm.UserMessage(input),
				llm.AssistantMessage(agent.WithSourcesNote(answer, sources)),
			)
			if err := store.Save(ctx, sessionID, history); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save history: %v\n", err)
			}
		}

		return scanner.Err()
	})
}

// ListSessions prints the sessions stored at dbPath.
func ListSessions(ctx context.Context, w io.Writer, dbPath string) error {
	s, err := storage.OpenSqlite(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer s.Close()

	sessions, err := s.ListSessions(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No saved sessions.")
		return nil
	}
	for _, info := range sessions {
		fmt.Fprintf(w, "%s  %s  (%d messages, %s)\n",
			info.ID, info.Title, info.MessageCount, info.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

// Search prints web search results.
func Search(ctx context.Context, w io.Writer, query string, maxResults int, depth string, opts Options) error {
	return withApp(ctx, opts, func(app *App) error {
		if !app.Search.Enabled() {
			return fmt.Errorf("web search is not configured: set TAVILY_API_KEY or use --mock")
		}
		searchOpts := search.DefaultOptions()
		searchOpts.SearchDepth = app.Settings.Search.Depth
		searchOpts.MaxResults = app.Settings.Search.MaxResults
		if depth != "" {
			searchOpts.SearchDepth = depth
		}
		if maxResults > 0 {
			searchOpts.MaxResults = maxResults
		}

		results := app.Search.Search(ctx, query, searchOpts)
		if len(results) == 0 {
			fmt.Fprintln(w, "No results.")
			return ctx.Err()
		}
		printResults(w, results)
		return nil
	})
}

// News prints the latest articles for category.
func News(ctx context.Context, w io.Writer, category string, count int, opts Options) error {
	return withApp(ctx, opts, func(app *App) error {
		if count <= 0 {
			count = app.Settings.News.Count
		}
		articles, err := app.News.ByCategory(ctx, category, count)
		if err != nil {
			return err
		}
		if len(articles) == 0 {
			fmt.Fprintln(w, "No articles.")
			return nil
		}
		printResults(w, articles)
		return nil
	})
}

// Calc evaluates an arithmetic expression with the calculate tool.
func Calc(ctx context.Context, w io.Writer, expression string, steps bool) error {
	registry, err := tools.WithDefaults(nil)
	if err != nil {
		return err
	}
	args, err := json.Marshal(map[string]any{"expression": expression, "includeSteps": steps})
	if err != nil {
		return err
	}
	result, err := tools.NewDefaultExecutor().Run(ctx, registry, tools.CalculateTool.Name, args)
	if err != nil {
		return err
	}
	if !result.Success() {
		return result.Error
	}

	var out tools.Calculation
	if err := json.Unmarshal([]byte(result.Output), &out); err != nil {
		return fmt.Errorf("unexpected calculate output: %w", err)
	}
	for _, s := range out.Steps {
		fmt.Fprintln(w, s)
	}
	fmt.Fprintln(w, tools.FormatNumber(out.Result))
	return nil
}

// RunTool executes a registered tool with JSON arguments and prints its
// output.
func RunTool(ctx context.Context, w io.Writer, name, args string, opts Options) error {
	return withApp(ctx, opts, func(app *App) error {
		executor := tools.NewDefaultExecutor(tools.WithExecutorLogger(app.Logger))
		result, err := executor.Run(ctx, app.Tools, name, json.RawMessage(args))
		if err != nil {
			return err
		}
		if !result.Success() {
			return result.Error
		}
		fmt.Fprintln(w, result.Output)
		return nil
	})
}

// ListTools lists the registered tools.
func ListTools(ctx context.Context, w io.Writer, verbose bool, opts Options) error {
	return withApp(ctx, opts, func(app *App) error {
		fmt.Fprintln(w, "Available tools:")
		fmt.Fprintln(w)

		for _, meta := range app.Tools.List() {
			fmt.Fprintf(w, "  %s\n", meta.Name)
			fmt.Fprintf(w, "    %s\n", meta.Description)

			if verbose && len(meta.Parameters) > 0 {
				fmt.Fprintln(w, "    Parameters:")
				for _, param := range meta.Parameters {
					req := ""
					if param.Required {
						req = "*"
					}
					fmt.Fprintf(w, "      %s%s: %s - %s\n", param.Name, req, param.ParamType, param.Description)
				}
			}
			fmt.Fprintln(w)
		}
		return nil
	})
}

// Serve runs the HTTP API until ctx is done.
func Serve(ctx context.Context, addr string, opts Options) error {
	return withApp(ctx, opts, func(app *App) error {
		if addr == "" {
			addr = app.Settings.Server.Addr
		}
		srv := server.New(server.Services{
			Orchestrator: app.Orchestrator(orchestration.RouteAuto),
			Direct:       app.Direct(),
			Search:       app.Search,
			News:         app.News,
		}, server.WithLogger(app.Logger))
		return srv.ListenAndServe(ctx, addr)
	})
}

// Helper functions

// answerPrinter writes the growing answer incrementally.
type answerPrinter struct {
	w       io.Writer
	printed string
}

func (p *answerPrinter) update(r orchestration.DirectResponse) {
	if rest, ok := strings.CutPrefix(r.Answer, p.printed); ok {
		fmt.Fprint(p.w, rest)
	} else {
		fmt.Fprint(p.w, "\n"+r.Answer)
	}
	p.printed = r.Answer
}

// progressPrinter writes one line per step transition.
type progressPrinter struct {
	w    io.Writer
	seen map[int]agent.StepStatus
}

func (p *progressPrinter) update(steps []agent.PlanStep) {
	for _, s := range steps {
		if s.Status == agent.StepPending || p.seen[s.ID] == s.Status {
			continue
		}
		p.seen[s.ID] = s.Status
		mark := "..."
		if s.Status == agent.StepComplete {
			mark = "ok "
		}
		fmt.Fprintf(p.w, "[%s] %s\n", mark, s.Description)
	}
}

func printSources(w io.Writer, sources []agent.Source) {
	if len(sources) == 0 {
		return
	}
	fmt.Fprintln(w, "\nSources:")
	for i, s := range sources {
		fmt.Fprintf(w, "  [%d] %s - %s\n", i+1, s.Title, s.URL)
	}
}

func printRelated(w io.Writer, related []string) {
	if len(related) == 0 {
		return
	}
	fmt.Fprintln(w, "\nRelated:")
	for _, q := range related {
		fmt.Fprintf(w, "  - %s\n", q)
	}
}

const maxSnippetLen = 200

func printResults(w io.Writer, results []search.Result) {
	for i, r := range results {
		fmt.Fprintf(w, "[%d] %s\n    %s\n", i+1, r.Title, r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(w, "    %s\n", truncateString(r.Snippet, maxSnippetLen))
		}
		if r.PublishedDate != nil {
			fmt.Fprintf(w, "    %s\n", r.PublishedDate.Format("2006-01-02 15:04"))
		}
		fmt.Fprintln(w)
	}
}

// truncateString truncates a string to maxLen runes, preserving UTF-8 boundaries.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
