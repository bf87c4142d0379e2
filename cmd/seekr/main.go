// Package main provides the seekr CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/richinex/seekr/cli"
	"github.com/richinex/seekr/config"
)

var (
	// Global flags
	provider     string
	configFile   string
	useMock      bool
	autoFallback bool
	language     string
	verbose      bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:   "seekr",
		Short: "Search-augmented answers from LLM agents",
		Long: `A CLI for answering questions with an LLM, grounded in live web search.

Two paths are available:
- ask: a single streamed completion, searching first when the question needs it
- agent: a plan, search and consolidate pipeline with step-by-step progress

Without API keys, --mock answers everything from an offline backend.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "",
		"LLM provider ("+strings.Join(config.SupportedProviders(), ", ")+")")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a seekr.yaml config file")
	rootCmd.PersistentFlags().BoolVar(&useMock, "mock", false, "Answer from the offline mock backend")
	rootCmd.PersistentFlags().BoolVar(&autoFallback, "auto-fallback", false, "Fall back to the mock backend when a service fails")
	rootCmd.PersistentFlags().StringVarP(&language, "language", "l", "en", "Answer language code")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logs")

	// Add commands
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(agentCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(newsCmd())
	rootCmd.AddCommand(calcCmd())
	rootCmd.AddCommand(toolsCmd())
	rootCmd.AddCommand(toolCmd())
	rootCmd.AddCommand(agentsCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func options() cli.Options {
	return cli.Options{
		Provider:     provider,
		ConfigFile:   configFile,
		Mock:         useMock,
		AutoFallback: autoFallback,
		Language:     language,
		Verbose:      verbose,
	}
}

func askCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask [query]",
		Short: "Answer a question with a single streamed completion",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Ask(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "), options())
		},
	}
}

func agentCmd() *cobra.Command {
	var route string

	cmd := &cobra.Command{
		Use:   "agent [query]",
		Short: "Answer a question with the plan, search and consolidate pipeline",
		Long: `Answer a question with the agent pipeline.

The planner breaks the question down, the searcher derives a web query and
runs it when needed, and the consolidator writes the cited answer. Related
questions are generated alongside the final answer.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunAgent(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "), route, options())
		},
	}

	cmd.Flags().StringVarP(&route, "agent", "a", "auto", "Pipeline to use: auto, general or weather")

	return cmd
}

func chatCmd() *cobra.Command {
	var sessionID string
	var dbPath string
	var agentMode bool
	var list bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				return cli.ListSessions(cmd.Context(), cmd.OutOrStdout(), dbPath)
			}
			return cli.Chat(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), sessionID, dbPath, agentMode, options())
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID for conversation persistence")
	cmd.Flags().StringVar(&dbPath, "db", ".seekr/seekr.db", "Database path for storage")
	cmd.Flags().BoolVar(&agentMode, "agent-mode", false, "Answer with the agent pipeline instead of a single completion")
	cmd.Flags().BoolVar(&list, "list", false, "List saved sessions and exit")

	return cmd
}

func searchCmd() *cobra.Command {
	var maxResults int
	var depth string

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Run a web search",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Search(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "), maxResults, depth, options())
		},
	}

	cmd.Flags().IntVarP(&maxResults, "max-results", "n", 0, "Maximum number of results")
	cmd.Flags().StringVar(&depth, "depth", "", "Search depth: basic or advanced")

	return cmd
}

func newsCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "news [category]",
		Short: "Show the latest news for a category",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category := "general"
			if len(args) == 1 {
				category = args[0]
			}
			return cli.News(cmd.Context(), cmd.OutOrStdout(), category, count, options())
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 0, "Number of articles")

	return cmd
}

func calcCmd() *cobra.Command {
	var steps bool

	cmd := &cobra.Command{
		Use:   "calc [expression]",
		Short: "Evaluate an arithmetic expression",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Calc(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "), steps)
		},
	}

	cmd.Flags().BoolVar(&steps, "steps", false, "Show solution steps")

	return cmd
}

func toolsCmd() *cobra.Command {
	var verboseTools bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List available tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.ListTools(cmd.Context(), cmd.OutOrStdout(), verboseTools, options())
		},
	}

	cmd.Flags().BoolVarP(&verboseTools, "verbose", "V", false, "Show tool parameters")

	return cmd
}

func toolCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "tool [name] [json-args]",
		Short:   "Run a registered tool",
		Example: `  seekr tool calculate '{"expression": "2 * (3 + 4)"}'`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunTool(cmd.Context(), cmd.OutOrStdout(), args[0], args[1], options())
		},
	}
}

func agentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List built-in agents",
		Run: func(cmd *cobra.Command, args []string) {
			cli.PrintAgents(cmd.OutOrStdout())
		},
	}
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Serve(cmd.Context(), addr, options())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")

	return cmd
}
