// Scout: deep-research MCP server.
//
// Exposes a cached, size-aware deep-research tool over three transport
// bindings: stdio for local clients, stateless HTTP for remote ones,
// and SSE for streaming sessions.
//
// Usage:
//
//	scout serve              # start the MCP server (transport per SCOUT_MODE)
//	scout report "query"     # run one research pass and print the report
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/HendryAvila/scout/internal/cache"
	"github.com/HendryAvila/scout/internal/config"
	"github.com/HendryAvila/scout/internal/delivery"
	"github.com/HendryAvila/scout/internal/research"
	scoutserver "github.com/HendryAvila/scout/internal/server"
	"github.com/HendryAvila/scout/internal/transport"
	"github.com/spf13/cobra"
)

var (
	depth   int
	breadth int
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "scout",
		Short:   "Deep-research MCP server with cached, size-aware result delivery",
		Version: scoutserver.Version,
		Long: `Scout wraps a multi-step research pipeline in an MCP tool.

Identical requests are served from a bounded TTL cache, and reports too
large for the protocol (or any report on a remote transport) are
uploaded to blob storage and delivered as a signed link.`,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio or HTTP per SCOUT_MODE)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	reportCmd := &cobra.Command{
		Use:   "report [query]",
		Short: "Run one research pass and print the markdown report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd.Context(), args[0])
		},
	}
	reportCmd.Flags().IntVarP(&depth, "depth", "d", 3, "Recursion depth of follow-up research (1-5)")
	reportCmd.Flags().IntVarP(&breadth, "breadth", "b", 3, "Parallel search directions per level (1-5)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reportCmd)

	ctx, cancel := signalContext()
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// signalContext returns a context canceled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}

// newLogger builds the process logger. Always stderr: in stdio mode,
// stdout belongs to the protocol.
func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// buildDeps assembles the process-wide collaborators: research engine,
// result cache, and blob offloader.
func buildDeps(ctx context.Context, cfg config.Settings, logger *slog.Logger) (scoutserver.Deps, error) {
	engine, err := research.NewGeminiEngine(ctx, cfg.GeminiAPIKey, cfg.Model, cfg.Grounding, cfg.URLContext)
	if err != nil {
		return scoutserver.Deps{}, fmt.Errorf("creating research engine: %w", err)
	}

	var bucket delivery.Bucket
	bucket, err = delivery.NewGCSBucket(ctx, cfg.Bucket)
	if err != nil {
		// Degraded but serving: offloads will fail visibly per call
		// instead of taking the whole server down.
		logger.Warn("storage unavailable, offloads will fail", "bucket", cfg.Bucket, "error", err)
		bucket = delivery.UnavailableBucket{Err: err}
	}

	return scoutserver.Deps{
		Engine:   engine,
		Cache:    cache.New(cfg.CacheSize, cfg.CacheTTL),
		Uploader: delivery.NewOffloader(bucket, logger),
		Logger:   logger,
	}, nil
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger()
	deps, err := buildDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}

	logger.Info("starting scout",
		"version", scoutserver.Version,
		"mode", cfg.Mode,
		"cacheTTL", cfg.CacheTTL,
		"cacheSize", cfg.CacheSize,
	)

	switch cfg.Mode {
	case config.ModeHTTP:
		factory := scoutserver.NewFactory(cfg, deps, true)
		return transport.NewHTTPBinding(cfg, factory, logger).Serve(ctx)
	default:
		s := scoutserver.New(cfg, deps, false)
		return transport.ServeStdio(ctx, s, logger)
	}
}

func runReport(ctx context.Context, query string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger()
	engine, err := research.NewGeminiEngine(ctx, cfg.GeminiAPIKey, cfg.Model, cfg.Grounding, cfg.URLContext)
	if err != nil {
		return fmt.Errorf("creating research engine: %w", err)
	}

	result, err := engine.Research(ctx, research.Request{
		Query:   query,
		Depth:   research.ClampLevel(depth, 3),
		Breadth: research.ClampLevel(breadth, 3),
	}, func(stage, detail string) {
		logger.Info("research progress", "stage", stage, "detail", detail)
	})
	if err != nil {
		return fmt.Errorf("research failed: %w", err)
	}

	fmt.Println(research.RenderReport(query, result.Learnings, result.VisitedURLs))
	return nil
}
