// SPDX-License-Identifier: MPL-2.0
// Copyright 2026 Sagacient <sagacient@gmail.com>
//
// See CONTRIBUTORS.md for full contributor list.

// Package main is the entry point for the Cute Charts MCP Server.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sagacient/cute-charts-mcp-server/bookmark"
	"github.com/sagacient/cute-charts-mcp-server/config"
	"github.com/sagacient/cute-charts-mcp-server/geocode"
	"github.com/sagacient/cute-charts-mcp-server/httpserver"
	"github.com/sagacient/cute-charts-mcp-server/logging"
	"github.com/sagacient/cute-charts-mcp-server/output"
	"github.com/sagacient/cute-charts-mcp-server/preset"
	"github.com/sagacient/cute-charts-mcp-server/render"
	"github.com/sagacient/cute-charts-mcp-server/scanner"
	"github.com/sagacient/cute-charts-mcp-server/storage"
	"github.com/sagacient/cute-charts-mcp-server/tools"
	"github.com/sagacient/cute-charts-mcp-server/workerpool"
)

const version = "1.0.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries what every command needs after flag parsing.
type app struct {
	configPath string
	logLevel   string

	cfg     *config.Config
	logger  *zap.Logger
	presets *preset.Registry
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var transport string
	var port int

	root := &cobra.Command{
		Use:   "cute-charts",
		Short: "MCP server that turns statistics exports into chart-ready data",
		Long: `Cute Charts loads wide statistics exports (CSV or XLSX, UTF-8 or CP949),
reshapes them into long (entity, year, metric, value) tables, filters them
into chart feeds and renders charts. It also keeps a small place bookmark
store with geocoding.

Run without a subcommand to start the MCP server.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd, transport, port)
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", os.Getenv("CONFIG_FILE"), "YAML configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	addServeFlags(root, &transport, &port)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server (stdio or streamable HTTP)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd, transport, port)
		},
	}
	addServeFlags(serveCmd, &transport, &port)

	root.AddCommand(
		serveCmd,
		newInspectCmd(a),
		newReshapeCmd(a),
		newChartCmd(a),
		newBookmarkCmd(a),
		newGeocodeCmd(a),
		newPresetsCmd(a),
	)
	return root
}

func addServeFlags(cmd *cobra.Command, transport *string, port *int) {
	cmd.Flags().StringVarP(transport, "transport", "t", "", "Transport type (stdio or http)")
	cmd.Flags().IntVar(port, "port", 0, "HTTP port (http transport)")
}

// setup loads configuration, builds the logger and the preset registry.
func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
	}

	logger, _, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}

	presets := preset.NewRegistry()
	if cfg.PresetsFile != "" {
		n, err := presets.LoadFile(cfg.PresetsFile)
		if err != nil {
			return err
		}
		logger.Info("Loaded presets", zap.String("file", cfg.PresetsFile), zap.Int("count", n))
	}

	a.cfg, a.logger, a.presets = cfg, logger, presets
	return nil
}

// geocoder builds the geocoding client from configuration.
func (a *app) geocoder() (*geocode.Client, error) {
	return geocode.NewClient(a.cfg.Geocoder, a.logger.Named("geocode"))
}

// openBook opens the configured bookmark store. The returned close
// function releases the backend.
func (a *app) openBook(ctx context.Context, g geocode.Geocoder) (*bookmark.Book, func() error, error) {
	path, err := storage.ExpandHome(a.cfg.Bookmarks.Path)
	if err != nil {
		return nil, nil, err
	}

	var store bookmark.Store
	closeFn := func() error { return nil }
	switch a.cfg.Bookmarks.Backend {
	case "sqlite":
		s, err := bookmark.OpenSQLite(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		store, closeFn = s, s.Close
	default:
		store = bookmark.NewJSONStore(path)
	}

	a.logger.Info("Bookmark store ready",
		zap.String("backend", a.cfg.Bookmarks.Backend),
		zap.String("path", path))
	return bookmark.NewBook(store, g, a.logger.Named("bookmark")), closeFn, nil
}

// renderOptions returns the configured image settings, loading the font
// when one is set.
func (a *app) renderOptions() render.Options {
	opts := render.Options{
		Format: render.Format(a.cfg.Render.Format),
		Width:  a.cfg.Render.Width,
		Height: a.cfg.Render.Height,
	}
	if a.cfg.Render.FontPath != "" {
		font, err := render.LoadFont(a.cfg.Render.FontPath)
		if err != nil {
			a.logger.Warn("Failed to load font, Hangul labels may not render", zap.Error(err))
		} else {
			opts.Font = font
		}
	}
	return opts
}

func (a *app) serve(cmd *cobra.Command, transport string, port int) error {
	cfg := a.cfg
	logger := a.logger

	if transport != "" {
		cfg.Server.Transport = transport
	}
	if port != 0 {
		cfg.Server.HTTPPort = port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := workerpool.NewPool(cfg.Workers.MaxWorkers, cfg.Workers.AcquireTimeout)

	outputDir, err := storage.ExpandHome(cfg.Outputs.Dir)
	if err != nil {
		return err
	}
	outputs := output.NewStore(outputDir, cfg.Outputs.TTL, logger.Named("output"))
	outputs.StartCleanupLoop(cfg.Outputs.CleanupInterval)
	defer outputs.Stop()

	geocoder, err := a.geocoder()
	if err != nil {
		return err
	}
	book, closeBook, err := a.openBook(ctx, geocoder)
	if err != nil {
		return fmt.Errorf("failed to open bookmarks: %w", err)
	}
	defer closeBook()

	chartTools := tools.NewChartTools(tools.Deps{
		Pool:            pool,
		Presets:         a.presets,
		Outputs:         outputs,
		Book:            book,
		Geocoder:        geocoder,
		Render:          a.renderOptions(),
		LoadConcurrency: cfg.Workers.LoadConcurrency,
		Logger:          logger.Named("tools"),
	})
	mcpServer := createMCPServer(chartTools, logger.Named("mcp"))

	logger.Info("Starting Cute Charts MCP server",
		zap.String("version", version),
		zap.String("transport", cfg.Server.Transport),
		zap.Int("max_workers", cfg.Workers.MaxWorkers),
		zap.Duration("acquire_timeout", cfg.Workers.AcquireTimeout),
		zap.String("output_dir", outputDir),
		zap.Int("presets", len(a.presets.List())))

	if cfg.Server.Transport != "http" {
		logger.Info("Starting stdio server...")
		return server.ServeStdio(mcpServer, server.WithErrorLogger(zap.NewStdLog(logger.Named("stdio"))))
	}

	inspector := scanner.NewInspector(cfg.Scanning, logger.Named("scanner"))
	if inspector.ScanningEnabled() {
		if inspector.ScannerAvailable(ctx) {
			logger.Info("Malware scanning enabled (ClamAV available)")
		} else {
			logger.Warn("Malware scanning enabled but ClamAV not available", zap.Bool("fail_open", cfg.Scanning.FailOpen))
		}
	} else {
		logger.Info("Malware scanning disabled")
	}

	fileStore, err := storage.NewFileStore(cfg.Storage.Dir, cfg.Storage.UploadTTL, cfg.Storage.MaxUploadSize, inspector, logger.Named("storage"))
	if err != nil {
		return fmt.Errorf("failed to create file store: %w", err)
	}
	defer fileStore.Close()
	chartTools.SetFileStore(fileStore)

	httpSrv := httpserver.NewServer(mcpServer, fileStore, book, logger.Named("http"))
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.Start(fmt.Sprintf(":%d", cfg.Server.HTTPPort))
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return <-errCh
}

func createMCPServer(chartTools *tools.ChartTools, logger *zap.Logger) *server.MCPServer {
	hooks := &server.Hooks{}

	hooks.AddBeforeAny(func(ctx context.Context, id any, method mcp.MCPMethod, message any) {
		logger.Debug("Request", zap.String("method", string(method)), zap.Any("id", id))
	})

	hooks.AddOnSuccess(func(ctx context.Context, id any, method mcp.MCPMethod, message any, result any) {
		logger.Debug("Success", zap.String("method", string(method)), zap.Any("id", id))
	})

	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		logger.Warn("Error", zap.String("method", string(method)), zap.Any("id", id), zap.Error(err))
	})

	mcpServer := server.NewMCPServer(
		"cute-charts",
		version,
		server.WithToolCapabilities(true),
		server.WithHooks(hooks),
		server.WithRecovery(),
	)

	// Table and chart tools
	mcpServer.AddTool(tools.InspectTableTool(), chartTools.InspectTableHandler)
	mcpServer.AddTool(tools.ResolveColumnsTool(), chartTools.ResolveColumnsHandler)
	mcpServer.AddTool(tools.ReshapeTableTool(), chartTools.ReshapeTableHandler)
	mcpServer.AddTool(tools.ChartFeedTool(), chartTools.ChartFeedHandler)
	mcpServer.AddTool(tools.RenderChartTool(), chartTools.RenderChartHandler)
	mcpServer.AddTool(tools.AgeDistributionTool(), chartTools.AgeDistributionHandler)
	mcpServer.AddTool(tools.ListPresetsTool(), chartTools.ListPresetsHandler)

	// Places
	mcpServer.AddTool(tools.GeocodeAddressTool(), chartTools.GeocodeAddressHandler)
	mcpServer.AddTool(tools.AddBookmarkTool(), chartTools.AddBookmarkHandler)
	mcpServer.AddTool(tools.ListBookmarksTool(), chartTools.ListBookmarksHandler)

	// Output management
	mcpServer.AddTool(tools.ListOutputsTool(), chartTools.ListOutputsHandler)
	mcpServer.AddTool(tools.GetOutputTool(), chartTools.GetOutputHandler)
	mcpServer.AddTool(tools.DeleteOutputsTool(), chartTools.DeleteOutputsHandler)

	mcpServer.AddTool(tools.StatusTool(), chartTools.StatusHandler)

	return mcpServer
}

// writeOutput opens path for writing, or returns the command's output for
// "" and "-".
func writeOutput(cmd *cobra.Command, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
