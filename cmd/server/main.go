package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/tablegate/tablegate/config"
	"github.com/tablegate/tablegate/internal/formula"
	"github.com/tablegate/tablegate/internal/gateway"
	"github.com/tablegate/tablegate/internal/httpapi"
	"github.com/tablegate/tablegate/internal/registry"
	"github.com/tablegate/tablegate/internal/runtime"
	"github.com/tablegate/tablegate/internal/telemetry"
	"github.com/tablegate/tablegate/internal/tools"
	"github.com/tablegate/tablegate/pkg/version"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var (
		useStdio bool
		useHTTP  bool
	)

	flag.BoolVar(&useStdio, "stdio", false, "Run server over stdio transport")
	flag.BoolVar(&useHTTP, "http", false, "Run the HTTP API server")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	// Log to stderr: on stdio transport, stdout belongs to the protocol.
	logger := zerolog.New(os.Stderr).Level(level).With().
		Timestamp().
		Str("service", cfg.ServerName).
		Logger()

	gw := gateway.NewClient(cfg.GatewayURL, cfg.GatewayAPIKey, cfg.GatewayTimeout, logger)

	probeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := gw.CheckHealth(probeCtx); err != nil {
		logger.Warn().Err(err).Str("gateway_url", cfg.GatewayURL).Msg("gateway health probe failed; tool calls may error until it recovers")
	} else {
		logger.Info().Str("gateway_url", cfg.GatewayURL).Msg("gateway is healthy")
	}
	cancel()

	var sanitizer formula.Sanitizer
	if cfg.DisableSanitizer {
		logger.Warn().Msg("TABLEGATE_DISABLE_SANITIZER is set: filter and search arguments will be rejected")
	} else {
		sanitizer = formula.NewValidator()
	}

	limits := tools.Limits{
		RecordSampleLimit: config.DefaultRecordSampleLimit,
		ScanRecordLimit:   config.DefaultScanRecordLimit,
		BatchSizeLimit:    config.DefaultBatchSizeLimit,
	}
	dispatcher := tools.NewDispatcher(gw, sanitizer, limits, logger)

	runtimeLimits := runtime.NewLimits(cfg.MaxConcurrentRequests, cfg.OperationTimeout)
	runtimeMW := runtime.NewMiddleware(runtime.NewController(runtimeLimits))

	toolRegistry := registry.New()
	writeFilter := registry.NewWriteToolFilter(cfg.EnableWrites)

	srv := server.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithHooks(telemetry.NewServerHooks(logger)),
		server.WithToolHandlerMiddleware(runtimeMW.ToolMiddleware),
		server.WithToolHandlerMiddleware(writeFilter.ToolMiddleware),
		server.WithToolFilter(func(ctx context.Context, defs []mcp.Tool) []mcp.Tool {
			return writeFilter.FilterTools(ctx, defs)
		}),
	)

	tools.RegisterAll(srv, toolRegistry, dispatcher)

	logger.Info().
		Str("version", version.Version()).
		Int("max_concurrent_requests", runtimeLimits.MaxConcurrentRequests).
		Int("model_context_size", toolRegistry.ModelContextSize("gpt-4o")).
		Bool("writes_enabled", cfg.EnableWrites).
		Bool("sanitizer_enabled", dispatcher.SanitizerEnabled()).
		Bool("stdio", useStdio).
		Bool("http", useHTTP).
		Msg("server bootstrap configured")

	switch {
	case useStdio:
		if err := server.ServeStdio(srv); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
	case useHTTP:
		api := httpapi.New(cfg.ServerName, dispatcher, toolRegistry, writeFilter, logger)
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP API listening")
		if err := http.ListenAndServe(cfg.HTTPAddr, api.Router(cfg.CORSOriginList())); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintln(os.Stderr, "no transport selected; use --stdio or --http")
		os.Exit(2)
	}
}
