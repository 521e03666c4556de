// Package tools contains the tool dispatcher and one handler per tool. The
// dispatcher is the single boundary where internal failures become
// user-visible text: handlers return typed errors, the dispatcher classifies
// them into catalog codes, and every call — including unknown tool names —
// produces a result payload rather than a transport fault.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tablegate/tablegate/config"
	"github.com/tablegate/tablegate/internal/formula"
	"github.com/tablegate/tablegate/internal/gateway"
	"github.com/tablegate/tablegate/pkg/toolerr"
)

// HandlerFunc executes one tool against the raw argument map.
type HandlerFunc func(ctx context.Context, args map[string]any) (any, error)

// Result is a transport-neutral tool outcome. Both the MCP stdio server and
// the HTTP API render it without further interpretation.
type Result struct {
	Text    string
	IsError bool
}

// Limits bounds the record volumes handlers may request from the gateway.
type Limits struct {
	RecordSampleLimit int
	ScanRecordLimit   int
	BatchSizeLimit    int
}

// DefaultLimits returns the configured defaults.
func DefaultLimits() Limits {
	return Limits{
		RecordSampleLimit: config.DefaultRecordSampleLimit,
		ScanRecordLimit:   config.DefaultScanRecordLimit,
		BatchSizeLimit:    config.DefaultBatchSizeLimit,
	}
}

// Dispatcher routes tool invocations to handlers through a static name table
// resolved at construction.
type Dispatcher struct {
	gw        *gateway.Client
	sanitizer formula.Sanitizer
	limits    Limits
	logger    zerolog.Logger
	handlers  map[string]HandlerFunc
}

// NewDispatcher wires the handler table. A nil sanitizer puts the dispatcher
// into degraded mode: unfiltered reads keep working, but any handler that
// would forward user-supplied filter or search text refuses with
// SANITIZER_UNAVAILABLE. This state is logged loudly here and never defaults
// silently.
func NewDispatcher(gw *gateway.Client, sanitizer formula.Sanitizer, limits Limits, logger zerolog.Logger) *Dispatcher {
	d := &Dispatcher{
		gw:        gw,
		sanitizer: sanitizer,
		limits:    limits,
		logger:    logger.With().Str("component", "dispatcher").Logger(),
	}
	if limits.RecordSampleLimit <= 0 || limits.ScanRecordLimit <= 0 || limits.BatchSizeLimit <= 0 {
		d.limits = DefaultLimits()
	}
	if sanitizer == nil {
		d.logger.Warn().
			Bool("sanitizer_disabled", true).
			Msg("formula sanitizer DISABLED: filter and search arguments will be rejected, not forwarded")
	}

	d.handlers = map[string]HandlerFunc{
		"list_tables":           d.handleListTables,
		"get_records":           d.handleGetRecords,
		"get_field_info":        d.handleGetFieldInfo,
		"create_record":         d.handleCreateRecord,
		"update_record":         d.handleUpdateRecord,
		"delete_record":         d.handleDeleteRecord,
		"batch_create_records":  d.handleBatchCreateRecords,
		"batch_update_records":  d.handleBatchUpdateRecords,
		"analyze_table_data":    d.handleAnalyzeTableData,
		"find_duplicates":       d.handleFindDuplicates,
		"search_records":        d.handleSearchRecords,
		"create_metadata_table": d.handleCreateMetadataTable,
		"export_table_csv":      d.handleExportTableCSV,
		"sync_tables":           d.handleSyncTables,
	}
	return d
}

// ToolNames lists the registered tool names.
func (d *Dispatcher) ToolNames() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	return names
}

// SanitizerEnabled reports whether the formula-safety layer is active.
func (d *Dispatcher) SanitizerEnabled() bool {
	return d.sanitizer != nil
}

// Dispatch looks up the named handler and executes it. It never panics and
// never returns a transport-level failure: unknown tools, handler errors, and
// panics all come back as error-shaped Results whose text the caller can read.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args map[string]any) (res Result) {
	start := time.Now()
	callID := uuid.NewString()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error().Str("call_id", callID).Str("tool", name).Interface("panic", r).Msg("handler panicked")
			res = errorResult(toolerr.Internal, fmt.Sprintf("panic in tool %s: %v", name, r))
		}
	}()

	handler, ok := d.handlers[name]
	if !ok {
		d.logger.Warn().Str("call_id", callID).Str("tool", name).Msg("unknown tool requested")
		return errorResult(toolerr.UnknownTool, fmt.Sprintf("Unknown tool: %s", name))
	}

	d.logger.Info().Str("call_id", callID).Str("tool", name).Msg("executing tool")

	payload, err := handler(ctx, args)
	if err != nil {
		d.logger.Error().Str("call_id", callID).Str("tool", name).Dur("duration", time.Since(start)).Err(err).Msg("tool failed")
		return classify(err)
	}

	text, merr := renderPayload(payload)
	if merr != nil {
		d.logger.Error().Str("call_id", callID).Str("tool", name).Err(merr).Msg("payload encoding failed")
		return errorResult(toolerr.Internal, merr.Error())
	}

	d.logger.Info().Str("call_id", callID).Str("tool", name).Dur("duration", time.Since(start)).Msg("tool completed")
	return Result{Text: text}
}

// renderPayload converts a handler payload to response text: strings pass
// through (plain informational messages), everything else becomes indented
// JSON matching the gateway's response style.
func renderPayload(payload any) (string, error) {
	if s, ok := payload.(string); ok {
		return s, nil
	}
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode tool response: %w", err)
	}
	return string(b), nil
}

// classify maps handler errors onto catalog codes for the error-shaped
// result text.
func classify(err error) Result {
	var (
		missing     *toolerr.MissingArgumentError
		batch       *toolerr.BatchSizeError
		notFound    *toolerr.NotFoundError
		noSanitizer *toolerr.SanitizerUnavailableError
		validation  *toolerr.ValidationError
		injection   *formula.InjectionError
		gatewayErr  *gateway.Error
	)

	switch {
	case errors.As(err, &missing):
		return errorResult(toolerr.MissingArgument, missing.Error())
	case errors.As(err, &validation):
		return errorResult(toolerr.Validation, validation.Error())
	case errors.As(err, &batch):
		return errorResult(toolerr.BatchSize, batch.Error())
	case errors.As(err, &injection):
		return errorResult(toolerr.FormulaInjection, injection.Error())
	case errors.As(err, &noSanitizer):
		return errorResult(toolerr.SanitizerUnavailable, noSanitizer.Error())
	case errors.As(err, &notFound):
		return errorResult(toolerr.NotFound, notFound.Error())
	case errors.As(err, &gatewayErr):
		return errorResult(toolerr.Gateway, gatewayErr.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return errorResult(toolerr.Timeout, err.Error())
	default:
		return errorResult(toolerr.Internal, err.Error())
	}
}

func errorResult(code toolerr.Code, msg string) Result {
	return Result{Text: toolerr.Normalize(code, msg), IsError: true}
}
