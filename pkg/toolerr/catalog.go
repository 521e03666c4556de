// Package toolerr defines the canonical error codes surfaced to tool callers
// and normalizes them into a single message format. Both transports (MCP
// stdio and the HTTP API) render these strings verbatim, so callers — which
// are language models — can read the code, the message, and the recovery
// guidance from one line of text.
package toolerr

import (
	"fmt"
	"strings"
)

// Code is a canonical error code shared across all tools.
type Code string

const (
	// Validation & Input
	Validation      Code = "VALIDATION"
	MissingArgument Code = "MISSING_ARGUMENT"
	BatchSize       Code = "BATCH_SIZE"

	// Formula safety
	FormulaInjection     Code = "FORMULA_INJECTION"
	SanitizerUnavailable Code = "SANITIZER_UNAVAILABLE"

	// Routing & Resolution
	UnknownTool Code = "UNKNOWN_TOOL"
	NotFound    Code = "NOT_FOUND"

	// Remote & Limits
	Gateway      Code = "GATEWAY_ERROR"
	Timeout      Code = "TIMEOUT"
	BusyResource Code = "BUSY_RESOURCE"

	// Catch-all for unclassified handler failures.
	Internal Code = "INTERNAL"
)

// Entry documents a code's standard message, retry semantics, and next steps.
type Entry struct {
	Code      Code
	Message   string
	Retryable bool
	NextSteps []string
}

// catalog maps canonical codes to guidance. Messages can be overridden per error.
var catalog = map[Code]Entry{
	Validation:      {Code: Validation, Message: "invalid inputs", Retryable: true, NextSteps: []string{"Correct the inputs per the tool schema and retry"}},
	MissingArgument: {Code: MissingArgument, Message: "a required argument is missing", Retryable: true, NextSteps: []string{"Supply the named argument and retry"}},
	BatchSize:       {Code: BatchSize, Message: "batch must contain 1-10 records", Retryable: true, NextSteps: []string{"Split the batch into chunks of at most 10 records"}},

	FormulaInjection:     {Code: FormulaInjection, Message: "filter or search text failed safety validation", Retryable: true, NextSteps: []string{"Remove quotes, unbalanced parentheses, or unsupported functions", "Prefer search_records over hand-written formulas"}},
	SanitizerUnavailable: {Code: SanitizerUnavailable, Message: "formula sanitizer is disabled; refusing to forward untrusted filter text", Retryable: false, NextSteps: []string{"Retry without filter_by_formula or query", "Ask the operator to re-enable the sanitizer"}},

	UnknownTool: {Code: UnknownTool, Message: "tool is not registered", Retryable: false, NextSteps: []string{"Call list_tools to see the available tool names"}},
	NotFound:    {Code: NotFound, Message: "referenced table or record was not found", Retryable: true, NextSteps: []string{"Call list_tables to verify IDs and names"}},

	Gateway:      {Code: Gateway, Message: "gateway request failed", Retryable: true, NextSteps: []string{"Verify base and table IDs", "Retry after a short delay if the gateway is unhealthy"}},
	Timeout:      {Code: Timeout, Message: "operation exceeded configured time limit", Retryable: true, NextSteps: []string{"Reduce max_records or sample_size and retry"}},
	BusyResource: {Code: BusyResource, Message: "concurrent request limit reached", Retryable: true, NextSteps: []string{"Retry after a short delay"}},

	Internal: {Code: Internal, Message: "unexpected internal error", Retryable: true, NextSteps: []string{"Retry; report the message if the failure persists"}},
}

// Normalize builds the standard error string for a code: "CODE: message"
// followed by compact nextSteps guidance for clients that only surface a
// message string.
func Normalize(code Code, msg string) string {
	base := strings.TrimSpace(msg)
	e, ok := catalog[code]
	if !ok {
		if base == "" {
			return string(code)
		}
		return fmt.Sprintf("%s: %s", string(code), base)
	}
	if base == "" {
		base = e.Message
	}
	guidance := ""
	if len(e.NextSteps) > 0 {
		guidance = " | nextSteps: " + strings.Join(e.NextSteps, "; ")
	}
	return fmt.Sprintf("%s: %s%s", e.Code, base, guidance)
}

// Newf formats a message and normalizes it under the given code.
func Newf(code Code, format string, args ...any) string {
	return Normalize(code, fmt.Sprintf(format, args...))
}

// Lookup returns the catalog entry for a code when present.
func Lookup(code Code) (Entry, bool) {
	e, ok := catalog[code]
	return e, ok
}
