package config

import "time"

// Default limits and endpoints for the Tablegate MCP server. Every value can
// be overridden through TABLEGATE_* environment variables; see Load.

const (
	DefaultGatewayURL = "http://localhost:8002"
	DefaultServerName = "tablegate-mcp"
	DefaultHTTPAddr   = ":8001"

	// Concurrency
	DefaultMaxConcurrentRequests = 10

	// Record fetch bounds
	DefaultRecordSampleLimit = 100
	DefaultScanRecordLimit   = 1000
	DefaultBatchSizeLimit    = 10
)

const (
	// Timeouts
	DefaultGatewayTimeout        = 30 * time.Second
	DefaultOperationTimeout      = 60 * time.Second
	DefaultAcquireRequestTimeout = 2 * time.Second
)
