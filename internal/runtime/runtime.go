// Package runtime bounds concurrent tool execution. A weighted semaphore caps
// in-flight requests and a per-call timeout keeps slow gateway operations from
// holding slots indefinitely.
package runtime

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/tablegate/tablegate/config"
)

// Limits captures the concurrency guardrails configured for the server.
type Limits struct {
	MaxConcurrentRequests int

	OperationTimeout      time.Duration
	AcquireRequestTimeout time.Duration
}

// NewLimits initializes Limits with defaults for unset values.
func NewLimits(maxConcurrentRequests int, operationTimeout time.Duration) Limits {
	if maxConcurrentRequests <= 0 {
		maxConcurrentRequests = config.DefaultMaxConcurrentRequests
	}
	if operationTimeout <= 0 {
		operationTimeout = config.DefaultOperationTimeout
	}

	return Limits{
		MaxConcurrentRequests: maxConcurrentRequests,
		OperationTimeout:      operationTimeout,
		AcquireRequestTimeout: config.DefaultAcquireRequestTimeout,
	}
}

// Controller coordinates the request semaphore.
type Controller struct {
	limits           Limits
	requestSemaphore *semaphore.Weighted
}

// NewController constructs a Controller backed by a weighted semaphore.
func NewController(limits Limits) *Controller {
	return &Controller{
		limits:           limits,
		requestSemaphore: semaphore.NewWeighted(int64(limits.MaxConcurrentRequests)),
	}
}

// AcquireRequest reserves capacity for an incoming request.
func (c *Controller) AcquireRequest(ctx context.Context) error {
	return c.requestSemaphore.Acquire(ctx, 1)
}

// ReleaseRequest frees previously-acquired request capacity.
func (c *Controller) ReleaseRequest() {
	c.requestSemaphore.Release(1)
}

// LimitsSnapshot exposes the configured guardrails for telemetry and discovery.
func (c *Controller) LimitsSnapshot() Limits {
	return c.limits
}
