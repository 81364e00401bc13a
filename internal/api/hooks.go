package api

import (
	"context"
	"time"
)

// OperationInfo describes one typed client call, e.g. listing restaurants.
type OperationInfo struct {
	Name     string // ListRestaurants, GetRecipe, ...
	Resource string // restaurants, recipes, ...
}

// RequestInfo describes one HTTP attempt within an operation.
type RequestInfo struct {
	ID      string // X-Request-ID sent with the attempt
	Method  string
	URL     string
	Attempt int
}

// RequestResult describes how an HTTP attempt ended.
type RequestResult struct {
	StatusCode int
	Duration   time.Duration
	Bytes      int
	Err        error
}

// Hooks observes client activity. Implementations must be safe for
// concurrent use; pools fetch from several goroutines.
type Hooks interface {
	OnOperationStart(ctx context.Context, op OperationInfo) context.Context
	OnOperationEnd(ctx context.Context, op OperationInfo, err error, duration time.Duration)
	OnRequestStart(ctx context.Context, req RequestInfo) context.Context
	OnRequestEnd(ctx context.Context, req RequestInfo, res RequestResult)
	OnRetry(ctx context.Context, req RequestInfo, attempt int, err error)
}

// NopHooks ignores everything.
type NopHooks struct{}

func (NopHooks) OnOperationStart(ctx context.Context, _ OperationInfo) context.Context { return ctx }
func (NopHooks) OnOperationEnd(context.Context, OperationInfo, error, time.Duration)   {}
func (NopHooks) OnRequestStart(ctx context.Context, _ RequestInfo) context.Context     { return ctx }
func (NopHooks) OnRequestEnd(context.Context, RequestInfo, RequestResult)              {}
func (NopHooks) OnRetry(context.Context, RequestInfo, int, error)                      {}
