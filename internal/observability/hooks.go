package observability

import (
	"context"
	"sync"
	"time"

	"github.com/mzansiplatess/plates-cli/internal/api"
)

var _ api.Hooks = (*CLIHooks)(nil)

// CLIHooks implements api.Hooks for CLI observability.
// Verbosity levels:
//   - 0: silent, metrics only
//   - 1: typed operations (ListRestaurants, GetRecipe, ...)
//   - 2: operations and every HTTP attempt
type CLIHooks struct {
	mu        sync.Mutex
	level     int
	collector *SessionCollector
	writer    *TraceWriter
}

// NewCLIHooks creates hooks at the given verbosity. A nil collector skips
// metrics and a nil writer skips tracing.
func NewCLIHooks(level int, collector *SessionCollector, writer *TraceWriter) *CLIHooks {
	return &CLIHooks{level: level, collector: collector, writer: writer}
}

// SetLevel changes the verbosity level at runtime.
func (h *CLIHooks) SetLevel(level int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.level = level
}

// Level returns the current verbosity level.
func (h *CLIHooks) Level() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.level
}

// tracer returns the writer when the level reaches min, else nil.
func (h *CLIHooks) tracer(min int) *TraceWriter {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.level < min {
		return nil
	}
	return h.writer
}

func (h *CLIHooks) OnOperationStart(ctx context.Context, op api.OperationInfo) context.Context {
	if w := h.tracer(1); w != nil {
		w.WriteOperationStart(op)
	}
	return ctx
}

func (h *CLIHooks) OnOperationEnd(_ context.Context, op api.OperationInfo, err error, duration time.Duration) {
	if h.collector != nil {
		h.collector.RecordOperation(op, err)
	}
	if w := h.tracer(1); w != nil {
		w.WriteOperationEnd(op, err, duration)
	}
}

func (h *CLIHooks) OnRequestStart(ctx context.Context, info api.RequestInfo) context.Context {
	if w := h.tracer(2); w != nil {
		w.WriteRequestStart(info)
	}
	return ctx
}

func (h *CLIHooks) OnRequestEnd(_ context.Context, info api.RequestInfo, result api.RequestResult) {
	if h.collector != nil {
		h.collector.RecordRequest(info, result)
	}
	if w := h.tracer(2); w != nil {
		w.WriteRequestEnd(info, result)
	}
}

func (h *CLIHooks) OnRetry(_ context.Context, info api.RequestInfo, attempt int, err error) {
	if h.collector != nil {
		h.collector.RecordRetry()
	}
	if w := h.tracer(2); w != nil {
		w.WriteRetry(info, attempt, err)
	}
}
