// Package trace provides nil-safe, lazily-evaluated slog helpers used for
// operation-boundary logging across the module (engine runs, factory
// construction, batch commits).
package trace

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Debug logs at Debug level if logger is non-nil and enabled.
func Debug(ctx context.Context, logger *slog.Logger, msg string, attrs ...slog.Attr) {
	if logger == nil || !logger.Enabled(ctx, slog.LevelDebug) {
		return
	}
	logger.LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
}

// Warn logs at Warn level if logger is non-nil and enabled.
func Warn(ctx context.Context, logger *slog.Logger, msg string, attrs ...slog.Attr) {
	if logger == nil || !logger.Enabled(ctx, slog.LevelWarn) {
		return
	}
	logger.LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
}

// Error logs at Error level if logger is non-nil and enabled.
func Error(ctx context.Context, logger *slog.Logger, msg string, attrs ...slog.Attr) {
	if logger == nil || !logger.Enabled(ctx, slog.LevelError) {
		return
	}
	logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

// Op represents a running operation with automatic start/end Debug logging
// and duration measurement. Safe to call methods on a nil *Op. Create with
// [Begin].
type Op struct {
	ctx       context.Context //nolint:containedctx // op boundary needs cancellation state at End()
	logger    *slog.Logger
	name      string
	startTime time.Time
	ended     atomic.Bool
}

// Begin starts an operation. Operation names follow "<package>.<Type>.<Method>",
// e.g. "engine.Engine.Run". Returns nil when logging is disabled, so
// callers can unconditionally defer op.End(err) at near-zero cost.
func Begin(ctx context.Context, logger *slog.Logger, name string, attrs ...slog.Attr) *Op {
	if logger == nil || !logger.Enabled(ctx, slog.LevelDebug) {
		return nil
	}
	op := &Op{ctx: ctx, logger: logger, name: name, startTime: time.Now()}
	logAttrs := append([]slog.Attr{slog.String("op", name)}, attrs...)
	logger.LogAttrs(ctx, slog.LevelDebug, "operation started", logAttrs...)
	return op
}

// End logs operation completion, including elapsed duration and err (if
// non-nil). Safe to call multiple times; only the first call logs.
func (o *Op) End(err error, attrs ...slog.Attr) {
	if o == nil || o.ended.Swap(true) || o.logger == nil {
		return
	}
	elapsed := time.Since(o.startTime)
	logAttrs := make([]slog.Attr, 0, len(attrs)+3)
	logAttrs = append(logAttrs,
		slog.String("op", o.name),
		slog.Duration("duration", elapsed),
	)
	if err != nil {
		logAttrs = append(logAttrs, slog.String("error", err.Error()))
	}
	logAttrs = append(logAttrs, attrs...)
	o.logger.LogAttrs(o.ctx, slog.LevelDebug, "operation ended", logAttrs...)
}
