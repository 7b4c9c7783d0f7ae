package logger

import (
	"context"
	"time"
)

type contextKey struct{}

var logContextKey = contextKey{}

// LogContext holds request-scoped fields: which NFS/NLM procedure is
// running, for which client, with what credentials.
type LogContext struct {
	Procedure string
	ClientIP  string
	UID       uint32
	GID       uint32
	StartTime time.Time
}

// WithContext attaches lc to ctx.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext attached to ctx, or nil.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext starts a LogContext for a request from clientIP.
func NewLogContext(clientIP string) *LogContext {
	return &LogContext{ClientIP: clientIP, StartTime: time.Now()}
}

// WithProcedure returns a copy of lc with Procedure set.
func (lc *LogContext) WithProcedure(procedure string) *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	clone.Procedure = procedure
	return &clone
}

// DurationMs reports elapsed time since lc.StartTime in milliseconds.
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
