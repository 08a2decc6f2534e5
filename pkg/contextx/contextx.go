// Package contextx carries request-scoped values (request/trace/span IDs and
// the active database transaction) through context.Context, so that logging,
// persistence and messaging agree on a single set of keys.
package contextx

import "context"

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	traceIDKey   contextKey = "trace_id"
	spanIDKey    contextKey = "span_id"
	txKey        contextKey = "tx"
)

// WithRequestID returns a context carrying the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID returns the request ID carried by ctx, or "".
func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithTraceID returns a context carrying the given trace ID.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey, id)
}

// GetTraceID returns the trace ID carried by ctx, or "".
func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}

// WithSpanID returns a context carrying the given span ID.
func WithSpanID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, spanIDKey, id)
}

// GetSpanID returns the span ID carried by ctx, or "".
func GetSpanID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(spanIDKey).(string)
	return id
}

// WithTx returns a context carrying an in-flight database transaction.
// Repositories and the outbox publisher pick it up so that writes issued
// inside a transactional closure share the same transaction.
func WithTx(ctx context.Context, tx any) context.Context {
	return context.WithValue(ctx, txKey, tx)
}

// GetTx returns the transaction carried by ctx, or nil. Callers assert the
// concrete type (*gorm.DB in this repository).
func GetTx(ctx context.Context) any {
	if ctx == nil {
		return nil
	}
	return ctx.Value(txKey)
}
