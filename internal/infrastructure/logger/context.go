package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	requestIDKey
	taskIDKey
)

// WithContext stores l in ctx.
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored in ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
		return l
	}
	return zap.NewNop()
}

// WithRequestID tags ctx and l with the id of the API request being served.
func WithRequestID(ctx context.Context, l *zap.Logger, id string) (context.Context, *zap.Logger) {
	return tag(ctx, l, requestIDKey, "request_id", id)
}

// WithTaskID tags ctx and l with the id of the background job being run.
func WithTaskID(ctx context.Context, l *zap.Logger, id string) (context.Context, *zap.Logger) {
	return tag(ctx, l, taskIDKey, "task_id", id)
}

func tag(ctx context.Context, l *zap.Logger, key ctxKey, field, id string) (context.Context, *zap.Logger) {
	l = l.With(zap.String(field, id))
	return WithContext(context.WithValue(ctx, key, id), l), l
}

// GetRequestID returns the request id carried by ctx, or "".
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// GetTaskID returns the job id carried by ctx, or "".
func GetTaskID(ctx context.Context) string {
	id, _ := ctx.Value(taskIDKey).(string)
	return id
}

// Ctx returns the logger of ctx with the active trace and span ids attached,
// so a log line can be joined with its trace.
func Ctx(ctx context.Context) *zap.Logger {
	l := FromContext(ctx)
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		l = l.With(
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}
	return l
}

// correlation lists the request and job ids of ctx for loggers that do not
// receive a tagged zap.Logger, such as the SQL logger.
func correlation(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if id := GetRequestID(ctx); id != "" {
		fields = append(fields, zap.String("request_id", id))
	}
	if id := GetTaskID(ctx); id != "" {
		fields = append(fields, zap.String("task_id", id))
	}
	return fields
}
