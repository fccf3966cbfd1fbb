package ctxutil

import "context"

type traceDataKey struct{}

// TraceData identifies the request a unit of work belongs to and, when the
// caller is a mobile build, which app version and platform sent it.
type TraceData struct {
	TraceID        string
	RequestID      string
	ClientVersion  string
	ClientPlatform string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(Default(ctx), traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if ctx == nil {
		return nil
	}
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// LogFields returns trace and client key-value pairs for structured logging.
func LogFields(ctx context.Context) []interface{} {
	td := GetTraceData(ctx)
	if td == nil {
		return nil
	}
	fields := make([]interface{}, 0, 8)
	if td.TraceID != "" {
		fields = append(fields, "trace_id", td.TraceID)
	}
	if td.RequestID != "" {
		fields = append(fields, "request_id", td.RequestID)
	}
	if td.ClientVersion != "" {
		fields = append(fields, "client_version", td.ClientVersion)
	}
	if td.ClientPlatform != "" {
		fields = append(fields, "client_platform", td.ClientPlatform)
	}
	return fields
}

// Default returns context.Background() when ctx is nil.
func Default(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
