package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/appversion-backend/internal/platform/ctxutil"
)

const (
	headerTraceID     = "X-Trace-Id"
	headerRequestID   = "X-Request-Id"
	headerAppVersion  = "X-App-Version"
	headerAppPlatform = "X-App-Platform"

	maxHeaderValueLen = 128
)

// AttachTraceContext tags each request with trace and request ids (echoed from
// the caller when well-formed, generated otherwise) and the calling app build.
func AttachTraceContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := headerToken(c.GetHeader(headerRequestID))
		if reqID == "" {
			reqID = uuid.New().String()
		}
		traceID := headerToken(c.GetHeader(headerTraceID))
		if traceID == "" {
			spanCtx := trace.SpanContextFromContext(c.Request.Context())
			if spanCtx.HasTraceID() {
				traceID = spanCtx.TraceID().String()
			}
		}
		if traceID == "" {
			traceID = uuid.New().String()
		}
		ctx := ctxutil.WithTraceData(c.Request.Context(), &ctxutil.TraceData{
			TraceID:        traceID,
			RequestID:      reqID,
			ClientVersion:  headerToken(c.GetHeader(headerAppVersion)),
			ClientPlatform: strings.ToLower(headerToken(c.GetHeader(headerAppPlatform))),
		})
		c.Request = c.Request.WithContext(ctx)
		c.Set("trace_id", traceID)
		c.Set("request_id", reqID)
		c.Writer.Header().Set(headerTraceID, traceID)
		c.Writer.Header().Set(headerRequestID, reqID)
		c.Next()
	}
}

// headerToken returns v trimmed, or "" when it is too long or holds anything
// other than letters, digits and "-_.:".
func headerToken(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || len(v) > maxHeaderValueLen {
		return ""
	}
	for _, r := range v {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-', r == '_', r == '.', r == ':':
		default:
			return ""
		}
	}
	return v
}
