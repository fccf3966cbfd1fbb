package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/appversion-backend/internal/platform/ctxutil"
)

func TestAttachTraceContextEchoesAndGeneratesIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var seen *ctxutil.TraceData
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/api/version", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	req.Header.Set(headerRequestID, "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if got := rec.Header().Get(headerRequestID); got != "req-123" {
		t.Fatalf("request id header: got=%q want=%q", got, "req-123")
	}
	if seen == nil || seen.RequestID != "req-123" || seen.TraceID == "" {
		t.Fatalf("trace data: got=%+v", seen)
	}
	if got := rec.Header().Get(headerTraceID); got != seen.TraceID {
		t.Fatalf("trace id header: got=%q want=%q", got, seen.TraceID)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	if rec.Header().Get(headerRequestID) == "" {
		t.Fatalf("expected a generated request id")
	}
}

func TestAttachTraceContextRecordsClientBuild(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var seen *ctxutil.TraceData
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/api/version/check/:platform/:currentVersion", func(c *gin.Context) {
		seen = ctxutil.GetTraceData(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/version/check/ios/1.4.0", nil)
	req.Header.Set(headerAppVersion, "1.4.0")
	req.Header.Set(headerAppPlatform, "iOS")
	req.Header.Set(headerRequestID, "bad id\twith spaces")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if seen == nil || seen.ClientVersion != "1.4.0" || seen.ClientPlatform != "ios" {
		t.Fatalf("client build: got=%+v", seen)
	}
	if got := rec.Header().Get(headerRequestID); got == "" || got == "bad id\twith spaces" {
		t.Fatalf("malformed request id should be replaced: got=%q", got)
	}
}

func TestHeaderToken(t *testing.T) {
	cases := map[string]string{
		"  abc-123  ":            "abc-123",
		"1.4.0":                  "1.4.0",
		"svc:req_9":              "svc:req_9",
		"has space":              "",
		"<script>":               "",
		strings.Repeat("a", 129): "",
		strings.Repeat("b", 128): strings.Repeat("b", 128),
	}
	for in, want := range cases {
		if got := headerToken(in); got != want {
			t.Fatalf("headerToken(%q): got=%q want=%q", in, got, want)
		}
	}
}
