package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/appversion-backend/internal/domain"
	"github.com/yungbote/appversion-backend/internal/services"
)

type fakeVersionService struct {
	current   *services.CurrentVersion
	check     *services.UpdateCheck
	records   []*types.VersionRecord
	err       error
	gotUpdate [2]string
	gotCheck  [2]string
	gotLimit  int
}

func (f *fakeVersionService) GetCurrentVersion(context.Context) (*services.CurrentVersion, error) {
	return f.current, f.err
}

func (f *fakeVersionService) UpdateVersion(_ context.Context, version, timestamp string) (*types.VersionRecord, error) {
	f.gotUpdate = [2]string{version, timestamp}
	if f.err != nil {
		return nil, f.err
	}
	return &types.VersionRecord{ID: uuid.New(), Version: version, IsActive: true, CreatedAt: time.Now()}, nil
}

func (f *fakeVersionService) CheckForUpdates(_ context.Context, platform, current string) (*services.UpdateCheck, error) {
	f.gotCheck = [2]string{platform, current}
	return f.check, f.err
}

func (f *fakeVersionService) ListVersions(_ context.Context, limit int) ([]*types.VersionRecord, error) {
	f.gotLimit = limit
	return f.records, f.err
}

func newVersionRouter(svc services.VersionService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewVersionHandler(svc)
	r := gin.New()
	r.GET("/api/version", h.GetCurrentVersion)
	r.POST("/api/version/update", h.UpdateVersion)
	r.GET("/api/version/check/:platform/:currentVersion", h.CheckForUpdates)
	r.GET("/api/version/history", h.ListVersions)
	return r
}

func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestGetCurrentVersionResponseShape(t *testing.T) {
	ts := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	svc := &fakeVersionService{current: &services.CurrentVersion{Version: "1.4.0", Timestamp: ts}}
	rec := doRequest(newVersionRouter(svc), http.MethodGet, "/api/version", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d want=%d", rec.Code, http.StatusOK)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["version"] != "1.4.0" || body["forceUpdate"] != false || body["timestamp"] != "2024-05-01T08:00:00Z" {
		t.Fatalf("body: got=%v", body)
	}
}

func TestUpdateVersionPassesThroughBody(t *testing.T) {
	svc := &fakeVersionService{}
	r := newVersionRouter(svc)

	rec := doRequest(r, http.MethodPost, "/api/version/update", `{"version":"2.0.0","timestamp":"2024-06-01T00:00:00Z"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d want=%d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if svc.gotUpdate != [2]string{"2.0.0", "2024-06-01T00:00:00Z"} {
		t.Fatalf("service args: got=%v", svc.gotUpdate)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"id", "version", "timestamp", "isActive", "forceUpdate", "createdAt"} {
		if _, ok := body[key]; !ok {
			t.Fatalf("response missing %q: %v", key, body)
		}
	}

	rec = doRequest(r, http.MethodPost, "/api/version/update", `{"version":"2.0.1","timestamp":1705314600000}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("numeric timestamp status: got=%d", rec.Code)
	}
	if svc.gotUpdate[1] != "2024-01-15T10:30:00Z" {
		t.Fatalf("numeric timestamp: got=%q want=%q", svc.gotUpdate[1], "2024-01-15T10:30:00Z")
	}

	rec = doRequest(r, http.MethodPost, "/api/version/update", `{"version":"2.0.2","timestamp":"2024"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("year timestamp status: got=%d", rec.Code)
	}
	if svc.gotUpdate[1] != "2024" {
		t.Fatalf("string timestamp must pass through untouched: got=%q", svc.gotUpdate[1])
	}
}

func TestUpdateVersionRejectsNonDateTimestamp(t *testing.T) {
	for _, body := range []string{
		`{"version":"1.0.0","timestamp":true}`,
		`{"version":"1.0.0","timestamp":{"year":2024}}`,
		`{"version":"1.0.0","timestamp":9e20}`,
	} {
		svc := &fakeVersionService{}
		rec := doRequest(newVersionRouter(svc), http.MethodPost, "/api/version/update", body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status got=%d want=%d", body, rec.Code, http.StatusBadRequest)
		}
		if !strings.Contains(rec.Body.String(), `"code":"invalid_timestamp"`) {
			t.Fatalf("%s: body got=%s", body, rec.Body.String())
		}
		if svc.gotUpdate[0] != "" {
			t.Fatalf("%s: service should not be called", body)
		}
	}
}

func TestUpdateVersionRejectsMalformedJSON(t *testing.T) {
	rec := doRequest(newVersionRouter(&fakeVersionService{}), http.MethodPost, "/api/version/update", `{"version":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), `"code":"invalid_request"`) {
		t.Fatalf("body: got=%s", rec.Body.String())
	}
}

func TestVersionErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("wrap: %w", services.ErrInvalidTimestamp), http.StatusBadRequest, "invalid_timestamp"},
		{services.ErrInvalidVersionFormat, http.StatusBadRequest, "invalid_version"},
		{services.ErrPublishConflict, http.StatusConflict, "publish_conflict"},
		{services.ErrStoreUnavailable, http.StatusServiceUnavailable, "store_unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		r := newVersionRouter(&fakeVersionService{err: tc.err})
		rec := doRequest(r, http.MethodPost, "/api/version/update", `{"version":"1.0.0","timestamp":"2024-01-01"}`)
		if rec.Code != tc.status {
			t.Fatalf("%v: status got=%d want=%d", tc.err, rec.Code, tc.status)
		}
		var env struct {
			Error struct {
				Message string `json:"message"`
				Code    string `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.Error.Code != tc.code || env.Error.Message == "" {
			t.Fatalf("%v: envelope got=%+v", tc.err, env)
		}
	}
}

func TestCheckForUpdatesRoute(t *testing.T) {
	svc := &fakeVersionService{check: &services.UpdateCheck{
		NeedsUpdate:   true,
		LatestVersion: "1.2.0",
		DownloadURL:   "https://apps.apple.com/app/your-app",
		UpdateMessage: services.UpdateMessageAvailable,
	}}
	rec := doRequest(newVersionRouter(svc), http.MethodGet, "/api/version/check/ios/1.1.0", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d", rec.Code)
	}
	if svc.gotCheck != [2]string{"ios", "1.1.0"} {
		t.Fatalf("service args: got=%v", svc.gotCheck)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["needsUpdate"] != true || body["latestVersion"] != "1.2.0" || body["downloadUrl"] != "https://apps.apple.com/app/your-app" ||
		body["updateMessage"] != "New version available!" || body["forceUpdate"] != false {
		t.Fatalf("body: got=%v", body)
	}
}

func TestListVersionsLimit(t *testing.T) {
	svc := &fakeVersionService{records: []*types.VersionRecord{{Version: "1.0.0"}}}
	r := newVersionRouter(svc)

	rec := doRequest(r, http.MethodGet, "/api/version/history?limit=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got=%d", rec.Code)
	}
	if svc.gotLimit != 5 {
		t.Fatalf("limit: got=%d want=5", svc.gotLimit)
	}
	if !strings.Contains(rec.Body.String(), `"versions":[`) {
		t.Fatalf("body: got=%s", rec.Body.String())
	}

	rec = doRequest(r, http.MethodGet, "/api/version/history?limit=abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad limit status: got=%d want=%d", rec.Code, http.StatusBadRequest)
	}
}
