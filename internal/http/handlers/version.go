package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/appversion-backend/internal/http/response"
	"github.com/yungbote/appversion-backend/internal/platform/apierr"
	"github.com/yungbote/appversion-backend/internal/services"
	"github.com/yungbote/appversion-backend/internal/versioning"
)

type VersionHandler struct {
	versions services.VersionService
}

func NewVersionHandler(versions services.VersionService) *VersionHandler {
	return &VersionHandler{versions: versions}
}

type updateVersionRequest struct {
	Version string `json:"version"`
	// Timestamp is a date string, or a JSON number of unix milliseconds.
	Timestamp json.RawMessage `json:"timestamp"`
}

// GET /api/version
func (h *VersionHandler) GetCurrentVersion(c *gin.Context) {
	cur, err := h.versions.GetCurrentVersion(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, mapVersionError(err))
		return
	}
	response.RespondOK(c, cur)
}

// POST /api/version/update
func (h *VersionHandler) UpdateVersion(c *gin.Context) {
	var req updateVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ts, err := rawTimestamp(req.Timestamp)
	if err != nil {
		response.RespondAPIError(c, mapVersionError(err))
		return
	}
	record, err := h.versions.UpdateVersion(c.Request.Context(), req.Version, ts)
	if err != nil {
		response.RespondAPIError(c, mapVersionError(err))
		return
	}
	response.RespondOK(c, record)
}

// GET /api/version/check/:platform/:currentVersion
func (h *VersionHandler) CheckForUpdates(c *gin.Context) {
	check, err := h.versions.CheckForUpdates(c.Request.Context(), c.Param("platform"), c.Param("currentVersion"))
	if err != nil {
		response.RespondAPIError(c, mapVersionError(err))
		return
	}
	response.RespondOK(c, check)
}

// GET /api/version/history?limit=N
func (h *VersionHandler) ListVersions(c *gin.Context) {
	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			response.RespondError(c, http.StatusBadRequest, "invalid_limit", fmt.Errorf("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	records, err := h.versions.ListVersions(c.Request.Context(), limit)
	if err != nil {
		response.RespondAPIError(c, mapVersionError(err))
		return
	}
	response.RespondOK(c, gin.H{"versions": records})
}

func mapVersionError(err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidTimestamp):
		return apierr.New(http.StatusBadRequest, "invalid_timestamp", err)
	case errors.Is(err, services.ErrInvalidVersionFormat):
		return apierr.New(http.StatusBadRequest, "invalid_version", err)
	case errors.Is(err, services.ErrPublishConflict):
		return apierr.New(http.StatusConflict, "publish_conflict", err)
	case errors.Is(err, services.ErrStoreUnavailable):
		return apierr.New(http.StatusServiceUnavailable, "store_unavailable", err)
	default:
		return apierr.New(http.StatusInternalServerError, "internal_error", err)
	}
}

// rawTimestamp turns the request's timestamp into the string form the service
// parses. Only a JSON number is read as unix milliseconds; "2024" is a year.
func rawTimestamp(raw json.RawMessage) (string, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return "", nil
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str, nil
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		ms, err := num.Float64()
		if err != nil {
			return "", fmt.Errorf("%w: %s", services.ErrInvalidTimestamp, s)
		}
		return versioning.FromUnixMillis(ms)
	}
	return "", fmt.Errorf("%w: %s", services.ErrInvalidTimestamp, s)
}
