package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/appversion-backend/internal/platform/logger"
	"github.com/yungbote/appversion-backend/internal/realtime"
)

type RealtimeHandler struct {
	log *logger.Logger
	hub *realtime.SSEHub
}

func NewRealtimeHandler(log *logger.Logger, hub *realtime.SSEHub) *RealtimeHandler {
	return &RealtimeHandler{log: log.With("handler", "RealtimeHandler"), hub: hub}
}

// GET /api/version/stream
func (h *RealtimeHandler) VersionStream(c *gin.Context) {
	client := h.hub.NewSSEClient()
	h.hub.AddChannel(client, realtime.ChannelVersion)
	h.log.Debug("Version stream open", "clientID", client.ID)

	h.hub.ServeHTTP(c.Writer, c.Request, client)

	h.hub.CloseClient(client)
	h.log.Debug("Version stream closed", "clientID", client.ID)
}
