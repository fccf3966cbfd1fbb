package realtime

import (
	"sync"

	"github.com/google/uuid"

	"github.com/yungbote/appversion-backend/internal/platform/logger"
)

const clientBufferSize = 16

// SSEClient is one connected event-stream subscriber.
type SSEClient struct {
	ID       uuid.UUID
	Channels map[string]bool
	Outbound chan SSEMessage
	done     chan struct{}
	once     sync.Once
	Logger   *logger.Logger
}
