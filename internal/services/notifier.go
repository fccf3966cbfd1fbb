package services

import (
	"context"

	types "github.com/yungbote/appversion-backend/internal/domain"
	"github.com/yungbote/appversion-backend/internal/realtime"
)

// VersionNotifier tells connected clients that a new version was published.
type VersionNotifier interface {
	Announce(ctx context.Context, a types.Announcement) error
}

type NoopVersionNotifier struct{}

func (NoopVersionNotifier) Announce(context.Context, types.Announcement) error { return nil }

type sseVersionNotifier struct {
	emit SSEEmitter
}

func NewSSEVersionNotifier(emit SSEEmitter) VersionNotifier {
	if emit == nil {
		return NoopVersionNotifier{}
	}
	return &sseVersionNotifier{emit: emit}
}

func (n *sseVersionNotifier) Announce(ctx context.Context, a types.Announcement) error {
	return n.emit.Emit(ctx, realtime.SSEMessage{
		Channel: realtime.ChannelVersion,
		Event:   realtime.SSEEventVersionUpdated,
		Data:    a,
	})
}
