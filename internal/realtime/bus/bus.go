package bus

import (
	"context"

	"github.com/yungbote/peerrank-backend/internal/realtime"
)

type Bus interface {
	Publish(ctx context.Context, msg realtime.Notification) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.Notification)) error
	Close() error
}
