package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/yungbote/peerrank-backend/internal/platform/logger"
	"github.com/yungbote/peerrank-backend/internal/realtime"
)

// MemoryBus delivers notifications to in-process forwarders. It is used when
// no redis address is configured and in tests.
type MemoryBus struct {
	log *logger.Logger

	mu     sync.RWMutex
	subs   map[int]func(realtime.Notification)
	nextID int
	closed bool
}

func NewMemoryBus(log *logger.Logger) *MemoryBus {
	b := &MemoryBus{subs: map[int]func(realtime.Notification){}}
	if log != nil {
		b.log = log.With("service", "MemoryNotificationBus")
	}
	return b
}

func (b *MemoryBus) Publish(ctx context.Context, msg realtime.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return fmt.Errorf("memory notification bus closed")
	}
	for _, fn := range b.subs {
		fn(msg)
	}
	return nil
}

// StartForwarder registers onMsg until ctx is done. Callbacks run on the
// publisher's goroutine.
func (b *MemoryBus) StartForwarder(ctx context.Context, onMsg func(m realtime.Notification)) error {
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return fmt.Errorf("memory notification bus closed")
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = onMsg
	b.mu.Unlock()

	context.AfterFunc(ctx, func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	})
	return nil
}

func (b *MemoryBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = map[int]func(realtime.Notification){}
	return nil
}

func (b *MemoryBus) forwarders() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
