package app

import (
	"fmt"
	"strings"

	"github.com/yungbote/peerrank-backend/internal/platform/logger"
	"github.com/yungbote/peerrank-backend/internal/realtime/bus"
)

type Clients struct {
	Bus bus.Bus
}

// wireClients uses Redis pub/sub when an address is configured and an
// in-process bus otherwise.
func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	if strings.TrimSpace(cfg.Redis.Addr) == "" {
		log.Info("redis not configured; notifications stay in-process")
		return Clients{Bus: bus.NewMemoryBus(log)}, nil
	}
	b, err := bus.NewRedisBus(log, bus.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Channel:  cfg.Redis.Channel,
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init redis bus: %w", err)
	}
	return Clients{Bus: b}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Bus != nil {
		_ = c.Bus.Close()
	}
}
