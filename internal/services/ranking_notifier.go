package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/peerrank-backend/internal/data/repos"
	"github.com/yungbote/peerrank-backend/internal/observability"
	"github.com/yungbote/peerrank-backend/internal/platform/dbctx"
	"github.com/yungbote/peerrank-backend/internal/platform/logger"
	"github.com/yungbote/peerrank-backend/internal/realtime"
	"github.com/yungbote/peerrank-backend/internal/realtime/bus"
)

const (
	defaultNotifyTimeout  = 5 * time.Second
	defaultNotifyParallel = 8
)

// RankingEvent describes a committed ranking write. Recipients are the active
// members of GroupIDs, minus the actor.
type RankingEvent struct {
	Type      realtime.NotificationType
	ProjectID uuid.UUID
	EntityID  uuid.UUID
	Actor     string
	GroupIDs  []uuid.UUID
	Data      map[string]any
}

// RankingNotifier dispatches events asynchronously. Failures are logged and
// never reach the caller.
type RankingNotifier interface {
	Notify(ev RankingEvent)
	// Close stops accepting events and waits for in-flight dispatches.
	Close(ctx context.Context) error
}

type NotifierConfig struct {
	Timeout     time.Duration
	MaxParallel int
}

type rankingNotifier struct {
	log         *logger.Logger
	bus         bus.Bus
	members     repos.MembershipRepo
	metrics     *observability.Metrics
	timeout     time.Duration
	maxParallel int

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewRankingNotifier(log *logger.Logger, b bus.Bus, members repos.MembershipRepo, metrics *observability.Metrics, cfg NotifierConfig) RankingNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultNotifyTimeout
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = defaultNotifyParallel
	}
	return &rankingNotifier{
		log:         log.With("service", "RankingNotifier"),
		bus:         b,
		members:     members,
		metrics:     metrics,
		timeout:     cfg.Timeout,
		maxParallel: cfg.MaxParallel,
	}
}

func (n *rankingNotifier) Notify(ev RankingEvent) {
	if n == nil || n.bus == nil || len(ev.GroupIDs) == 0 {
		return
	}
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		n.metrics.IncNotification(string(ev.Type), "dropped")
		return
	}
	n.wg.Add(1)
	n.mu.Unlock()

	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		if err := n.dispatch(ctx, ev); err != nil {
			n.log.Warn("Notification dispatch failed",
				"type", ev.Type,
				"entity_id", ev.EntityID,
				"error", err,
			)
		}
	}()
}

func (n *rankingNotifier) dispatch(ctx context.Context, ev RankingEvent) error {
	recipients, err := n.recipients(ctx, ev)
	if err != nil {
		n.metrics.IncNotification(string(ev.Type), "failed")
		return fmt.Errorf("resolve recipients: %w", err)
	}
	if len(recipients) == 0 {
		return nil
	}

	now := time.Now().UTC()
	var g errgroup.Group
	g.SetLimit(n.maxParallel)
	for _, to := range recipients {
		msg := realtime.Notification{
			ID:        uuid.New(),
			Type:      ev.Type,
			Channel:   to,
			ProjectID: ev.ProjectID,
			EntityID:  ev.EntityID,
			Actor:     ev.Actor,
			Data:      ev.Data,
			CreatedAt: now,
		}
		g.Go(func() error {
			if err := n.bus.Publish(ctx, msg); err != nil {
				n.metrics.IncNotification(string(ev.Type), "failed")
				return fmt.Errorf("publish to %s: %w", msg.Channel, err)
			}
			n.metrics.IncNotification(string(ev.Type), "sent")
			return nil
		})
	}
	return g.Wait()
}

func (n *rankingNotifier) recipients(ctx context.Context, ev RankingEvent) ([]string, error) {
	actor := strings.ToLower(strings.TrimSpace(ev.Actor))
	seen := map[string]bool{}
	out := []string{}
	for _, gid := range ev.GroupIDs {
		if gid == uuid.Nil {
			continue
		}
		emails, err := n.members.ListActiveEmailsInGroup(dbctx.Context{Ctx: ctx}, gid)
		if err != nil {
			return nil, err
		}
		for _, e := range emails {
			e = strings.ToLower(strings.TrimSpace(e))
			if e == "" || e == actor || seen[e] {
				continue
			}
			seen[e] = true
			out = append(out, e)
		}
	}
	return out, nil
}

func (n *rankingNotifier) Close(ctx context.Context) error {
	if n == nil {
		return nil
	}
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
