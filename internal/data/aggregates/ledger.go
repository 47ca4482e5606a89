package aggregates

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/peerrank-backend/internal/data/repos"
	domainagg "github.com/yungbote/peerrank-backend/internal/domain/aggregates"
	"github.com/yungbote/peerrank-backend/internal/domain/ranking"
	"github.com/yungbote/peerrank-backend/internal/modules/ranking/keys"
	"github.com/yungbote/peerrank-backend/internal/platform/dbctx"
	"github.com/yungbote/peerrank-backend/internal/platform/logger"
)

// ReadOnlyPolicy decides what the ledger does when the datastore refuses
// writes (read-only replica, maintenance window).
type ReadOnlyPolicy string

const (
	// ReadOnlyReject fails the action with a retryable maintenance_mode error.
	ReadOnlyReject ReadOnlyPolicy = "reject"
	// ReadOnlyProceed skips ledger logging and treats the action as new.
	ReadOnlyProceed ReadOnlyPolicy = "proceed"
)

func ParseReadOnlyPolicy(s string) ReadOnlyPolicy {
	switch ReadOnlyPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case ReadOnlyProceed:
		return ReadOnlyProceed
	default:
		return ReadOnlyReject
	}
}

type LedgerConfig struct {
	Window         time.Duration
	ReadOnlyPolicy ReadOnlyPolicy
	Clock          keys.Clock
}

type LedgerEntry struct {
	DedupKey   string
	ActorEmail string
	ActionType string
	EntityID   uuid.UUID
	Payload    any
}

type LedgerResult struct {
	IsNew  bool
	Bucket int64
	// Skipped is set when the row was not written under ReadOnlyProceed.
	Skipped bool
}

// Ledger is the idempotency gate in front of every ranking write. A row is
// inserted in the caller's transaction so it commits or rolls back together
// with the business write.
type Ledger struct {
	repo  repos.ActionLedgerRepo
	log   *logger.Logger
	hooks Hooks
	cfg   LedgerConfig
}

func NewLedger(repo repos.ActionLedgerRepo, baseLog *logger.Logger, hooks Hooks, cfg LedgerConfig) *Ledger {
	if cfg.Window <= 0 {
		cfg.Window = keys.DefaultWindow
	}
	if cfg.ReadOnlyPolicy == "" {
		cfg.ReadOnlyPolicy = ReadOnlyReject
	}
	if cfg.Clock == nil {
		cfg.Clock = keys.SystemClock
	}
	if hooks == nil {
		hooks = noopHooks{}
	}
	return &Ledger{
		repo:  repo,
		log:   baseLog.With("aggregate", "ActionLedger"),
		hooks: hooks,
		cfg:   cfg,
	}
}

func (l *Ledger) Policy() ReadOnlyPolicy { return l.cfg.ReadOnlyPolicy }

// Record inserts the entry for the current time bucket. IsNew=false means the
// same action was already recorded in this bucket and must not be re-applied.
func (l *Ledger) Record(dbc dbctx.Context, e LedgerEntry) (LedgerResult, error) {
	const op = "Ranking.Ledger.Record"
	bucket := keys.Bucket(l.cfg.Clock.Now(), l.cfg.Window)
	out := LedgerResult{Bucket: bucket}
	if strings.TrimSpace(e.DedupKey) == "" {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "missing dedup key", nil)
	}

	var payload datatypes.JSON
	if e.Payload != nil {
		b, err := json.Marshal(e.Payload)
		if err != nil {
			return out, domainagg.NewError(domainagg.CodeInternal, op, "encode ledger payload", err)
		}
		payload = datatypes.JSON(b)
	}
	row := &ranking.ActionLedgerEntry{
		ID:         uuid.New(),
		DedupKey:   e.DedupKey,
		TimeBucket: bucket,
		ActorEmail: strings.ToLower(strings.TrimSpace(e.ActorEmail)),
		ActionType: e.ActionType,
		EntityID:   e.EntityID,
		Payload:    payload,
		CreatedAt:  l.cfg.Clock.Now().UTC(),
	}

	inserted, err := l.insert(dbc, row)
	switch {
	case err == nil && inserted:
		out.IsNew = true
		return out, nil
	case err == nil, IsUniqueViolation(err):
		l.hooks.IncDedupReplay(e.ActionType)
		l.log.Debug("ledger replay", "action", e.ActionType, "bucket", bucket, "actor", row.ActorEmail)
		return out, nil
	case IsReadOnlyError(err):
		if l.cfg.ReadOnlyPolicy == ReadOnlyProceed {
			l.log.Warn("ledger unavailable in read-only mode, proceeding without dedup",
				"action", e.ActionType, "actor", row.ActorEmail, "error", err)
			if h, ok := l.hooks.(LedgerSkipHook); ok {
				h.IncLedgerSkipped(e.ActionType)
			}
			out.IsNew = true
			out.Skipped = true
			return out, nil
		}
		return out, &domainagg.Error{
			Code:    domainagg.CodeRetryable,
			Op:      op,
			Reason:  ReasonMaintenanceMode,
			Message: "service is in maintenance mode, retry later",
			Cause:   err,
		}
	default:
		return out, err
	}
}

// insert runs under a savepoint so a failed statement leaves the surrounding
// transaction usable.
func (l *Ledger) insert(dbc dbctx.Context, row *ranking.ActionLedgerEntry) (bool, error) {
	if dbc.Tx == nil {
		return l.repo.Insert(dbc, row)
	}
	const sp = "ledger_record"
	sess := dbc.Tx.Session(&gorm.Session{})
	if err := sess.SavePoint(sp).Error; err != nil {
		if errors.Is(err, gorm.ErrUnsupportedDriver) {
			return l.repo.Insert(dbc, row)
		}
		return false, err
	}
	inserted, err := l.repo.Insert(dbc, row)
	if err != nil {
		_ = sess.RollbackTo(sp).Error
		return false, err
	}
	return inserted, nil
}
