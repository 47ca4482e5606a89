package ranking

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/peerrank-backend/internal/domain/ranking"
	"github.com/yungbote/peerrank-backend/internal/platform/dbctx"
	"github.com/yungbote/peerrank-backend/internal/platform/logger"
)

type ActionLedgerRepo interface {
	// Insert writes the entry unless (dedup_key, time_bucket) already exists.
	// inserted=false reports a duplicate; it is not an error.
	Insert(dbc dbctx.Context, entry *types.ActionLedgerEntry) (inserted bool, err error)
}

type actionLedgerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActionLedgerRepo(db *gorm.DB, baseLog *logger.Logger) ActionLedgerRepo {
	return &actionLedgerRepo{
		db:  db,
		log: baseLog.With("repo", "ActionLedgerRepo"),
	}
}

func (r *actionLedgerRepo) Insert(dbc dbctx.Context, entry *types.ActionLedgerEntry) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if entry == nil || strings.TrimSpace(entry.DedupKey) == "" {
		return false, nil
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	res := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "dedup_key"}, {Name: "time_bucket"}},
			DoNothing: true,
		}).
		Create(entry)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
