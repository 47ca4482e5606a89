package aggregates

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainagg "github.com/yungbote/peerrank-backend/internal/domain/aggregates"
	"github.com/yungbote/peerrank-backend/internal/platform/dbctx"
)

// CASGuard provides optimistic/concurrency guard helpers for aggregate writes.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

func (g CASGuard) baseDB(dbc dbctx.Context) (*gorm.DB, error) {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx), nil
	}
	if g.db != nil {
		return g.db.WithContext(dbc.Ctx), nil
	}
	return nil, ValidationError("missing db transaction context")
}

// UpdateWhereNull updates a row only while every column in nullColumns is
// still NULL. Lifecycle transitions use it to guard on open timestamps.
func (g CASGuard) UpdateWhereNull(dbc dbctx.Context, table string, id uuid.UUID, nullColumns []string, updates map[string]any) (bool, error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return false, err
	}
	table = strings.TrimSpace(table)
	if table == "" || id == uuid.Nil {
		return false, ValidationError("table and id are required for UpdateWhereNull")
	}
	if len(nullColumns) == 0 {
		return false, ValidationError("nullColumns must not be empty")
	}
	q := db.Table(table).Where("id = ?", id)
	for _, col := range nullColumns {
		q = q.Where(clause.Expr{SQL: "? IS NULL", Vars: []any{clause.Column{Name: strings.TrimSpace(col)}}})
	}
	res := q.Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RequireCASSuccess converts a lost compare-and-set into a typed conflict
// carrying reason.
func RequireCASSuccess(ok bool, op, reason, message string) error {
	if ok {
		return nil
	}
	return domainagg.NewReasonError(domainagg.CodeConflict, op, reason, strings.TrimSpace(message))
}
