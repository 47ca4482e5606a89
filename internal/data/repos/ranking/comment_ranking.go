package ranking

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/peerrank-backend/internal/domain/ranking"
	"github.com/yungbote/peerrank-backend/internal/platform/dbctx"
	"github.com/yungbote/peerrank-backend/internal/platform/logger"
)

type CommentRankingRepo interface {
	// Append stores a new version; Version is assigned as latest+1.
	Append(dbc dbctx.Context, row *types.CommentRankingProposal) error
	Latest(dbc dbctx.Context, stageID uuid.UUID, authorEmail string) (*types.CommentRankingProposal, error)
	// History lists every version, oldest first.
	History(dbc dbctx.Context, stageID uuid.UUID, authorEmail string) ([]*types.CommentRankingProposal, error)
}

type commentRankingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCommentRankingRepo(db *gorm.DB, baseLog *logger.Logger) CommentRankingRepo {
	return &commentRankingRepo{
		db:  db,
		log: baseLog.With("repo", "CommentRankingRepo"),
	}
}

func (r *commentRankingRepo) Append(dbc dbctx.Context, row *types.CommentRankingProposal) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil {
		return nil
	}
	row.AuthorEmail = strings.ToLower(strings.TrimSpace(row.AuthorEmail))

	var maxVersion int
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.CommentRankingProposal{}).
		Select("COALESCE(MAX(version), 0)").
		Where("stage_id = ? AND author_email = ?", row.StageID, row.AuthorEmail).
		Scan(&maxVersion).Error; err != nil {
		return err
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	row.Version = maxVersion + 1
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	// concurrent appends for one author collide on the (stage, author, version) unique index
	return transaction.WithContext(dbc.Ctx).Create(row).Error
}

func (r *commentRankingRepo) Latest(dbc dbctx.Context, stageID uuid.UUID, authorEmail string) (*types.CommentRankingProposal, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	authorEmail = strings.ToLower(strings.TrimSpace(authorEmail))
	if stageID == uuid.Nil || authorEmail == "" {
		return nil, nil
	}
	var row types.CommentRankingProposal
	if err := transaction.WithContext(dbc.Ctx).
		Where("stage_id = ? AND author_email = ?", stageID, authorEmail).
		Order("version DESC").
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *commentRankingRepo) History(dbc dbctx.Context, stageID uuid.UUID, authorEmail string) ([]*types.CommentRankingProposal, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*types.CommentRankingProposal{}
	authorEmail = strings.ToLower(strings.TrimSpace(authorEmail))
	if stageID == uuid.Nil || authorEmail == "" {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("stage_id = ? AND author_email = ?", stageID, authorEmail).
		Order("version ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
