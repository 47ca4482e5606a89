package ranking

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/peerrank-backend/internal/domain/ranking"
	"github.com/yungbote/peerrank-backend/internal/platform/dbctx"
	"github.com/yungbote/peerrank-backend/internal/platform/logger"
)

type ProposalRepo interface {
	Create(dbc dbctx.Context, p *types.RankingProposal) error
	// GetByID is scoped to the project; nil when absent or in another project.
	GetByID(dbc dbctx.Context, projectID, proposalID uuid.UUID) (*types.RankingProposal, error)
	LatestForGroupStage(dbc dbctx.Context, stageID, groupID uuid.UUID) (*types.RankingProposal, error)
	ListForGroupStage(dbc dbctx.Context, stageID, groupID uuid.UUID) ([]*types.RankingProposal, error)
	ListByStage(dbc dbctx.Context, projectID, stageID uuid.UUID) ([]*types.RankingProposal, error)
}

type proposalRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProposalRepo(db *gorm.DB, baseLog *logger.Logger) ProposalRepo {
	return &proposalRepo{
		db:  db,
		log: baseLog.With("repo", "ProposalRepo"),
	}
}

func (r *proposalRepo) Create(dbc dbctx.Context, p *types.RankingProposal) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if p == nil {
		return nil
	}
	now := time.Now().UTC()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = types.StatusPending
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	return transaction.WithContext(dbc.Ctx).Create(p).Error
}

func (r *proposalRepo) GetByID(dbc dbctx.Context, projectID, proposalID uuid.UUID) (*types.RankingProposal, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if projectID == uuid.Nil || proposalID == uuid.Nil {
		return nil, nil
	}
	var row types.RankingProposal
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ? AND project_id = ?", proposalID, projectID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *proposalRepo) LatestForGroupStage(dbc dbctx.Context, stageID, groupID uuid.UUID) (*types.RankingProposal, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if stageID == uuid.Nil || groupID == uuid.Nil {
		return nil, nil
	}
	var row types.RankingProposal
	if err := transaction.WithContext(dbc.Ctx).
		Where("stage_id = ? AND group_id = ?", stageID, groupID).
		Order("created_at DESC").
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *proposalRepo) ListForGroupStage(dbc dbctx.Context, stageID, groupID uuid.UUID) ([]*types.RankingProposal, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*types.RankingProposal{}
	if stageID == uuid.Nil || groupID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("stage_id = ? AND group_id = ?", stageID, groupID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *proposalRepo) ListByStage(dbc dbctx.Context, projectID, stageID uuid.UUID) ([]*types.RankingProposal, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []*types.RankingProposal{}
	if projectID == uuid.Nil || stageID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ? AND stage_id = ?", projectID, stageID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
