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

// VoteCounts is the aggregate of live vote rows for one proposal.
type VoteCounts struct {
	Agree    int64
	Disagree int64
	Total    int64
	Net      int64
}

type ProposalVoteRepo interface {
	// Upsert inserts the vote or overwrites agree/comment/updated_at of the
	// voter's existing row, in one statement.
	Upsert(dbc dbctx.Context, v *types.ProposalVote) error
	Counts(dbc dbctx.Context, proposalID uuid.UUID) (VoteCounts, error)
	GetByVoter(dbc dbctx.Context, proposalID uuid.UUID, voterEmail string) (*types.ProposalVote, error)
	DeleteByProposal(dbc dbctx.Context, proposalID uuid.UUID) (int64, error)
}

type proposalVoteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProposalVoteRepo(db *gorm.DB, baseLog *logger.Logger) ProposalVoteRepo {
	return &proposalVoteRepo{
		db:  db,
		log: baseLog.With("repo", "ProposalVoteRepo"),
	}
}

func (r *proposalVoteRepo) Upsert(dbc dbctx.Context, v *types.ProposalVote) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if v == nil || v.ProposalID == uuid.Nil || strings.TrimSpace(v.VoterEmail) == "" {
		return nil
	}
	now := time.Now().UTC()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.VoterEmail = strings.ToLower(strings.TrimSpace(v.VoterEmail))
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	v.UpdatedAt = now
	// On conflict, overwrite agree/comment/updated_at; id and created_at keep the first vote's values
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "proposal_id"}, {Name: "voter_email"}},
			DoUpdates: clause.AssignmentColumns([]string{"agree", "comment", "updated_at"}),
		}).
		Create(v).Error
}

type voteCountsRow struct {
	Total int64
	Net   int64
	Agree int64
}

func (r *proposalVoteRepo) Counts(dbc dbctx.Context, proposalID uuid.UUID) (VoteCounts, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if proposalID == uuid.Nil {
		return VoteCounts{}, nil
	}
	var row voteCountsRow
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.ProposalVote{}).
		Select(
			"COUNT(*) AS total, COALESCE(SUM(agree), 0) AS net, "+
				"COALESCE(SUM(CASE WHEN agree > 0 THEN 1 ELSE 0 END), 0) AS agree",
		).
		Where("proposal_id = ?", proposalID).
		Scan(&row).Error; err != nil {
		return VoteCounts{}, err
	}
	return VoteCounts{
		Agree:    row.Agree,
		Disagree: row.Total - row.Agree,
		Total:    row.Total,
		Net:      row.Net,
	}, nil
}

func (r *proposalVoteRepo) GetByVoter(dbc dbctx.Context, proposalID uuid.UUID, voterEmail string) (*types.ProposalVote, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	voterEmail = strings.ToLower(strings.TrimSpace(voterEmail))
	if proposalID == uuid.Nil || voterEmail == "" {
		return nil, nil
	}
	var row types.ProposalVote
	if err := transaction.WithContext(dbc.Ctx).
		Where("proposal_id = ? AND voter_email = ?", proposalID, voterEmail).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *proposalVoteRepo) DeleteByProposal(dbc dbctx.Context, proposalID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if proposalID == uuid.Nil {
		return 0, nil
	}
	res := transaction.WithContext(dbc.Ctx).
		Where("proposal_id = ?", proposalID).
		Delete(&types.ProposalVote{})
	return res.RowsAffected, res.Error
}
