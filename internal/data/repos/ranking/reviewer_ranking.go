package ranking

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/peerrank-backend/internal/domain/ranking"
	"github.com/yungbote/peerrank-backend/internal/platform/dbctx"
	"github.com/yungbote/peerrank-backend/internal/platform/logger"
)

// ReviewerRankingCounts is the number of rows a reviewer holds in each channel.
type ReviewerRankingCounts struct {
	Submissions int64
	Comments    int64
}

// ReviewerCurrentView is the most recent row per reviewer per target.
type ReviewerCurrentView struct {
	Submissions []*types.ReviewerSubmissionRanking `json:"submissions"`
	Comments    []*types.ReviewerCommentRanking    `json:"comments"`
}

type ReviewerRankingRepo interface {
	AppendSubmissionRankings(dbc dbctx.Context, rows []*types.ReviewerSubmissionRanking) error
	AppendCommentRankings(dbc dbctx.Context, rows []*types.ReviewerCommentRanking) error
	Counts(dbc dbctx.Context, stageID uuid.UUID, reviewerEmail string) (ReviewerRankingCounts, error)
	// Current resolves "latest row per reviewer per target"; reviewerEmail "" means all reviewers.
	Current(dbc dbctx.Context, projectID, stageID uuid.UUID, reviewerEmail string) (ReviewerCurrentView, error)
}

type reviewerRankingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewerRankingRepo(db *gorm.DB, baseLog *logger.Logger) ReviewerRankingRepo {
	return &reviewerRankingRepo{
		db:  db,
		log: baseLog.With("repo", "ReviewerRankingRepo"),
	}
}

func (r *reviewerRankingRepo) AppendSubmissionRankings(dbc dbctx.Context, rows []*types.ReviewerSubmissionRanking) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		row.ReviewerEmail = strings.ToLower(strings.TrimSpace(row.ReviewerEmail))
	}
	return transaction.WithContext(dbc.Ctx).Create(&rows).Error
}

func (r *reviewerRankingRepo) AppendCommentRankings(dbc dbctx.Context, rows []*types.ReviewerCommentRanking) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	for _, row := range rows {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		row.ReviewerEmail = strings.ToLower(strings.TrimSpace(row.ReviewerEmail))
	}
	return transaction.WithContext(dbc.Ctx).Create(&rows).Error
}

func (r *reviewerRankingRepo) Counts(dbc dbctx.Context, stageID uuid.UUID, reviewerEmail string) (ReviewerRankingCounts, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out ReviewerRankingCounts
	reviewerEmail = strings.ToLower(strings.TrimSpace(reviewerEmail))
	if stageID == uuid.Nil || reviewerEmail == "" {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.ReviewerSubmissionRanking{}).
		Where("stage_id = ? AND reviewer_email = ?", stageID, reviewerEmail).
		Count(&out.Submissions).Error; err != nil {
		return out, err
	}
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.ReviewerCommentRanking{}).
		Where("stage_id = ? AND reviewer_email = ?", stageID, reviewerEmail).
		Count(&out.Comments).Error; err != nil {
		return out, err
	}
	return out, nil
}

func (r *reviewerRankingRepo) Current(dbc dbctx.Context, projectID, stageID uuid.UUID, reviewerEmail string) (ReviewerCurrentView, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := ReviewerCurrentView{
		Submissions: []*types.ReviewerSubmissionRanking{},
		Comments:    []*types.ReviewerCommentRanking{},
	}
	if projectID == uuid.Nil || stageID == uuid.Nil {
		return out, nil
	}
	reviewerEmail = strings.ToLower(strings.TrimSpace(reviewerEmail))

	subQ := transaction.WithContext(dbc.Ctx).
		Where("project_id = ? AND stage_id = ?", projectID, stageID)
	if reviewerEmail != "" {
		subQ = subQ.Where("reviewer_email = ?", reviewerEmail)
	}
	var subs []*types.ReviewerSubmissionRanking
	if err := subQ.Order("created_at DESC").Find(&subs).Error; err != nil {
		return out, err
	}
	seenSub := map[[2]string]bool{}
	for _, s := range subs {
		k := [2]string{s.ReviewerEmail, s.SubmissionID.String()}
		if seenSub[k] {
			continue
		}
		seenSub[k] = true
		out.Submissions = append(out.Submissions, s)
	}

	comQ := transaction.WithContext(dbc.Ctx).
		Where("project_id = ? AND stage_id = ?", projectID, stageID)
	if reviewerEmail != "" {
		comQ = comQ.Where("reviewer_email = ?", reviewerEmail)
	}
	var coms []*types.ReviewerCommentRanking
	if err := comQ.Order("created_at DESC").Find(&coms).Error; err != nil {
		return out, err
	}
	seenCom := map[[2]string]bool{}
	for _, c := range coms {
		k := [2]string{c.ReviewerEmail, c.CommentID.String()}
		if seenCom[k] {
			continue
		}
		seenCom[k] = true
		out.Comments = append(out.Comments, c)
	}
	return out, nil
}
