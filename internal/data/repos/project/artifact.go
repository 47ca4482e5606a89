package project

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/yungbote/peerrank-backend/internal/domain/project"
	"github.com/yungbote/peerrank-backend/internal/platform/dbctx"
	"github.com/yungbote/peerrank-backend/internal/platform/logger"
)

// SubmissionRepo resolves submissions inside one project stage. Ids from
// another stage are reported as missing.
type SubmissionRepo interface {
	GetByIDs(dbc dbctx.Context, projectID, stageID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*domain.Submission, error)
}

type submissionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionRepo {
	return &submissionRepo{
		db:  db,
		log: baseLog.With("repo", "SubmissionRepo"),
	}
}

func (r *submissionRepo) GetByIDs(dbc dbctx.Context, projectID, stageID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*domain.Submission, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := map[uuid.UUID]*domain.Submission{}
	if projectID == uuid.Nil || stageID == uuid.Nil || len(ids) == 0 {
		return out, nil
	}
	var rows []*domain.Submission
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ? AND stage_id = ? AND id IN ?", projectID, stageID, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, s := range rows {
		out[s.ID] = s
	}
	return out, nil
}

// CommentStats is the engagement state of one comment.
type CommentStats struct {
	Mentions          int
	HelpfulFromOthers int
}

type CommentRepo interface {
	GetByIDs(dbc dbctx.Context, projectID, stageID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*domain.Comment, error)
	// Stats counts mentions and helpful reactions left by active participants
	// of the comment's project other than its author.
	Stats(dbc dbctx.Context, ids []uuid.UUID) (map[uuid.UUID]CommentStats, error)
}

type commentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCommentRepo(db *gorm.DB, baseLog *logger.Logger) CommentRepo {
	return &commentRepo{
		db:  db,
		log: baseLog.With("repo", "CommentRepo"),
	}
}

func (r *commentRepo) GetByIDs(dbc dbctx.Context, projectID, stageID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]*domain.Comment, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := map[uuid.UUID]*domain.Comment{}
	if projectID == uuid.Nil || stageID == uuid.Nil || len(ids) == 0 {
		return out, nil
	}
	var rows []*domain.Comment
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ? AND stage_id = ? AND id IN ?", projectID, stageID, ids).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, c := range rows {
		out[c.ID] = c
	}
	return out, nil
}

type commentCount struct {
	CommentID uuid.UUID
	N         int
}

func (r *commentRepo) Stats(dbc dbctx.Context, ids []uuid.UUID) (map[uuid.UUID]CommentStats, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := map[uuid.UUID]CommentStats{}
	if len(ids) == 0 {
		return out, nil
	}

	var mentions []commentCount
	if err := transaction.WithContext(dbc.Ctx).
		Model(&domain.CommentMention{}).
		Select("comment_id, COUNT(*) AS n").
		Where("comment_id IN ?", ids).
		Group("comment_id").
		Scan(&mentions).Error; err != nil {
		return nil, err
	}

	var helpful []commentCount
	if err := transaction.WithContext(dbc.Ctx).
		Table("comment_reaction AS cr").
		Select("cr.comment_id AS comment_id, COUNT(*) AS n").
		Joins("JOIN comment AS c ON c.id = cr.comment_id").
		Where("cr.comment_id IN ? AND cr.kind = ?", ids, domain.ReactionHelpful).
		Where("LOWER(cr.reactor_email) <> LOWER(c.author_email)").
		Where(`(EXISTS (SELECT 1 FROM group_member AS gm
				WHERE gm.project_id = c.project_id AND gm.status = ? AND LOWER(gm.user_email) = LOWER(cr.reactor_email))
			OR EXISTS (SELECT 1 FROM project_staff AS ps
				WHERE ps.project_id = c.project_id AND LOWER(ps.user_email) = LOWER(cr.reactor_email)))`,
			domain.MemberStatusActive).
		Group("cr.comment_id").
		Scan(&helpful).Error; err != nil {
		return nil, err
	}

	for _, m := range mentions {
		s := out[m.CommentID]
		s.Mentions = m.N
		out[m.CommentID] = s
	}
	for _, h := range helpful {
		s := out[h.CommentID]
		s.HelpfulFromOthers = h.N
		out[h.CommentID] = s
	}
	return out, nil
}
