package ranking

import (
	"time"

	"github.com/google/uuid"
)

// ReviewerSubmissionRanking is an append-only row: one per reviewer, target
// submission and submission event. EventID groups rows written together.
type ReviewerSubmissionRanking struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID     uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	StageID       uuid.UUID `gorm:"type:uuid;not null;index:idx_reviewer_submission_ranking_lookup,priority:1" json:"stage_id"`
	ReviewerEmail string    `gorm:"column:reviewer_email;not null;index:idx_reviewer_submission_ranking_lookup,priority:2" json:"reviewer_email"`
	SubmissionID  uuid.UUID `gorm:"type:uuid;not null;index" json:"submission_id"`
	Rank          int       `gorm:"column:rank;not null" json:"rank"`
	EventID       uuid.UUID `gorm:"type:uuid;not null;index" json:"event_id"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (ReviewerSubmissionRanking) TableName() string { return "reviewer_submission_ranking" }

// ReviewerCommentRanking mirrors ReviewerSubmissionRanking for comments.
type ReviewerCommentRanking struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID     uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	StageID       uuid.UUID `gorm:"type:uuid;not null;index:idx_reviewer_comment_ranking_lookup,priority:1" json:"stage_id"`
	ReviewerEmail string    `gorm:"column:reviewer_email;not null;index:idx_reviewer_comment_ranking_lookup,priority:2" json:"reviewer_email"`
	CommentID     uuid.UUID `gorm:"type:uuid;not null;index" json:"comment_id"`
	Rank          int       `gorm:"column:rank;not null" json:"rank"`
	EventID       uuid.UUID `gorm:"type:uuid;not null;index" json:"event_id"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (ReviewerCommentRanking) TableName() string { return "reviewer_comment_ranking" }
