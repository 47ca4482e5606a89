package project

import (
	"time"

	"github.com/google/uuid"
)

const (
	SubmissionStatusPending  = "pending"
	SubmissionStatusApproved = "approved"
	SubmissionStatusRejected = "rejected"
)

// Submission is a group's artifact for a stage.
type Submission struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	StageID   uuid.UUID `gorm:"type:uuid;not null;index" json:"stage_id"`
	GroupID   uuid.UUID `gorm:"type:uuid;not null;index" json:"group_id"`
	Title     string    `gorm:"column:title" json:"title"`

	// pending|approved|rejected
	Status string `gorm:"column:status;not null;index" json:"status"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Submission) TableName() string { return "submission" }

type Comment struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"project_id"`
	StageID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"stage_id"`
	AuthorEmail string     `gorm:"column:author_email;not null;index" json:"author_email"`
	ParentID    *uuid.UUID `gorm:"column:parent_id;type:uuid;index" json:"parent_id,omitempty"`
	Content     string     `gorm:"column:content;type:text" json:"content"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Comment) TableName() string { return "comment" }

func (c *Comment) IsReply() bool {
	return c != nil && c.ParentID != nil && *c.ParentID != uuid.Nil
}

// CommentMention references either a user or a group from a comment.
type CommentMention struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CommentID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"comment_id"`
	MentionedEmail   string     `gorm:"column:mentioned_email" json:"mentioned_email,omitempty"`
	MentionedGroupID *uuid.UUID `gorm:"column:mentioned_group_id;type:uuid" json:"mentioned_group_id,omitempty"`
}

func (CommentMention) TableName() string { return "comment_mention" }

const ReactionHelpful = "helpful"

type CommentReaction struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CommentID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_comment_reaction_unique,priority:1" json:"comment_id"`
	ReactorEmail string    `gorm:"column:reactor_email;not null;uniqueIndex:idx_comment_reaction_unique,priority:2" json:"reactor_email"`
	Kind         string    `gorm:"column:kind;not null;uniqueIndex:idx_comment_reaction_unique,priority:3" json:"kind"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (CommentReaction) TableName() string { return "comment_reaction" }
