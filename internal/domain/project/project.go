package project

import (
	"time"

	"github.com/google/uuid"
)

// Project is owned by the course-management side of the system; the ranking
// subsystem only reads it.
type Project struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name string    `gorm:"column:name;not null" json:"name"`

	// Number of comment ranking slots for this project; 0 means the service default.
	CommentRankingSlots int `gorm:"column:comment_ranking_slots;not null;default:0" json:"comment_ranking_slots"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Project) TableName() string { return "project" }

const (
	StageStatusPending = "pending"
	StageStatusActive  = "active"
	StageStatusVoting  = "voting"
	StageStatusClosed  = "closed"
)

type Stage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Name      string    `gorm:"column:name;not null" json:"name"`

	// pending|active|voting|closed
	Status string `gorm:"column:status;not null;index" json:"status"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Stage) TableName() string { return "stage" }

// AcceptsRankings reports whether proposals, votes and rankings may be recorded.
func (s *Stage) AcceptsRankings() bool {
	if s == nil {
		return false
	}
	return s.Status == StageStatusActive || s.Status == StageStatusVoting
}
