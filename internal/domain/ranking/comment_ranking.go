package ranking

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CommentRankingProposal is one submission event of a participant's comment
// ranking. Rows are never updated; the highest version is the current one.
type CommentRankingProposal struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	StageID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_comment_ranking_version,priority:1" json:"stage_id"`
	AuthorEmail string    `gorm:"column:author_email;not null;uniqueIndex:idx_comment_ranking_version,priority:2" json:"author_email"`
	Version     int       `gorm:"column:version;not null;uniqueIndex:idx_comment_ranking_version,priority:3" json:"version"`

	// [{commentId, rank}]
	Rankings datatypes.JSON `gorm:"column:rankings" json:"rankings"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (CommentRankingProposal) TableName() string { return "comment_ranking_proposal" }

func (c *CommentRankingProposal) Items() ([]CommentRankItem, error) {
	out := []CommentRankItem{}
	if c == nil || len(c.Rankings) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(c.Rankings, &out); err != nil {
		return nil, err
	}
	return out, nil
}
