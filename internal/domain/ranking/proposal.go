package ranking

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Derived proposal statuses. Only StatusRejected is ever stored (by the
// settlement process); the others are computed from lifecycle timestamps.
const (
	StatusPending   = "pending"
	StatusReset     = "reset"
	StatusSettled   = "settled"
	StatusWithdrawn = "withdrawn"
	StatusRejected  = "rejected"
)

// RankingProposal is a group's ranking of submissions for a stage, subject to
// voting by the members of that group.
type RankingProposal struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	StageID   uuid.UUID `gorm:"type:uuid;not null;index:idx_ranking_proposal_stage_group,priority:1" json:"stage_id"`
	GroupID   uuid.UUID `gorm:"type:uuid;not null;index:idx_ranking_proposal_stage_group,priority:2" json:"group_id"`

	ProposerEmail string `gorm:"column:proposer_email;not null" json:"proposer_email"`

	// Ordered [{targetId, rank}] body.
	RankingBody datatypes.JSON `gorm:"column:ranking_body" json:"ranking_body"`

	// Cached view written by settlement; lifecycle timestamps win over it.
	Status string `gorm:"column:status;not null;default:'pending'" json:"-"`

	SettledAt   *time.Time `gorm:"column:settled_at" json:"settled_at,omitempty"`
	WithdrawnAt *time.Time `gorm:"column:withdrawn_at" json:"withdrawn_at,omitempty"`
	ResetAt     *time.Time `gorm:"column:reset_at" json:"reset_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (RankingProposal) TableName() string { return "ranking_proposal" }

// DeriveStatus computes the proposal status. Terminal timestamps are checked
// before the cached status column.
func DeriveStatus(p *RankingProposal) string {
	if p == nil {
		return ""
	}
	switch {
	case p.SettledAt != nil:
		return StatusSettled
	case p.WithdrawnAt != nil:
		return StatusWithdrawn
	case p.ResetAt != nil:
		return StatusReset
	case p.Status == StatusRejected:
		return StatusRejected
	default:
		return StatusPending
	}
}

// IsVotable reports whether new votes may be recorded.
func IsVotable(status string) bool {
	return status == StatusPending || status == StatusReset
}

// IsTerminal reports whether the proposal can never change again.
func IsTerminal(status string) bool {
	return status == StatusSettled || status == StatusWithdrawn
}

// Items decodes the ranking body.
func (p *RankingProposal) Items() ([]RankItem, error) {
	out := []RankItem{}
	if p == nil || len(p.RankingBody) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(p.RankingBody, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ProposalView is the read model returned to callers.
type ProposalView struct {
	*RankingProposal
	DerivedStatus string     `json:"status"`
	Items         []RankItem `json:"rankings"`
}

func NewProposalView(p *RankingProposal) *ProposalView {
	if p == nil {
		return nil
	}
	items, _ := p.Items()
	return &ProposalView{RankingProposal: p, DerivedStatus: DeriveStatus(p), Items: items}
}
