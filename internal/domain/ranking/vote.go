package ranking

import (
	"time"

	"github.com/google/uuid"
)

// Agreement values are signed so the net score is a plain SUM(agree).
const (
	Agree    = 1
	Disagree = -1
)

func AgreeValue(agree bool) int {
	if agree {
		return Agree
	}
	return Disagree
}

// ProposalVote is the single live vote of a voter on a proposal.
type ProposalVote struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProposalID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_proposal_vote_voter,priority:1" json:"proposal_id"`
	VoterEmail string    `gorm:"column:voter_email;not null;uniqueIndex:idx_proposal_vote_voter,priority:2" json:"voter_email"`

	// +1 agree, -1 disagree
	Agree   int    `gorm:"column:agree;not null" json:"agree"`
	Comment string `gorm:"column:comment;type:text" json:"comment,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ProposalVote) TableName() string { return "proposal_vote" }

// Tally is always recomputed from proposal_vote rows.
type Tally struct {
	ProposalID           uuid.UUID `json:"proposal_id"`
	AgreeCount           int64     `json:"agree"`
	DisagreeCount        int64     `json:"disagree"`
	TotalVotes           int64     `json:"total"`
	TotalEligibleMembers int64     `json:"total_members"`
	NetScore             int64     `json:"net_score"`
	Status               string    `json:"status"`
}
