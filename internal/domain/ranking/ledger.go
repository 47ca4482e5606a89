package ranking

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Ledger action types.
const (
	ActionSubmitProposal    = "proposal.submit"
	ActionVoteProposal      = "proposal.vote"
	ActionWithdrawProposal  = "proposal.withdraw"
	ActionResetProposal     = "proposal.reset"
	ActionCommentRanking    = "comment_ranking.submit"
	ActionComprehensiveVote = "reviewer.comprehensive_vote"
)

// ActionLedgerEntry records "actor performed action on entity within bucket"
// exactly once. Uniqueness on (dedup_key, time_bucket) is the only
// concurrency control; rows are never updated.
type ActionLedgerEntry struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DedupKey   string    `gorm:"column:dedup_key;not null;uniqueIndex:idx_action_ledger_key_bucket,priority:1" json:"dedup_key"`
	TimeBucket int64     `gorm:"column:time_bucket;not null;uniqueIndex:idx_action_ledger_key_bucket,priority:2" json:"time_bucket"`

	ActorEmail string    `gorm:"column:actor_email;not null;index" json:"actor_email"`
	ActionType string    `gorm:"column:action_type;not null;index" json:"action_type"`
	EntityID   uuid.UUID `gorm:"type:uuid;index" json:"entity_id"`

	// Raw action context kept for forensic review.
	Payload datatypes.JSON `gorm:"column:payload" json:"payload"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (ActionLedgerEntry) TableName() string { return "action_ledger" }
