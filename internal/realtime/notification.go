package realtime

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	ProposalSubmitted       NotificationType = "proposal_submitted"
	ProposalVoted           NotificationType = "proposal_voted"
	ProposalWithdrawn       NotificationType = "proposal_withdrawn"
	ProposalReset           NotificationType = "proposal_reset"
	CommentRankingSubmitted NotificationType = "comment_ranking_submitted"
	ReviewerVoteSubmitted   NotificationType = "reviewer_vote_submitted"
)

// Notification is delivered to one recipient. Channel is the recipient email,
// normalized to lower case.
type Notification struct {
	ID        uuid.UUID        `json:"id"`
	Type      NotificationType `json:"type"`
	Channel   string           `json:"channel"`
	ProjectID uuid.UUID        `json:"project_id"`
	EntityID  uuid.UUID        `json:"entity_id"`
	Actor     string           `json:"actor"`
	Data      map[string]any   `json:"data,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
