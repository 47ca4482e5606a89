package aggregates

import (
	"github.com/google/uuid"

	"github.com/yungbote/peerrank-backend/internal/domain/project"
	"github.com/yungbote/peerrank-backend/internal/modules/ranking/eligibility"
)

// SlotPolicy resolves how many ranks a ranking may hold.
type SlotPolicy struct {
	// SubmissionSlots bounds proposal and reviewer submission rankings.
	SubmissionSlots int
	// DefaultCommentSlots applies when neither the project row nor an
	// override configures a value.
	DefaultCommentSlots int
	// CommentSlotOverrides is keyed by project id.
	CommentSlotOverrides map[uuid.UUID]int
}

func (p SlotPolicy) Submissions() int {
	if p.SubmissionSlots > 0 {
		return p.SubmissionSlots
	}
	return eligibility.DefaultMaxSlots
}

// CommentSlots returns the project's configured value, then the override,
// then the default.
func (p SlotPolicy) CommentSlots(proj *project.Project) int {
	if proj != nil {
		if proj.CommentRankingSlots > 0 {
			return proj.CommentRankingSlots
		}
		if n, ok := p.CommentSlotOverrides[proj.ID]; ok && n > 0 {
			return n
		}
	}
	if p.DefaultCommentSlots > 0 {
		return p.DefaultCommentSlots
	}
	return eligibility.DefaultMaxSlots
}
