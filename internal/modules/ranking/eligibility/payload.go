package eligibility

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/yungbote/peerrank-backend/internal/domain/ranking"
)

// DefaultMaxSlots is the top-N used when a project does not override it.
const DefaultMaxSlots = 3

// ValidateRanking checks the structural shape of a ranking payload:
// non-empty, at most maxSlots items, each rank in [1, maxSlots], no duplicate
// targets and no duplicate ranks.
func ValidateRanking(items []ranking.RankItem, maxSlots int) Decision {
	if maxSlots <= 0 {
		maxSlots = DefaultMaxSlots
	}
	if len(items) == 0 {
		return Deny(KindInvalidShape, ReasonRankingEmpty, "ranking must contain at least one item")
	}
	if len(items) > maxSlots {
		return Deny(KindInvalidShape, ReasonTooManyItems, fmt.Sprintf("ranking has %d items, max %d", len(items), maxSlots))
	}
	targets := make(map[uuid.UUID]struct{}, len(items))
	ranks := make(map[int]struct{}, len(items))
	for _, it := range items {
		if it.TargetID == uuid.Nil {
			return Deny(KindInvalidShape, ReasonInvalidTarget, "target id is required")
		}
		if it.Rank < 1 || it.Rank > maxSlots {
			return Deny(KindInvalidShape, ReasonRankOutOfRange, fmt.Sprintf("rank %d not in [1,%d]", it.Rank, maxSlots))
		}
		if _, ok := targets[it.TargetID]; ok {
			return Deny(KindInvalidShape, ReasonDuplicateTarget, "target "+it.TargetID.String()+" ranked twice")
		}
		targets[it.TargetID] = struct{}{}
		if _, ok := ranks[it.Rank]; ok {
			return Deny(KindInvalidShape, ReasonDuplicateRank, fmt.Sprintf("rank %d used twice", it.Rank))
		}
		ranks[it.Rank] = struct{}{}
	}
	return Allow()
}

// ValidateCommentRanking applies ValidateRanking and additionally requires the
// sorted ranks to be exactly 1..len(items). Partial rankings (fewer than
// maxSlots items) are valid as long as they start at 1 without gaps.
func ValidateCommentRanking(items []ranking.CommentRankItem, maxSlots int) Decision {
	generic := ranking.CommentItemsToRankItems(items)
	if d := ValidateRanking(generic, maxSlots); !d.Allowed {
		return d
	}
	ranks := make([]int, 0, len(generic))
	for _, it := range generic {
		ranks = append(ranks, it.Rank)
	}
	sort.Ints(ranks)
	for i, r := range ranks {
		if r != i+1 {
			return Deny(KindInvalidShape, ReasonRankNotContiguous, fmt.Sprintf("ranks must be 1..%d without gaps", len(ranks)))
		}
	}
	return Allow()
}
