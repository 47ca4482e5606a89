package aggregates

import (
	"github.com/yungbote/peerrank-backend/internal/data/repos"
	domainagg "github.com/yungbote/peerrank-backend/internal/domain/aggregates"
	"github.com/yungbote/peerrank-backend/internal/domain/ranking"
)

// State-conflict reasons reported by the ranking aggregates.
const (
	ReasonProjectNotFound        = "project_not_found"
	ReasonProposalNotFound       = "proposal_not_found"
	ReasonProposalSettled        = "proposal_settled"
	ReasonProposalWithdrawn      = "proposal_withdrawn"
	ReasonProposalRejected       = "proposal_rejected"
	ReasonProposalAlreadySettled = "proposal_already_settled"
	ReasonProposalPendingExists  = "proposal_pending_exists"
	ReasonProposalNotPending     = "proposal_not_pending"
	ReasonProposalChanged        = "proposal_changed"
	ReasonReplayWithoutResult    = "replay_without_result"
)

// RankingDeps is shared by the proposal, comment ranking and reviewer
// ranking aggregates.
type RankingDeps struct {
	Base   BaseDeps
	Repos  repos.Set
	Ledger *Ledger
	Slots  SlotPolicy
}

func (d RankingDeps) withDefaults() RankingDeps {
	d.Base = d.Base.withDefaults()
	if d.Ledger == nil {
		d.Ledger = NewLedger(d.Repos.Ledger, d.Base.Log, d.Base.Hooks, LedgerConfig{Clock: d.Base.Clock})
	}
	return d
}

// notVotableError names why a proposal in status cannot take the action.
func notVotableError(op, status string) error {
	switch status {
	case ranking.StatusSettled:
		return domainagg.NewReasonError(domainagg.CodeConflict, op, ReasonProposalSettled, "proposal is settled")
	case ranking.StatusWithdrawn:
		return domainagg.NewReasonError(domainagg.CodeConflict, op, ReasonProposalWithdrawn, "proposal was withdrawn")
	case ranking.StatusRejected:
		return domainagg.NewReasonError(domainagg.CodeConflict, op, ReasonProposalRejected, "proposal was rejected")
	default:
		return domainagg.NewReasonError(domainagg.CodeConflict, op, ReasonProposalNotPending, "proposal is "+status)
	}
}
