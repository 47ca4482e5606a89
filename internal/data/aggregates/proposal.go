package aggregates

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	domainagg "github.com/yungbote/peerrank-backend/internal/domain/aggregates"
	"github.com/yungbote/peerrank-backend/internal/domain/ranking"
	"github.com/yungbote/peerrank-backend/internal/modules/ranking/eligibility"
	"github.com/yungbote/peerrank-backend/internal/modules/ranking/keys"
	"github.com/yungbote/peerrank-backend/internal/platform/dbctx"
)

const proposalTable = "ranking_proposal"

type proposalAggregate struct {
	deps RankingDeps
}

func NewProposalAggregate(deps RankingDeps) domainagg.ProposalAggregate {
	return &proposalAggregate{deps: deps.withDefaults()}
}

func (a *proposalAggregate) Contract() domainagg.Contract {
	return domainagg.ProposalAggregateContract
}

func (a *proposalAggregate) SubmitProposal(ctx context.Context, in domainagg.SubmitProposalInput) (domainagg.SubmitProposalResult, error) {
	const op = "Ranking.Proposal.Submit"
	var out domainagg.SubmitProposalResult
	if in.ProjectID == uuid.Nil || in.StageID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing project_id or stage_id", nil)
	}
	r := a.deps.Repos

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		actor, err := ResolveActor(dbc, r, in.ProjectID, in.ActorEmail, false)
		if err != nil {
			return err
		}
		if d := eligibility.Authorize(eligibility.OpSubmitProposal, actor, eligibility.Scope{}); !d.Allowed {
			return DecisionError(op, d)
		}
		if d := eligibility.ValidateRanking(in.Rankings, a.deps.Slots.Submissions()); !d.Allowed {
			return DecisionError(op, d)
		}
		groupID := *actor.GroupID

		rec, err := a.deps.Ledger.Record(dbc, LedgerEntry{
			DedupKey:   keys.SubmitProposalKey(in.ProjectID, in.StageID, groupID, actor.Email),
			ActorEmail: actor.Email,
			ActionType: ranking.ActionSubmitProposal,
			EntityID:   in.StageID,
			Payload:    in,
		})
		if err != nil {
			return err
		}
		if !rec.IsNew {
			latest, err := r.Proposals.LatestForGroupStage(dbc, in.StageID, groupID)
			if err != nil {
				return err
			}
			if latest == nil {
				return domainagg.NewReasonError(domainagg.CodeConflict, op, ReasonReplayWithoutResult, "duplicate request has no recorded proposal")
			}
			out.Proposal = latest
			out.Deduped = true
			return nil
		}

		stage, err := r.Stages.GetByID(dbc, in.ProjectID, in.StageID)
		if err != nil {
			return err
		}
		if d := eligibility.CheckStageOpen(stage); !d.Allowed {
			return DecisionError(op, d)
		}

		existing, err := r.Proposals.ListForGroupStage(dbc, in.StageID, groupID)
		if err != nil {
			return err
		}
		var superseded []uuid.UUID
		for _, p := range existing {
			switch ranking.DeriveStatus(p) {
			case ranking.StatusSettled:
				return domainagg.NewReasonError(domainagg.CodeConflict, op, ReasonProposalAlreadySettled, "a proposal for this stage is already settled")
			case ranking.StatusPending:
				return domainagg.NewReasonError(domainagg.CodeConflict, op, ReasonProposalPendingExists, "a pending proposal already exists for this group")
			case ranking.StatusReset:
				superseded = append(superseded, p.ID)
			}
		}

		facts, err := loadSubmissionFacts(dbc, r, in.ProjectID, in.StageID, in.Rankings)
		if err != nil {
			return err
		}
		for _, f := range facts {
			if d := eligibility.CheckSubmission(f, actor.GroupID); !d.Allowed {
				return DecisionError(op, d)
			}
		}

		body, err := encodeRankItems(in.Rankings)
		if err != nil {
			return err
		}
		now := a.deps.Base.now()
		// A new submission replaces any reset proposal for the group.
		for _, id := range superseded {
			ok, err := a.deps.Base.CASGuard.UpdateWhereNull(dbc, proposalTable, id,
				[]string{"settled_at", "withdrawn_at"},
				map[string]any{"withdrawn_at": now, "updated_at": now})
			if err != nil {
				return err
			}
			if err := RequireCASSuccess(ok, op, ReasonProposalChanged, "reset proposal changed while superseding"); err != nil {
				return err
			}
		}
		p := &ranking.RankingProposal{
			ID:            uuid.New(),
			ProjectID:     in.ProjectID,
			StageID:       in.StageID,
			GroupID:       groupID,
			ProposerEmail: actor.Email,
			RankingBody:   body,
			Status:        ranking.StatusPending,
			CreatedAt:     now,
		}
		if err := r.Proposals.Create(dbc, p); err != nil {
			if IsUniqueViolation(err) {
				return domainagg.NewReasonError(domainagg.CodeConflict, op, ReasonProposalPendingExists, "a pending proposal already exists for this group")
			}
			return err
		}
		out.Proposal = p
		return nil
	})
	return out, err
}

func (a *proposalAggregate) VoteOnProposal(ctx context.Context, in domainagg.VoteInput) (domainagg.VoteResult, error) {
	const op = "Ranking.Proposal.Vote"
	var out domainagg.VoteResult
	if in.ProjectID == uuid.Nil || in.ProposalID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing project_id or proposal_id", nil)
	}
	r := a.deps.Repos

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		actor, err := ResolveActor(dbc, r, in.ProjectID, in.ActorEmail, false)
		if err != nil {
			return err
		}
		p, err := a.loadProposal(dbc, op, in.ProjectID, in.ProposalID)
		if err != nil {
			return err
		}
		scope := eligibility.Scope{GroupID: &p.GroupID, ProposerEmail: p.ProposerEmail}
		if d := eligibility.Authorize(eligibility.OpVoteOnProposal, actor, scope); !d.Allowed {
			return DecisionError(op, d)
		}
		if status := ranking.DeriveStatus(p); !ranking.IsVotable(status) {
			return notVotableError(op, status)
		}

		rec, err := a.deps.Ledger.Record(dbc, LedgerEntry{
			DedupKey:   keys.VoteProposalKey(p.ID, actor.Email),
			ActorEmail: actor.Email,
			ActionType: ranking.ActionVoteProposal,
			EntityID:   p.ID,
			Payload:    in,
		})
		if err != nil {
			return err
		}
		if !rec.IsNew {
			out.Tally, err = LoadTally(dbc, r, p)
			out.Deduped = true
			return err
		}

		// Touch the proposal while it is still open so a concurrent settlement
		// or withdrawal serializes with this vote.
		now := a.deps.Base.now()
		ok, err := a.deps.Base.CASGuard.UpdateWhereNull(dbc, proposalTable, p.ID,
			[]string{"settled_at", "withdrawn_at"}, map[string]any{"updated_at": now})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, op, ReasonProposalChanged, "proposal closed while voting"); err != nil {
			return err
		}

		if err := r.Votes.Upsert(dbc, &ranking.ProposalVote{
			ID:         uuid.New(),
			ProposalID: p.ID,
			VoterEmail: actor.Email,
			Agree:      ranking.AgreeValue(in.Agree),
			Comment:    in.Comment,
			CreatedAt:  now,
			UpdatedAt:  now,
		}); err != nil {
			return err
		}
		out.Tally, err = LoadTally(dbc, r, p)
		return err
	})
	return out, err
}

func (a *proposalAggregate) WithdrawProposal(ctx context.Context, in domainagg.ProposalTransitionInput) (domainagg.ProposalTransitionResult, error) {
	const op = "Ranking.Proposal.Withdraw"
	var out domainagg.ProposalTransitionResult
	if in.ProjectID == uuid.Nil || in.ProposalID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing project_id or proposal_id", nil)
	}
	r := a.deps.Repos

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		actor, err := ResolveActor(dbc, r, in.ProjectID, in.ActorEmail, false)
		if err != nil {
			return err
		}
		p, err := a.loadProposal(dbc, op, in.ProjectID, in.ProposalID)
		if err != nil {
			return err
		}
		scope := eligibility.Scope{GroupID: &p.GroupID, ProposerEmail: p.ProposerEmail}
		if d := eligibility.Authorize(eligibility.OpWithdrawProposal, actor, scope); !d.Allowed {
			return DecisionError(op, d)
		}
		// Only a replay of this actor's own withdrawal may see a closed proposal.
		status := ranking.DeriveStatus(p)
		if !ranking.IsVotable(status) && status != ranking.StatusWithdrawn {
			return notVotableError(op, status)
		}

		rec, err := a.deps.Ledger.Record(dbc, LedgerEntry{
			DedupKey:   keys.TransitionKey(ranking.ActionWithdrawProposal, p.ID, actor.Email),
			ActorEmail: actor.Email,
			ActionType: ranking.ActionWithdrawProposal,
			EntityID:   p.ID,
			Payload:    in,
		})
		if err != nil {
			return err
		}
		if !rec.IsNew {
			out.Proposal = p
			out.Deduped = true
			return nil
		}

		if !ranking.IsVotable(status) {
			return notVotableError(op, status)
		}
		now := a.deps.Base.now()
		ok, err := a.deps.Base.CASGuard.UpdateWhereNull(dbc, proposalTable, p.ID,
			[]string{"settled_at", "withdrawn_at"},
			map[string]any{"withdrawn_at": now, "updated_at": now})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, op, ReasonProposalChanged, "proposal closed while withdrawing"); err != nil {
			return err
		}
		out.Proposal, err = r.Proposals.GetByID(dbc, in.ProjectID, p.ID)
		return err
	})
	return out, err
}

func (a *proposalAggregate) ResetProposal(ctx context.Context, in domainagg.ProposalTransitionInput) (domainagg.ProposalTransitionResult, error) {
	const op = "Ranking.Proposal.Reset"
	var out domainagg.ProposalTransitionResult
	if in.ProjectID == uuid.Nil || in.ProposalID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing project_id or proposal_id", nil)
	}
	r := a.deps.Repos

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		actor, err := ResolveActor(dbc, r, in.ProjectID, in.ActorEmail, true)
		if err != nil {
			return err
		}
		p, err := a.loadProposal(dbc, op, in.ProjectID, in.ProposalID)
		if err != nil {
			return err
		}
		scope := eligibility.Scope{GroupID: &p.GroupID, ProposerEmail: p.ProposerEmail}
		if d := eligibility.Authorize(eligibility.OpResetProposal, actor, scope); !d.Allowed {
			return DecisionError(op, d)
		}
		status := ranking.DeriveStatus(p)
		if status != ranking.StatusPending && status != ranking.StatusReset {
			return notVotableError(op, status)
		}

		rec, err := a.deps.Ledger.Record(dbc, LedgerEntry{
			DedupKey:   keys.TransitionKey(ranking.ActionResetProposal, p.ID, actor.Email),
			ActorEmail: actor.Email,
			ActionType: ranking.ActionResetProposal,
			EntityID:   p.ID,
			Payload:    in,
		})
		if err != nil {
			return err
		}
		if !rec.IsNew {
			out.Proposal = p
			out.Deduped = true
			return nil
		}

		if status != ranking.StatusPending {
			return notVotableError(op, status)
		}
		now := a.deps.Base.now()
		ok, err := a.deps.Base.CASGuard.UpdateWhereNull(dbc, proposalTable, p.ID,
			[]string{"settled_at", "withdrawn_at", "reset_at"},
			map[string]any{"reset_at": now, "updated_at": now})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, op, ReasonProposalChanged, "proposal changed while resetting"); err != nil {
			return err
		}
		if _, err := r.Votes.DeleteByProposal(dbc, p.ID); err != nil {
			return err
		}
		out.Proposal, err = r.Proposals.GetByID(dbc, in.ProjectID, p.ID)
		return err
	})
	return out, err
}

func (a *proposalAggregate) loadProposal(dbc dbctx.Context, op string, projectID, proposalID uuid.UUID) (*ranking.RankingProposal, error) {
	p, err := a.deps.Repos.Proposals.GetByID(dbc, projectID, proposalID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domainagg.NewReasonError(domainagg.CodeNotFound, op, ReasonProposalNotFound, "proposal "+proposalID.String()+" not found")
	}
	return p, nil
}

func encodeRankItems(items []ranking.RankItem) (datatypes.JSON, error) {
	sorted := append([]ranking.RankItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Rank < sorted[j].Rank })
	b, err := json.Marshal(sorted)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
