package aggregates_test

import (
	"sync"
	"testing"
	"time"

	"github.com/yungbote/peerrank-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/peerrank-backend/internal/domain/aggregates"
	"github.com/yungbote/peerrank-backend/internal/domain/project"
	"github.com/yungbote/peerrank-backend/internal/domain/ranking"
	"github.com/yungbote/peerrank-backend/internal/modules/ranking/eligibility"
)

func TestProposalVotingEndToEnd(t *testing.T) {
	f := newRankingFixture(t)
	p := f.mustSubmit(t, leaderA)

	if _, err := f.vote(t, p, leaderA, true); err != nil {
		t.Fatalf("leader vote: %v", err)
	}
	if _, err := f.vote(t, p, memberA2, true); err != nil {
		t.Fatalf("m2 vote: %v", err)
	}
	res, err := f.vote(t, p, memberA3, false)
	if err != nil {
		t.Fatalf("m3 vote: %v", err)
	}
	want := ranking.Tally{ProposalID: p.ID, AgreeCount: 2, DisagreeCount: 1, TotalVotes: 3, TotalEligibleMembers: 3, NetScore: 1, Status: ranking.StatusPending}
	if res.Tally != want {
		t.Fatalf("tally: want=%+v got=%+v", want, res.Tally)
	}

	// a changed vote in a later bucket overwrites the voter's row
	f.clock.Advance(time.Minute)
	res, err = f.vote(t, p, leaderA, false)
	if err != nil {
		t.Fatalf("leader changes vote: %v", err)
	}
	if res.Deduped || res.Tally.AgreeCount != 1 || res.Tally.DisagreeCount != 2 || res.Tally.NetScore != -1 {
		t.Fatalf("after overwrite: want 1/2 net=-1 got=%+v deduped=%v", res.Tally, res.Deduped)
	}
	if n := f.countRows(t, &ranking.ProposalVote{}, "proposal_id = ?", p.ID); n != 3 {
		t.Fatalf("vote rows: want=3 got=%d", n)
	}

	// an identical retry in the same bucket is a replay with the current tally
	res, err = f.vote(t, p, leaderA, false)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !res.Deduped {
		t.Fatalf("retry: want deduped")
	}
	if res.Tally.AgreeCount != 1 || res.Tally.DisagreeCount != 2 || res.Tally.TotalVotes != 3 {
		t.Fatalf("retry tally: want 1/2 got=%+v", res.Tally)
	}
	if got := f.hooks.ReplayCount(ranking.ActionVoteProposal); got != 1 {
		t.Fatalf("replay hook: want=1 got=%d", got)
	}
}

func TestVoteOverwriteKeepsOneRowPerVoter(t *testing.T) {
	f := newRankingFixture(t)
	p := f.mustSubmit(t, leaderA)

	for i, agree := range []bool{true, false, true} {
		if i > 0 {
			f.clock.Advance(time.Minute)
		}
		if _, err := f.vote(t, p, memberA2, agree); err != nil {
			t.Fatalf("vote %d: %v", i, err)
		}
	}
	if n := f.countRows(t, &ranking.ProposalVote{}, "proposal_id = ? AND voter_email = ?", p.ID, memberA2); n != 1 {
		t.Fatalf("rows for voter: want=1 got=%d", n)
	}
	v, err := f.repos.Votes.GetByVoter(dbcOf(f), p.ID, memberA2)
	if err != nil || v == nil || v.Agree != ranking.Agree {
		t.Fatalf("latest vote: want agree got=%+v err=%v", v, err)
	}
}

func TestVoteOnSettledProposalIsRejected(t *testing.T) {
	f := newRankingFixture(t)
	p := f.mustSubmit(t, leaderA)
	if _, err := f.vote(t, p, leaderA, true); err != nil {
		t.Fatalf("vote: %v", err)
	}
	f.settle(t, p)

	_, err := f.vote(t, p, memberA2, true)
	wantAggErr(t, "vote on settled", err, domainagg.CodeConflict, aggregates.ReasonProposalSettled)
	if n := f.countRows(t, &ranking.ProposalVote{}, "proposal_id = ?", p.ID); n != 1 {
		t.Fatalf("vote rows after rejected vote: want=1 got=%d", n)
	}
	if n := f.countRows(t, &ranking.ActionLedgerEntry{}, "actor_email = ? AND entity_id = ?", memberA2, p.ID); n != 0 {
		t.Fatalf("rejected vote must not leave a ledger row, got=%d", n)
	}

	// cached rejected status from settlement is also final
	other := f.submitOnStage(t, seedStage(t, f, project.StageStatusVoting))
	if err := f.db.Model(&ranking.RankingProposal{}).Where("id = ?", other.ID).Update("status", ranking.StatusRejected).Error; err != nil {
		t.Fatalf("mark rejected: %v", err)
	}
	_, err = f.vote(t, other, memberA2, true)
	wantAggErr(t, "vote on rejected", err, domainagg.CodeConflict, aggregates.ReasonProposalRejected)
}

func TestVoteReplayAfterSettlementIsRejected(t *testing.T) {
	f := newRankingFixture(t)
	p := f.mustSubmit(t, leaderA)
	if _, err := f.vote(t, p, memberA2, true); err != nil {
		t.Fatalf("vote: %v", err)
	}
	f.settle(t, p)

	// same voter, same minute bucket: the settled status wins over the replay
	res, err := f.vote(t, p, memberA2, true)
	wantAggErr(t, "replay on settled", err, domainagg.CodeConflict, aggregates.ReasonProposalSettled)
	if res.Deduped {
		t.Fatalf("replay on settled: want no deduped result")
	}
	if got := f.hooks.ReplayCount(ranking.ActionVoteProposal); got != 0 {
		t.Fatalf("replay hook: want=0 got=%d", got)
	}
}

func TestResubmitAfterRejection(t *testing.T) {
	f := newRankingFixture(t)
	p := f.mustSubmit(t, leaderA)
	if err := f.db.Model(&ranking.RankingProposal{}).Where("id = ?", p.ID).Update("status", ranking.StatusRejected).Error; err != nil {
		t.Fatalf("mark rejected: %v", err)
	}

	f.clock.Advance(time.Minute)
	res, err := f.submit(t, leaderA,
		ranking.RankItem{TargetID: f.subsB[1].ID, Rank: 1},
		ranking.RankItem{TargetID: f.subsB[0].ID, Rank: 2},
	)
	if err != nil {
		t.Fatalf("resubmit after rejection: %v", err)
	}
	if res.Deduped || res.Proposal.ID == p.ID {
		t.Fatalf("resubmit: want a new proposal got=%+v", res)
	}
	if got := ranking.DeriveStatus(res.Proposal); got != ranking.StatusPending {
		t.Fatalf("resubmit status: want=%s got=%s", ranking.StatusPending, got)
	}

	// the fresh pending proposal blocks the next one again
	f.clock.Advance(time.Minute)
	_, err = f.submit(t, memberA2, ranking.RankItem{TargetID: f.subsB[0].ID, Rank: 1})
	wantAggErr(t, "second pending", err, domainagg.CodeConflict, aggregates.ReasonProposalPendingExists)
}

func TestVoteAuthorization(t *testing.T) {
	f := newRankingFixture(t)
	p := f.mustSubmit(t, leaderA)

	_, err := f.vote(t, p, leaderB, true)
	wantAggErr(t, "other group", err, domainagg.CodeNotEligible, eligibility.ReasonNotGroupMember)
	_, err = f.vote(t, p, outsider, true)
	wantAggErr(t, "outsider", err, domainagg.CodeNotEligible, eligibility.ReasonNotGroupMember)
	_, err = f.vote(t, p, teacher, true)
	wantAggErr(t, "staff", err, domainagg.CodeNotEligible, eligibility.ReasonNotGroupMember)

	missing := *p
	missing.ID = newID()
	_, err = f.vote(t, &missing, leaderA, true)
	wantAggErr(t, "missing proposal", err, domainagg.CodeNotFound, aggregates.ReasonProposalNotFound)

	// the proposer votes on their own proposal like any member
	if _, err := f.vote(t, p, leaderA, true); err != nil {
		t.Fatalf("proposer vote: %v", err)
	}
}

func TestConcurrentVotesCountOncePerVoter(t *testing.T) {
	f := newRankingFixture(t)
	p := f.mustSubmit(t, leaderA)

	voters := []string{leaderA, memberA2, memberA3, memberA2, memberA3}
	var wg sync.WaitGroup
	errs := make(chan error, len(voters))
	for _, v := range voters {
		wg.Add(1)
		go func(email string) {
			defer wg.Done()
			_, err := f.vote(t, p, email, true)
			errs <- err
		}(v)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil && !domainagg.IsCode(err, domainagg.CodeRetryable) {
			t.Fatalf("concurrent vote: %v", err)
		}
	}

	tally, err := aggregates.LoadTally(dbcOf(f), f.repos, p)
	if err != nil {
		t.Fatalf("tally: %v", err)
	}
	if tally.TotalVotes != 3 || tally.AgreeCount != 3 {
		t.Fatalf("tally: want 3 votes from 3 voters got=%+v", tally)
	}
}

func TestSubmitProposalRules(t *testing.T) {
	f := newRankingFixture(t)
	good := []ranking.RankItem{{TargetID: f.subsB[0].ID, Rank: 1}, {TargetID: f.subsB[1].ID, Rank: 2}}

	_, err := f.submit(t, outsider, good...)
	wantAggErr(t, "outsider", err, domainagg.CodeNotEligible, eligibility.ReasonNotGroupMember)
	_, err = f.submit(t, leaderA, ranking.RankItem{TargetID: f.subA.ID, Rank: 1})
	wantAggErr(t, "own group", err, domainagg.CodeNotEligible, eligibility.ReasonOwnGroupSubmission)
	_, err = f.submit(t, leaderA, ranking.RankItem{TargetID: f.subPending.ID, Rank: 1})
	wantAggErr(t, "not approved", err, domainagg.CodeNotEligible, eligibility.ReasonSubmissionNotApproved)
	_, err = f.submit(t, leaderA, ranking.RankItem{TargetID: newID(), Rank: 1})
	wantAggErr(t, "unknown target", err, domainagg.CodeNotFound, eligibility.ReasonSubmissionNotFound)
	offStage := seedOtherStage(t, f)
	_, err = f.submit(t, leaderA, ranking.RankItem{TargetID: offStage.sub.ID, Rank: 1})
	wantAggErr(t, "target from another stage", err, domainagg.CodeNotFound, eligibility.ReasonSubmissionNotFound)
	_, err = f.submit(t, leaderA, ranking.RankItem{TargetID: f.subsB[0].ID, Rank: 4})
	wantAggErr(t, "rank out of range", err, domainagg.CodeValidation, eligibility.ReasonRankOutOfRange)
	_, err = f.submit(t, leaderA)
	wantAggErr(t, "empty", err, domainagg.CodeValidation, eligibility.ReasonRankingEmpty)

	first, err := f.submit(t, leaderA, good...)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if first.Deduped || ranking.DeriveStatus(first.Proposal) != ranking.StatusPending {
		t.Fatalf("fresh submit: got=%+v", first)
	}
	items, err := first.Proposal.Items()
	if err != nil || len(items) != 2 || items[0].Rank != 1 {
		t.Fatalf("ranking body: %+v err=%v", items, err)
	}

	replay, err := f.submit(t, leaderA, good...)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !replay.Deduped || replay.Proposal.ID != first.Proposal.ID {
		t.Fatalf("replay: want deduped same proposal got=%+v", replay)
	}

	_, err = f.submit(t, memberA2, good...)
	wantAggErr(t, "pending exists", err, domainagg.CodeConflict, aggregates.ReasonProposalPendingExists)

	// a reset proposal no longer blocks a new submission
	f.clock.Advance(time.Second)
	if _, err := f.proposals().ResetProposal(f.ctx, domainagg.ProposalTransitionInput{ProjectID: f.project.ID, ProposalID: first.Proposal.ID, ActorEmail: leaderA}); err != nil {
		t.Fatalf("reset: %v", err)
	}
	f.clock.Advance(time.Second)
	second, err := f.submit(t, memberA2, good...)
	if err != nil {
		t.Fatalf("submit after reset: %v", err)
	}

	// the new submission supersedes the reset proposal
	superseded, err := f.repos.Proposals.GetByID(dbcOf(f), f.project.ID, first.Proposal.ID)
	if err != nil || superseded == nil {
		t.Fatalf("reload reset proposal: %+v err=%v", superseded, err)
	}
	if got := ranking.DeriveStatus(superseded); got != ranking.StatusWithdrawn {
		t.Fatalf("superseded status: want=%s got=%s", ranking.StatusWithdrawn, got)
	}
	_, err = f.vote(t, first.Proposal, memberA3, true)
	wantAggErr(t, "vote on superseded", err, domainagg.CodeConflict, aggregates.ReasonProposalWithdrawn)
	if n := f.countRows(t, &ranking.RankingProposal{}, "stage_id = ? AND group_id = ? AND withdrawn_at IS NULL AND settled_at IS NULL", f.stage.ID, f.groupA.ID); n != 1 {
		t.Fatalf("votable proposals for group: want=1 got=%d", n)
	}

	f.settle(t, second.Proposal)
	f.clock.Advance(time.Second)
	_, err = f.submit(t, memberA3, good...)
	wantAggErr(t, "settled exists", err, domainagg.CodeConflict, aggregates.ReasonProposalAlreadySettled)
}

func TestSubmitProposalRequiresOpenStage(t *testing.T) {
	f := newRankingFixture(t)
	closed := seedStage(t, f, project.StageStatusClosed)
	_, err := f.proposals().SubmitProposal(f.ctx, domainagg.SubmitProposalInput{
		ProjectID:  f.project.ID,
		StageID:    closed.ID,
		ActorEmail: leaderA,
		Rankings:   []ranking.RankItem{{TargetID: f.subsB[0].ID, Rank: 1}},
	})
	wantAggErr(t, "closed stage", err, domainagg.CodeNotEligible, eligibility.ReasonStageNotOpen)
}

func TestWithdrawProposal(t *testing.T) {
	f := newRankingFixture(t)
	p := f.mustSubmit(t, memberA2)
	transition := func(actor string) (domainagg.ProposalTransitionResult, error) {
		return f.proposals().WithdrawProposal(f.ctx, domainagg.ProposalTransitionInput{ProjectID: f.project.ID, ProposalID: p.ID, ActorEmail: actor})
	}

	_, err := transition(memberA3)
	wantAggErr(t, "other member", err, domainagg.CodeNotEligible, eligibility.ReasonNotProposerOrLeader)
	_, err = transition(leaderB)
	wantAggErr(t, "other group", err, domainagg.CodeNotEligible, eligibility.ReasonNotGroupMember)

	res, err := transition(memberA2)
	if err != nil {
		t.Fatalf("proposer withdraw: %v", err)
	}
	if ranking.DeriveStatus(res.Proposal) != ranking.StatusWithdrawn {
		t.Fatalf("status: want=withdrawn got=%s", ranking.DeriveStatus(res.Proposal))
	}

	_, err = f.vote(t, p, memberA3, true)
	wantAggErr(t, "vote on withdrawn", err, domainagg.CodeConflict, aggregates.ReasonProposalWithdrawn)

	// the leader arrives late: withdrawn is terminal
	_, err = transition(leaderA)
	wantAggErr(t, "withdraw twice", err, domainagg.CodeConflict, aggregates.ReasonProposalWithdrawn)
}

func TestResetProposalClearsVotes(t *testing.T) {
	f := newRankingFixture(t)
	p := f.mustSubmit(t, memberA2)
	for _, v := range []string{leaderA, memberA2, memberA3} {
		if _, err := f.vote(t, p, v, true); err != nil {
			t.Fatalf("vote %s: %v", v, err)
		}
	}
	reset := func(actor string) (domainagg.ProposalTransitionResult, error) {
		return f.proposals().ResetProposal(f.ctx, domainagg.ProposalTransitionInput{ProjectID: f.project.ID, ProposalID: p.ID, ActorEmail: actor})
	}

	_, err := reset(memberA3)
	wantAggErr(t, "member reset", err, domainagg.CodeNotEligible, eligibility.ReasonLeaderOrStaffRequired)

	res, err := reset(teacher)
	if err != nil {
		t.Fatalf("teacher reset: %v", err)
	}
	if ranking.DeriveStatus(res.Proposal) != ranking.StatusReset {
		t.Fatalf("status: want=reset got=%s", ranking.DeriveStatus(res.Proposal))
	}
	if n := f.countRows(t, &ranking.ProposalVote{}, "proposal_id = ?", p.ID); n != 0 {
		t.Fatalf("votes after reset: want=0 got=%d", n)
	}

	// a reset proposal re-enters voting
	f.clock.Advance(time.Minute)
	vr, err := f.vote(t, p, memberA3, false)
	if err != nil {
		t.Fatalf("vote after reset: %v", err)
	}
	if vr.Tally.TotalVotes != 1 || vr.Tally.Status != ranking.StatusReset {
		t.Fatalf("tally after reset: got=%+v", vr.Tally)
	}

	_, err = reset(leaderA)
	wantAggErr(t, "reset twice", err, domainagg.CodeConflict, aggregates.ReasonProposalNotPending)
}

func TestTransitionReplayAfterSettlementIsRejected(t *testing.T) {
	f := newRankingFixture(t)
	p := f.mustSubmit(t, memberA2)
	in := domainagg.ProposalTransitionInput{ProjectID: f.project.ID, ProposalID: p.ID, ActorEmail: leaderA}

	if _, err := f.proposals().ResetProposal(f.ctx, in); err != nil {
		t.Fatalf("reset: %v", err)
	}
	f.settle(t, p)

	_, err := f.proposals().ResetProposal(f.ctx, in)
	wantAggErr(t, "reset replay on settled", err, domainagg.CodeConflict, aggregates.ReasonProposalSettled)
	_, err = f.proposals().WithdrawProposal(f.ctx, in)
	wantAggErr(t, "withdraw on settled", err, domainagg.CodeConflict, aggregates.ReasonProposalSettled)
}

func TestWithdrawReplayIsDeduped(t *testing.T) {
	f := newRankingFixture(t)
	p := f.mustSubmit(t, memberA2)
	in := domainagg.ProposalTransitionInput{ProjectID: f.project.ID, ProposalID: p.ID, ActorEmail: memberA2}

	if _, err := f.proposals().WithdrawProposal(f.ctx, in); err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	res, err := f.proposals().WithdrawProposal(f.ctx, in)
	if err != nil {
		t.Fatalf("withdraw replay: %v", err)
	}
	if !res.Deduped || ranking.DeriveStatus(res.Proposal) != ranking.StatusWithdrawn {
		t.Fatalf("withdraw replay: want deduped withdrawn got=%+v", res)
	}
}
