package aggregates_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/peerrank-backend/internal/data/aggregates"
	"github.com/yungbote/peerrank-backend/internal/data/aggregates/testutil"
	repotestutil "github.com/yungbote/peerrank-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/peerrank-backend/internal/domain/aggregates"
	"github.com/yungbote/peerrank-backend/internal/domain/ranking"
	"github.com/yungbote/peerrank-backend/internal/platform/dbctx"
)

type readOnlyLedgerRepo struct{}

func (readOnlyLedgerRepo) Insert(dbctx.Context, *ranking.ActionLedgerEntry) (bool, error) {
	return false, errors.New("ERROR: cannot execute INSERT in a read-only transaction")
}

type brokenLedgerRepo struct{ readOnlyLedgerRepo }

func (brokenLedgerRepo) Insert(dbctx.Context, *ranking.ActionLedgerEntry) (bool, error) {
	return false, errors.New("connection reset by peer")
}

func TestLedgerRecordDeduplicatesWithinBucket(t *testing.T) {
	f := newRankingFixture(t)
	hooks := &testutil.HooksRecorder{}
	l := aggregates.NewLedger(f.repos.Ledger, f.log, hooks, aggregates.LedgerConfig{Clock: f.clock})
	dbc := dbctx.Context{Ctx: f.ctx}
	entry := aggregates.LedgerEntry{
		DedupKey:   "proposal.vote:" + uuid.NewString(),
		ActorEmail: memberA2,
		ActionType: ranking.ActionVoteProposal,
		EntityID:   uuid.New(),
		Payload:    map[string]any{"agree": true},
	}

	first, err := l.Record(dbc, entry)
	if err != nil || !first.IsNew {
		t.Fatalf("first record: want new got=%+v err=%v", first, err)
	}
	f.clock.Advance(30 * time.Second)
	second, err := l.Record(dbc, entry)
	if err != nil {
		t.Fatalf("second record: %v", err)
	}
	if second.IsNew {
		t.Fatalf("second record in same bucket must be a replay")
	}
	if second.Bucket != first.Bucket {
		t.Fatalf("bucket: want=%d got=%d", first.Bucket, second.Bucket)
	}
	if got := hooks.ReplayCount(ranking.ActionVoteProposal); got != 1 {
		t.Fatalf("replay hook: want=1 got=%d", got)
	}

	f.clock.Advance(30 * time.Second)
	third, err := l.Record(dbc, entry)
	if err != nil || !third.IsNew {
		t.Fatalf("next bucket: want new got=%+v err=%v", third, err)
	}
	if third.Bucket != first.Bucket+1 {
		t.Fatalf("next bucket: want=%d got=%d", first.Bucket+1, third.Bucket)
	}

	var stored ranking.ActionLedgerEntry
	if err := f.db.Where("dedup_key = ? AND time_bucket = ?", entry.DedupKey, first.Bucket).First(&stored).Error; err != nil {
		t.Fatalf("stored entry: %v", err)
	}
	if stored.ActorEmail != memberA2 || stored.ActionType != ranking.ActionVoteProposal || len(stored.Payload) == 0 {
		t.Fatalf("stored entry is not an audit record: %+v", stored)
	}
}

func TestLedgerReadOnlyPolicies(t *testing.T) {
	log := repotestutil.Logger(t)
	dbc := dbctx.Context{Ctx: t.Context()}
	entry := aggregates.LedgerEntry{DedupKey: "proposal.vote:x", ActorEmail: memberA2, ActionType: ranking.ActionVoteProposal}

	reject := aggregates.NewLedger(readOnlyLedgerRepo{}, log, nil, aggregates.LedgerConfig{})
	if reject.Policy() != aggregates.ReadOnlyReject {
		t.Fatalf("default policy: want=%s got=%s", aggregates.ReadOnlyReject, reject.Policy())
	}
	_, err := reject.Record(dbc, entry)
	wantAggErr(t, "reject", err, domainagg.CodeRetryable, aggregates.ReasonMaintenanceMode)

	hooks := &testutil.HooksRecorder{}
	proceed := aggregates.NewLedger(readOnlyLedgerRepo{}, log, hooks, aggregates.LedgerConfig{ReadOnlyPolicy: aggregates.ReadOnlyProceed})
	res, err := proceed.Record(dbc, entry)
	if err != nil {
		t.Fatalf("proceed: %v", err)
	}
	if !res.IsNew || !res.Skipped {
		t.Fatalf("proceed: want IsNew and Skipped got=%+v", res)
	}
	if len(hooks.Skipped) != 1 || hooks.Skipped[0] != ranking.ActionVoteProposal {
		t.Fatalf("skipped hook: want=[%s] got=%v", ranking.ActionVoteProposal, hooks.Skipped)
	}

	broken := aggregates.NewLedger(brokenLedgerRepo{}, log, nil, aggregates.LedgerConfig{ReadOnlyPolicy: aggregates.ReadOnlyProceed})
	if _, err := broken.Record(dbc, entry); err == nil {
		t.Fatalf("other failures must propagate")
	}
}

func TestParseReadOnlyPolicy(t *testing.T) {
	if got := aggregates.ParseReadOnlyPolicy(" Proceed "); got != aggregates.ReadOnlyProceed {
		t.Fatalf("proceed: got=%s", got)
	}
	for _, in := range []string{"", "reject", "bogus"} {
		if got := aggregates.ParseReadOnlyPolicy(in); got != aggregates.ReadOnlyReject {
			t.Fatalf("%q: want=reject got=%s", in, got)
		}
	}
}

func TestFailedBusinessWriteRollsBackLedgerRow(t *testing.T) {
	f := newRankingFixture(t)
	p := f.mustSubmit(t, leaderA)

	commitErr := errors.New("commit failed")
	failing := aggregates.NewProposalAggregate(f.deps(&testutil.InjectedTxRunner{DB: f.db, FailCommit: commitErr}, aggregates.ReadOnlyReject))
	in := domainagg.VoteInput{ProjectID: f.project.ID, ProposalID: p.ID, ActorEmail: memberA2, Agree: true}
	if _, err := failing.VoteOnProposal(f.ctx, in); err == nil {
		t.Fatalf("expected injected commit failure")
	}
	if n := f.countRows(t, &ranking.ActionLedgerEntry{}, "actor_email = ? AND entity_id = ?", memberA2, p.ID); n != 0 {
		t.Fatalf("ledger rows after rollback: want=0 got=%d", n)
	}

	// the retry in the same bucket is processed, not treated as a replay
	res, err := f.proposals().VoteOnProposal(f.ctx, in)
	if err != nil {
		t.Fatalf("retry vote: %v", err)
	}
	if res.Deduped {
		t.Fatalf("retry after rollback must not be deduped")
	}
	if res.Tally.AgreeCount != 1 || res.Tally.TotalVotes != 1 {
		t.Fatalf("tally: want agree=1 total=1 got=%+v", res.Tally)
	}
}
