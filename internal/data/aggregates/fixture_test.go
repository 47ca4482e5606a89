package aggregates_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/peerrank-backend/internal/data/aggregates"
	"github.com/yungbote/peerrank-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/peerrank-backend/internal/data/repos"
	repotestutil "github.com/yungbote/peerrank-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/peerrank-backend/internal/domain/aggregates"
	"github.com/yungbote/peerrank-backend/internal/domain/project"
	"github.com/yungbote/peerrank-backend/internal/domain/ranking"
	"github.com/yungbote/peerrank-backend/internal/platform/dbctx"
	"github.com/yungbote/peerrank-backend/internal/platform/logger"
)

const (
	leaderA  = "leader@a.example.com"
	memberA2 = "m2@a.example.com"
	memberA3 = "m3@a.example.com"
	leaderB  = "leader@b.example.com"
	teacher  = "teacher@example.com"
	outsider = "nobody@example.com"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// rankingFixture is one project with two groups: A (three members, the
// actors under test) and B (whose approved submissions A ranks).
type rankingFixture struct {
	ctx   context.Context
	db    *gorm.DB
	log   *logger.Logger
	repos repos.Set
	hooks *testutil.HooksRecorder
	clock *fakeClock

	project *project.Project
	stage   *project.Stage
	groupA  *project.ProjectGroup
	groupB  *project.ProjectGroup

	subsB      []*project.Submission
	subA       *project.Submission
	subPending *project.Submission
}

func newRankingFixture(t *testing.T) *rankingFixture {
	t.Helper()
	ctx := context.Background()
	db := repotestutil.DB(t)
	f := &rankingFixture{
		ctx:   ctx,
		db:    db,
		log:   repotestutil.Logger(t),
		hooks: &testutil.HooksRecorder{},
		clock: &fakeClock{now: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)},
	}
	f.repos = repos.NewSet(db, f.log)

	f.project = repotestutil.SeedProject(t, ctx, db, 0)
	f.stage = repotestutil.SeedStage(t, ctx, db, f.project.ID, project.StageStatusActive)
	f.groupA = repotestutil.SeedGroup(t, ctx, db, f.project.ID)
	f.groupB = repotestutil.SeedGroup(t, ctx, db, f.project.ID)

	repotestutil.SeedMember(t, ctx, db, f.project.ID, f.groupA.ID, leaderA, project.MemberRoleLeader)
	repotestutil.SeedMember(t, ctx, db, f.project.ID, f.groupA.ID, memberA2, project.MemberRoleMember)
	repotestutil.SeedMember(t, ctx, db, f.project.ID, f.groupA.ID, memberA3, project.MemberRoleMember)
	repotestutil.SeedMember(t, ctx, db, f.project.ID, f.groupB.ID, leaderB, project.MemberRoleLeader)
	repotestutil.SeedStaff(t, ctx, db, f.project.ID, teacher, project.StaffRoleTeacher)

	for i := 0; i < 3; i++ {
		f.subsB = append(f.subsB, repotestutil.SeedSubmission(t, ctx, db, f.project.ID, f.stage.ID, f.groupB.ID, project.SubmissionStatusApproved))
	}
	f.subA = repotestutil.SeedSubmission(t, ctx, db, f.project.ID, f.stage.ID, f.groupA.ID, project.SubmissionStatusApproved)
	f.subPending = repotestutil.SeedSubmission(t, ctx, db, f.project.ID, f.stage.ID, f.groupB.ID, project.SubmissionStatusPending)
	return f
}

func (f *rankingFixture) deps(runner aggregates.TxRunner, policy aggregates.ReadOnlyPolicy) aggregates.RankingDeps {
	return aggregates.RankingDeps{
		Base: aggregates.BaseDeps{
			DB:     f.db,
			Log:    f.log,
			Runner: runner,
			Hooks:  f.hooks,
			Clock:  f.clock,
		},
		Repos: f.repos,
		Ledger: aggregates.NewLedger(f.repos.Ledger, f.log, f.hooks, aggregates.LedgerConfig{
			ReadOnlyPolicy: policy,
			Clock:          f.clock,
		}),
	}
}

func (f *rankingFixture) proposals() domainagg.ProposalAggregate {
	return aggregates.NewProposalAggregate(f.deps(nil, aggregates.ReadOnlyReject))
}

func (f *rankingFixture) commentRankings() domainagg.CommentRankingAggregate {
	return aggregates.NewCommentRankingAggregate(f.deps(nil, aggregates.ReadOnlyReject))
}

func (f *rankingFixture) reviewerRankings() domainagg.ReviewerRankingAggregate {
	return aggregates.NewReviewerRankingAggregate(f.deps(nil, aggregates.ReadOnlyReject))
}

func (f *rankingFixture) submit(t *testing.T, actor string, items ...ranking.RankItem) (domainagg.SubmitProposalResult, error) {
	t.Helper()
	return f.proposals().SubmitProposal(f.ctx, domainagg.SubmitProposalInput{
		ProjectID:  f.project.ID,
		StageID:    f.stage.ID,
		ActorEmail: actor,
		Rankings:   items,
	})
}

func (f *rankingFixture) mustSubmit(t *testing.T, actor string) *ranking.RankingProposal {
	t.Helper()
	res, err := f.submit(t, actor,
		ranking.RankItem{TargetID: f.subsB[0].ID, Rank: 1},
		ranking.RankItem{TargetID: f.subsB[1].ID, Rank: 2},
	)
	if err != nil {
		t.Fatalf("submit proposal: %v", err)
	}
	if res.Proposal == nil {
		t.Fatalf("submit proposal: nil proposal")
	}
	return res.Proposal
}

func (f *rankingFixture) vote(t *testing.T, p *ranking.RankingProposal, actor string, agree bool) (domainagg.VoteResult, error) {
	t.Helper()
	return f.proposals().VoteOnProposal(f.ctx, domainagg.VoteInput{
		ProjectID:  f.project.ID,
		ProposalID: p.ID,
		ActorEmail: actor,
		Agree:      agree,
	})
}

func (f *rankingFixture) settle(t *testing.T, p *ranking.RankingProposal) {
	t.Helper()
	if err := f.db.Model(&ranking.RankingProposal{}).Where("id = ?", p.ID).Update("settled_at", f.clock.Now()).Error; err != nil {
		t.Fatalf("settle: %v", err)
	}
}

func (f *rankingFixture) countRows(t *testing.T, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(model).Where(where, args...).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

func wantAggErr(t *testing.T, label string, err error, code domainagg.ErrorCode, reason string) {
	t.Helper()
	if err == nil {
		t.Fatalf("%s: expected %s/%s error, got nil", label, code, reason)
	}
	if !domainagg.IsCode(err, code) {
		t.Fatalf("%s: code want=%s got=%s (%v)", label, code, domainagg.CodeOf(err), err)
	}
	if reason != "" && domainagg.ReasonOf(err) != reason {
		t.Fatalf("%s: reason want=%s got=%s (%v)", label, reason, domainagg.ReasonOf(err), err)
	}
}

func (f *rankingFixture) submitOnStage(t *testing.T, stage *project.Stage) *ranking.RankingProposal {
	t.Helper()
	target := repotestutil.SeedSubmission(t, f.ctx, f.db, f.project.ID, stage.ID, f.groupB.ID, project.SubmissionStatusApproved)
	res, err := f.proposals().SubmitProposal(f.ctx, domainagg.SubmitProposalInput{
		ProjectID:  f.project.ID,
		StageID:    stage.ID,
		ActorEmail: leaderA,
		Rankings:   []ranking.RankItem{{TargetID: target.ID, Rank: 1}},
	})
	if err != nil {
		t.Fatalf("submit on stage %s: %v", stage.Status, err)
	}
	return res.Proposal
}

func seedStage(t *testing.T, f *rankingFixture, status string) *project.Stage {
	t.Helper()
	return repotestutil.SeedStage(t, f.ctx, f.db, f.project.ID, status)
}

func dbcOf(f *rankingFixture) dbctx.Context {
	return dbctx.Context{Ctx: f.ctx}
}

func newID() uuid.UUID { return uuid.New() }
