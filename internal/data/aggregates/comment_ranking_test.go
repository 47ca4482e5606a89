package aggregates_test

import (
	"testing"
	"time"

	repotestutil "github.com/yungbote/peerrank-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/peerrank-backend/internal/domain/aggregates"
	"github.com/yungbote/peerrank-backend/internal/domain/project"
	"github.com/yungbote/peerrank-backend/internal/domain/ranking"
	"github.com/yungbote/peerrank-backend/internal/modules/ranking/eligibility"
)

type commentSet struct {
	byLeaderB     *project.Comment
	byMemberA2    *project.Comment
	byLeaderA     *project.Comment
	noHelpful     *project.Comment
	secondLeaderB *project.Comment
	reply         *project.Comment
	byTeacher     *project.Comment
}

func seedComments(t *testing.T, f *rankingFixture) commentSet {
	t.Helper()
	seed := func(author string, helpfulFrom ...string) *project.Comment {
		c := repotestutil.SeedComment(t, f.ctx, f.db, f.project.ID, f.stage.ID, author)
		for _, r := range helpfulFrom {
			repotestutil.SeedHelpful(t, f.ctx, f.db, c.ID, r)
		}
		return c
	}
	cs := commentSet{
		byLeaderB:     seed(leaderB, memberA2),
		byMemberA2:    seed(memberA2, leaderB),
		byLeaderA:     seed(leaderA, memberA3),
		noHelpful:     seed(memberA3, memberA3),
		secondLeaderB: seed(leaderB, leaderA),
		byTeacher:     seed(teacher, leaderA),
	}
	cs.reply = repotestutil.SeedReply(t, f.ctx, f.db, cs.byLeaderB, memberA3)
	return cs
}

// otherStageArtifacts are eligible-looking targets that belong to a second
// stage of the fixture project.
type otherStageArtifacts struct {
	stage   *project.Stage
	sub     *project.Submission
	comment *project.Comment
}

func seedOtherStage(t *testing.T, f *rankingFixture) otherStageArtifacts {
	t.Helper()
	st := seedStage(t, f, project.StageStatusActive)
	c := repotestutil.SeedComment(t, f.ctx, f.db, f.project.ID, st.ID, leaderB)
	repotestutil.SeedHelpful(t, f.ctx, f.db, c.ID, memberA2)
	return otherStageArtifacts{
		stage:   st,
		sub:     repotestutil.SeedSubmission(t, f.ctx, f.db, f.project.ID, st.ID, f.groupB.ID, project.SubmissionStatusApproved),
		comment: c,
	}
}

func (f *rankingFixture) rankComments(actor string, items ...ranking.CommentRankItem) (domainagg.CommentRankingResult, error) {
	return f.commentRankings().SubmitCommentRanking(f.ctx, domainagg.CommentRankingInput{
		ProjectID:  f.project.ID,
		StageID:    f.stage.ID,
		ActorEmail: actor,
		Rankings:   items,
	})
}

func TestCommentRankingEligibility(t *testing.T) {
	f := newRankingFixture(t)
	cs := seedComments(t, f)
	item := func(c *project.Comment, rank int) ranking.CommentRankItem {
		return ranking.CommentRankItem{CommentID: c.ID, Rank: rank}
	}

	cases := []struct {
		name   string
		actor  string
		items  []ranking.CommentRankItem
		code   domainagg.ErrorCode
		reason string
	}{
		{"own comment", leaderA, []ranking.CommentRankItem{item(cs.byLeaderA, 1)}, domainagg.CodeNotEligible, eligibility.ReasonOwnComment},
		{"self reaction only", leaderA, []ranking.CommentRankItem{item(cs.noHelpful, 1)}, domainagg.CodeNotEligible, eligibility.ReasonInsufficientHelpful},
		{"reply", leaderA, []ranking.CommentRankItem{item(cs.reply, 1)}, domainagg.CodeNotEligible, eligibility.ReasonCommentIsReply},
		{"staff author", leaderA, []ranking.CommentRankItem{item(cs.byTeacher, 1)}, domainagg.CodeNotEligible, eligibility.ReasonAuthorNotMember},
		{"same author twice", leaderA, []ranking.CommentRankItem{item(cs.byLeaderB, 1), item(cs.secondLeaderB, 2)}, domainagg.CodeNotEligible, eligibility.ReasonDuplicateAuthor},
		{"rank gap", leaderA, []ranking.CommentRankItem{item(cs.byLeaderB, 1), item(cs.byMemberA2, 3)}, domainagg.CodeValidation, eligibility.ReasonRankNotContiguous},
		{"duplicate rank", leaderA, []ranking.CommentRankItem{item(cs.byLeaderB, 1), item(cs.byMemberA2, 1)}, domainagg.CodeValidation, eligibility.ReasonDuplicateRank},
		{"staff actor", teacher, []ranking.CommentRankItem{item(cs.byLeaderB, 1)}, domainagg.CodeNotEligible, eligibility.ReasonNotGroupMember},
	}
	for _, tc := range cases {
		_, err := f.rankComments(tc.actor, tc.items...)
		wantAggErr(t, tc.name, err, tc.code, tc.reason)
	}
	if n := f.countRows(t, &ranking.CommentRankingProposal{}, "stage_id = ?", f.stage.ID); n != 0 {
		t.Fatalf("rejected rankings must not be stored, got=%d", n)
	}
}

func TestCommentRankingHistoryAppendsVersions(t *testing.T) {
	f := newRankingFixture(t)
	cs := seedComments(t, f)

	first, err := f.rankComments(leaderA,
		ranking.CommentRankItem{CommentID: cs.byMemberA2.ID, Rank: 2},
		ranking.CommentRankItem{CommentID: cs.byLeaderB.ID, Rank: 1},
	)
	if err != nil {
		t.Fatalf("first ranking: %v", err)
	}
	if first.Ranking.Version != 1 {
		t.Fatalf("first version: want=1 got=%d", first.Ranking.Version)
	}
	items, err := first.Ranking.Items()
	if err != nil || len(items) != 2 || items[0].CommentID != cs.byLeaderB.ID {
		t.Fatalf("stored order: want rank 1 first got=%+v err=%v", items, err)
	}

	replay, err := f.rankComments(leaderA, ranking.CommentRankItem{CommentID: cs.byLeaderB.ID, Rank: 1})
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if !replay.Deduped || replay.Ranking.ID != first.Ranking.ID {
		t.Fatalf("replay: want deduped latest got=%+v", replay)
	}

	f.clock.Advance(time.Minute)
	second, err := f.rankComments(leaderA, ranking.CommentRankItem{CommentID: cs.byMemberA2.ID, Rank: 1})
	if err != nil {
		t.Fatalf("second ranking: %v", err)
	}
	if second.Deduped || second.Ranking.Version != 2 {
		t.Fatalf("second: want version 2 got=%+v", second)
	}

	history, err := f.repos.CommentRankings.History(dbcOf(f), f.stage.ID, leaderA)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].Version != 1 || history[1].Version != 2 {
		t.Fatalf("history: want versions [1 2] got=%d rows", len(history))
	}
}

func TestCommentRankingSlotsFollowProject(t *testing.T) {
	f := newRankingFixture(t)
	cs := seedComments(t, f)
	if err := f.db.Model(&project.Project{}).Where("id = ?", f.project.ID).Update("comment_ranking_slots", 1).Error; err != nil {
		t.Fatalf("set slots: %v", err)
	}
	_, err := f.rankComments(leaderA,
		ranking.CommentRankItem{CommentID: cs.byLeaderB.ID, Rank: 1},
		ranking.CommentRankItem{CommentID: cs.byMemberA2.ID, Rank: 2},
	)
	wantAggErr(t, "over project slots", err, domainagg.CodeValidation, eligibility.ReasonTooManyItems)
}

func TestCommentRankingTargetsStayInStage(t *testing.T) {
	f := newRankingFixture(t)
	cs := seedComments(t, f)
	offStage := seedOtherStage(t, f)

	_, err := f.rankComments(leaderA, ranking.CommentRankItem{CommentID: offStage.comment.ID, Rank: 1})
	wantAggErr(t, "comment from another stage", err, domainagg.CodeNotFound, eligibility.ReasonCommentNotFound)

	// helpful reactions from outside the project do not qualify a comment
	stranger := repotestutil.SeedComment(t, f.ctx, f.db, f.project.ID, f.stage.ID, memberA2)
	repotestutil.SeedHelpful(t, f.ctx, f.db, stranger.ID, outsider)
	_, err = f.rankComments(leaderB, ranking.CommentRankItem{CommentID: stranger.ID, Rank: 1})
	wantAggErr(t, "outsider reaction only", err, domainagg.CodeNotEligible, eligibility.ReasonInsufficientHelpful)

	if _, err := f.rankComments(leaderA, ranking.CommentRankItem{CommentID: cs.byLeaderB.ID, Rank: 1}); err != nil {
		t.Fatalf("in-stage ranking: %v", err)
	}
}
