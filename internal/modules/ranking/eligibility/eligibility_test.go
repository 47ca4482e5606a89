package eligibility

import (
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/peerrank-backend/internal/domain/project"
	"github.com/yungbote/peerrank-backend/internal/domain/ranking"
)

func commentItems(ranks ...int) []ranking.CommentRankItem {
	out := make([]ranking.CommentRankItem, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, ranking.CommentRankItem{CommentID: uuid.New(), Rank: r})
	}
	return out
}

func TestValidateCommentRankingContiguity(t *testing.T) {
	cases := []struct {
		name   string
		items  []ranking.CommentRankItem
		ok     bool
		reason string
	}{
		{"duplicate rank", commentItems(1, 1, 2), false, ReasonDuplicateRank},
		{"gap", commentItems(1, 3), false, ReasonRankNotContiguous},
		{"full", commentItems(1, 2, 3), true, ""},
		{"partial from one", commentItems(2, 1), true, ""},
		{"single not one", commentItems(2), false, ReasonRankNotContiguous},
		{"empty", nil, false, ReasonRankingEmpty},
		{"too many", commentItems(1, 2, 3, 4), false, ReasonTooManyItems},
	}
	for _, tc := range cases {
		d := ValidateCommentRanking(tc.items, 3)
		if d.Allowed != tc.ok {
			t.Fatalf("%s: allowed want=%v got=%v (%s)", tc.name, tc.ok, d.Allowed, d.Reason)
		}
		if !tc.ok && d.Reason != tc.reason {
			t.Fatalf("%s: reason want=%s got=%s", tc.name, tc.reason, d.Reason)
		}
		if !tc.ok && d.Kind != KindInvalidShape {
			t.Fatalf("%s: kind want=%s got=%s", tc.name, KindInvalidShape, d.Kind)
		}
	}
}

func TestValidateRanking(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	if d := ValidateRanking([]ranking.RankItem{{TargetID: a, Rank: 1}, {TargetID: b, Rank: 3}}, 3); !d.Allowed {
		t.Fatalf("gaps are allowed for submission rankings: %+v", d)
	}
	if d := ValidateRanking([]ranking.RankItem{{TargetID: a, Rank: 1}, {TargetID: a, Rank: 2}}, 3); d.Reason != ReasonDuplicateTarget {
		t.Fatalf("duplicate target: want=%s got=%s", ReasonDuplicateTarget, d.Reason)
	}
	if d := ValidateRanking([]ranking.RankItem{{TargetID: a, Rank: 0}}, 3); d.Reason != ReasonRankOutOfRange {
		t.Fatalf("rank zero: want=%s got=%s", ReasonRankOutOfRange, d.Reason)
	}
	if d := ValidateRanking([]ranking.RankItem{{TargetID: a, Rank: 5}}, 5); !d.Allowed {
		t.Fatalf("rank within a wider slot count should pass: %+v", d)
	}
	if d := ValidateRanking([]ranking.RankItem{{TargetID: uuid.Nil, Rank: 1}}, 3); d.Reason != ReasonInvalidTarget {
		t.Fatalf("nil target: want=%s got=%s", ReasonInvalidTarget, d.Reason)
	}
}

func eligibleComment(author string) CommentFacts {
	return CommentFacts{
		ID:                 uuid.New(),
		Exists:             true,
		AuthorEmail:        author,
		MentionCount:       1,
		AuthorActiveMember: true,
		HelpfulFromOthers:  1,
	}
}

func TestCheckCommentQualityGate(t *testing.T) {
	c := eligibleComment("author@example.com")
	c.HelpfulFromOthers = 0
	d := CheckComment(c, "voter@example.com")
	if d.Allowed || d.Reason != ReasonInsufficientHelpful {
		t.Fatalf("zero helpful: want reason=%s got=%+v", ReasonInsufficientHelpful, d)
	}
	c.HelpfulFromOthers = 1
	if d := CheckComment(c, "voter@example.com"); !d.Allowed {
		t.Fatalf("one helpful reaction should pass: %+v", d)
	}
}

func TestCheckCommentRules(t *testing.T) {
	base := eligibleComment("author@example.com")

	reply := base
	reply.IsReply = true
	noMention := base
	noMention.MentionCount = 0
	outsider := base
	outsider.AuthorActiveMember = false
	missing := base
	missing.Exists = false

	cases := []struct {
		name    string
		facts   CommentFacts
		exclude string
		reason  string
		kind    Kind
	}{
		{"reply", reply, "", ReasonCommentIsReply, KindNotEligible},
		{"no mentions", noMention, "", ReasonCommentNoMentions, KindNotEligible},
		{"non member author", outsider, "", ReasonAuthorNotMember, KindNotEligible},
		{"missing", missing, "", ReasonCommentNotFound, KindNotFound},
		{"own comment", base, " Author@Example.com", ReasonOwnComment, KindNotEligible},
	}
	for _, tc := range cases {
		d := CheckComment(tc.facts, tc.exclude)
		if d.Allowed || d.Reason != tc.reason || d.Kind != tc.kind {
			t.Fatalf("%s: want=%s/%s got=%+v", tc.name, tc.kind, tc.reason, d)
		}
	}
}

func TestCheckAuthorUniqueness(t *testing.T) {
	batch := []CommentFacts{eligibleComment("a@example.com"), eligibleComment("b@example.com")}
	if d := CheckAuthorUniqueness(batch); !d.Allowed {
		t.Fatalf("distinct authors should pass: %+v", d)
	}
	batch = append(batch, eligibleComment("A@example.com"))
	if d := CheckAuthorUniqueness(batch); d.Reason != ReasonDuplicateAuthor {
		t.Fatalf("same author twice: want=%s got=%+v", ReasonDuplicateAuthor, d)
	}
}

func TestCheckSubmission(t *testing.T) {
	own := uuid.New()
	other := uuid.New()
	approved := SubmissionFacts{ID: uuid.New(), Exists: true, Status: project.SubmissionStatusApproved, GroupID: other}

	if d := CheckSubmission(approved, &own); !d.Allowed {
		t.Fatalf("other group's approved submission should pass: %+v", d)
	}
	mine := approved
	mine.GroupID = own
	if d := CheckSubmission(mine, &own); d.Reason != ReasonOwnGroupSubmission {
		t.Fatalf("own group: want=%s got=%+v", ReasonOwnGroupSubmission, d)
	}
	if d := CheckSubmission(mine, nil); !d.Allowed {
		t.Fatalf("reviewers rank any group: %+v", d)
	}
	pending := approved
	pending.Status = project.SubmissionStatusPending
	if d := CheckSubmission(pending, nil); d.Reason != ReasonSubmissionNotApproved {
		t.Fatalf("pending: want=%s got=%+v", ReasonSubmissionNotApproved, d)
	}
	if d := CheckSubmission(SubmissionFacts{ID: uuid.New()}, nil); d.Kind != KindNotFound {
		t.Fatalf("missing: want kind=%s got=%+v", KindNotFound, d)
	}
}

func TestSelfVoteRules(t *testing.T) {
	group := uuid.New()
	member := Actor{Email: "m1@example.com", Role: RoleMember, GroupID: &group}

	// members vote on their own group's proposal, including the proposer
	if d := Authorize(OpVoteOnProposal, member, Scope{GroupID: &group, ProposerEmail: member.Email}); !d.Allowed {
		t.Fatalf("proposer should be allowed to vote: %+v", d)
	}
	// a peer cannot rank their own comment
	if d := CheckComment(eligibleComment(member.Email), member.Email); d.Reason != ReasonOwnComment {
		t.Fatalf("peer own comment: want=%s got=%+v", ReasonOwnComment, d)
	}
	// a teacher ranks any group's submission but not their own comment
	teacher := Actor{Email: "t@example.com", Role: RoleTeacher}
	if d := Authorize(OpComprehensiveVote, teacher, Scope{}); !d.Allowed {
		t.Fatalf("teacher comprehensive vote: %+v", d)
	}
	sub := SubmissionFacts{ID: uuid.New(), Exists: true, Status: project.SubmissionStatusApproved, GroupID: group}
	if d := CheckSubmission(sub, nil); !d.Allowed {
		t.Fatalf("teacher submission ranking: %+v", d)
	}
	if d := CheckComment(eligibleComment(teacher.Email), teacher.Email); d.Reason != ReasonOwnComment {
		t.Fatalf("teacher own comment: want=%s got=%+v", ReasonOwnComment, d)
	}
}

func TestAuthorize(t *testing.T) {
	g1, g2 := uuid.New(), uuid.New()
	member := Actor{Email: "m@example.com", Role: RoleMember, GroupID: &g1}
	leader := Actor{Email: "l@example.com", Role: RoleLeader, GroupID: &g1}
	outsider := Actor{Email: "o@example.com", Role: RoleMember, GroupID: &g2}
	admin := Actor{Email: "a@example.com", Role: RoleAdmin}
	nobody := Actor{Email: "n@example.com"}

	cases := []struct {
		name   string
		op     Operation
		actor  Actor
		scope  Scope
		reason string
	}{
		{"member submits", OpSubmitProposal, member, Scope{}, ""},
		{"non member submits", OpSubmitProposal, nobody, Scope{}, ReasonNotGroupMember},
		{"staff submits proposal", OpSubmitProposal, admin, Scope{}, ReasonNotGroupMember},
		{"outsider votes", OpVoteOnProposal, outsider, Scope{GroupID: &g1}, ReasonNotGroupMember},
		{"proposer withdraws", OpWithdrawProposal, member, Scope{GroupID: &g1, ProposerEmail: "M@example.com"}, ""},
		{"leader withdraws", OpWithdrawProposal, leader, Scope{GroupID: &g1, ProposerEmail: "m@example.com"}, ""},
		{"other member withdraws", OpWithdrawProposal, member, Scope{GroupID: &g1, ProposerEmail: "x@example.com"}, ReasonNotProposerOrLeader},
		{"member resets", OpResetProposal, member, Scope{GroupID: &g1}, ReasonLeaderOrStaffRequired},
		{"leader resets", OpResetProposal, leader, Scope{GroupID: &g1}, ""},
		{"admin resets", OpResetProposal, admin, Scope{GroupID: &g1}, ""},
		{"member comprehensive", OpComprehensiveVote, member, Scope{}, ReasonReviewerRequired},
		{"member views proposals", OpViewProposals, member, Scope{}, ""},
		{"admin views proposals", OpViewProposals, admin, Scope{}, ""},
		{"outsider views proposals", OpViewProposals, nobody, Scope{}, ReasonNotParticipant},
	}
	for _, tc := range cases {
		d := Authorize(tc.op, tc.actor, tc.scope)
		if tc.reason == "" {
			if !d.Allowed {
				t.Fatalf("%s: expected allowed got=%+v", tc.name, d)
			}
			continue
		}
		if d.Allowed || d.Reason != tc.reason {
			t.Fatalf("%s: want reason=%s got=%+v", tc.name, tc.reason, d)
		}
	}
}

func TestCheckStageOpen(t *testing.T) {
	if d := CheckStageOpen(nil); d.Kind != KindNotFound {
		t.Fatalf("nil stage: want kind=%s got=%+v", KindNotFound, d)
	}
	for _, st := range []string{project.StageStatusActive, project.StageStatusVoting} {
		if d := CheckStageOpen(&project.Stage{Status: st}); !d.Allowed {
			t.Fatalf("%s stage should accept rankings", st)
		}
	}
	if d := CheckStageOpen(&project.Stage{Status: project.StageStatusClosed}); d.Reason != ReasonStageNotOpen {
		t.Fatalf("closed: want=%s got=%+v", ReasonStageNotOpen, d)
	}
}
