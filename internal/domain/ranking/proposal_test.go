package ranking

import (
	"testing"
	"time"
)

func TestDeriveStatusTimestampsWinOverCachedStatus(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name string
		p    RankingProposal
		want string
	}{
		{"fresh", RankingProposal{Status: StatusPending}, StatusPending},
		{"empty cached status", RankingProposal{}, StatusPending},
		{"settled", RankingProposal{SettledAt: &now, Status: StatusPending}, StatusSettled},
		{"settled beats rejected", RankingProposal{SettledAt: &now, Status: StatusRejected}, StatusSettled},
		{"withdrawn", RankingProposal{WithdrawnAt: &now}, StatusWithdrawn},
		{"reset", RankingProposal{ResetAt: &now}, StatusReset},
		{"withdrawn after reset", RankingProposal{ResetAt: &now, WithdrawnAt: &now}, StatusWithdrawn},
		{"rejected by settlement", RankingProposal{Status: StatusRejected}, StatusRejected},
	}
	for _, tc := range cases {
		p := tc.p
		if got := DeriveStatus(&p); got != tc.want {
			t.Fatalf("%s: want=%s got=%s", tc.name, tc.want, got)
		}
	}
}

func TestVotableAndTerminal(t *testing.T) {
	for _, s := range []string{StatusPending, StatusReset} {
		if !IsVotable(s) || IsTerminal(s) {
			t.Fatalf("%s: expected votable and non-terminal", s)
		}
	}
	for _, s := range []string{StatusSettled, StatusWithdrawn} {
		if IsVotable(s) || !IsTerminal(s) {
			t.Fatalf("%s: expected terminal", s)
		}
	}
	if IsVotable(StatusRejected) {
		t.Fatalf("rejected proposals do not take votes")
	}
}

func TestAgreeValueSigned(t *testing.T) {
	if AgreeValue(true) != 1 || AgreeValue(false) != -1 {
		t.Fatalf("agree encoding: want=+1/-1 got=%d/%d", AgreeValue(true), AgreeValue(false))
	}
}
