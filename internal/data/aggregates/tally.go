package aggregates

import (
	"strings"

	"github.com/yungbote/peerrank-backend/internal/data/repos"
	"github.com/yungbote/peerrank-backend/internal/domain/ranking"
	"github.com/yungbote/peerrank-backend/internal/platform/dbctx"
)

// BuildTally combines live vote counts with the group size. Counts always
// come from proposal_vote rows; nothing is incremented in place.
func BuildTally(p *ranking.RankingProposal, c repos.VoteCounts, eligible int64) ranking.Tally {
	t := ranking.Tally{
		AgreeCount:           c.Agree,
		DisagreeCount:        c.Disagree,
		TotalVotes:           c.Total,
		TotalEligibleMembers: eligible,
		NetScore:             c.Net,
	}
	if p != nil {
		t.ProposalID = p.ID
		t.Status = ranking.DeriveStatus(p)
	}
	return t
}

// LoadTally recomputes the tally of p inside dbc.
func LoadTally(dbc dbctx.Context, r repos.Set, p *ranking.RankingProposal) (ranking.Tally, error) {
	counts, err := r.Votes.Counts(dbc, p.ID)
	if err != nil {
		return ranking.Tally{}, err
	}
	eligible, err := r.Memberships.CountActiveInGroup(dbc, p.GroupID)
	if err != nil {
		return ranking.Tally{}, err
	}
	return BuildTally(p, counts, eligible), nil
}

func normEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
