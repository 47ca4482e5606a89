package aggregates

import (
	"github.com/google/uuid"

	"github.com/yungbote/peerrank-backend/internal/data/repos"
	"github.com/yungbote/peerrank-backend/internal/domain/ranking"
	"github.com/yungbote/peerrank-backend/internal/modules/ranking/eligibility"
	"github.com/yungbote/peerrank-backend/internal/platform/dbctx"
)

// loadSubmissionFacts reads the ranked submissions of one stage. Targets from
// other stages come back as missing.
func loadSubmissionFacts(dbc dbctx.Context, r repos.Set, projectID, stageID uuid.UUID, items []ranking.RankItem) ([]eligibility.SubmissionFacts, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.TargetID)
	}
	rows, err := r.Submissions.GetByIDs(dbc, projectID, stageID, ids)
	if err != nil {
		return nil, err
	}
	out := make([]eligibility.SubmissionFacts, 0, len(ids))
	for _, id := range ids {
		f := eligibility.SubmissionFacts{ID: id}
		if s := rows[id]; s != nil {
			f.Exists = true
			f.Status = s.Status
			f.GroupID = s.GroupID
		}
		out = append(out, f)
	}
	return out, nil
}

func loadCommentFacts(dbc dbctx.Context, r repos.Set, projectID, stageID uuid.UUID, items []ranking.CommentRankItem) ([]eligibility.CommentFacts, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.CommentID)
	}
	rows, err := r.Comments.GetByIDs(dbc, projectID, stageID, ids)
	if err != nil {
		return nil, err
	}
	stats, err := r.Comments.Stats(dbc, ids)
	if err != nil {
		return nil, err
	}
	authors := make([]string, 0, len(rows))
	for _, c := range rows {
		authors = append(authors, c.AuthorEmail)
	}
	active, err := r.Memberships.ActiveEmails(dbc, projectID, authors)
	if err != nil {
		return nil, err
	}

	out := make([]eligibility.CommentFacts, 0, len(ids))
	for _, id := range ids {
		f := eligibility.CommentFacts{ID: id}
		if c := rows[id]; c != nil {
			st := stats[id]
			f.Exists = true
			f.AuthorEmail = c.AuthorEmail
			f.IsReply = c.IsReply()
			f.MentionCount = st.Mentions
			f.HelpfulFromOthers = st.HelpfulFromOthers
			f.AuthorActiveMember = active[normEmail(c.AuthorEmail)]
		}
		out = append(out, f)
	}
	return out, nil
}
