package aggregates

import (
	"context"

	"github.com/google/uuid"

	domainagg "github.com/yungbote/peerrank-backend/internal/domain/aggregates"
	"github.com/yungbote/peerrank-backend/internal/domain/ranking"
	"github.com/yungbote/peerrank-backend/internal/modules/ranking/eligibility"
	"github.com/yungbote/peerrank-backend/internal/modules/ranking/keys"
	"github.com/yungbote/peerrank-backend/internal/platform/dbctx"
)

type reviewerRankingAggregate struct {
	deps RankingDeps
}

func NewReviewerRankingAggregate(deps RankingDeps) domainagg.ReviewerRankingAggregate {
	return &reviewerRankingAggregate{deps: deps.withDefaults()}
}

func (a *reviewerRankingAggregate) Contract() domainagg.Contract {
	return domainagg.ReviewerRankingAggregateContract
}

// SubmitComprehensiveVote validates both channels before writing either, so a
// failure in one channel leaves no rows from the other.
func (a *reviewerRankingAggregate) SubmitComprehensiveVote(ctx context.Context, in domainagg.ComprehensiveVoteInput) (domainagg.ComprehensiveVoteResult, error) {
	const op = "Ranking.Reviewer.ComprehensiveVote"
	var out domainagg.ComprehensiveVoteResult
	if in.ProjectID == uuid.Nil || in.StageID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing project_id or stage_id", nil)
	}
	if len(in.SubmissionRankings) == 0 && len(in.CommentRankings) == 0 {
		return out, domainagg.NewReasonError(domainagg.CodeValidation, op, eligibility.ReasonRankingEmpty, "at least one ranking channel is required")
	}
	r := a.deps.Repos

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		actor, err := ResolveActor(dbc, r, in.ProjectID, in.ReviewerEmail, true)
		if err != nil {
			return err
		}
		if d := eligibility.Authorize(eligibility.OpComprehensiveVote, actor, eligibility.Scope{}); !d.Allowed {
			return DecisionError(op, d)
		}
		proj, err := loadProject(dbc, a.deps, op, in.ProjectID)
		if err != nil {
			return err
		}
		if len(in.SubmissionRankings) > 0 {
			if d := eligibility.ValidateRanking(in.SubmissionRankings, a.deps.Slots.Submissions()); !d.Allowed {
				return DecisionError(op, d)
			}
		}
		if len(in.CommentRankings) > 0 {
			items := ranking.CommentItemsToRankItems(in.CommentRankings)
			if d := eligibility.ValidateRanking(items, a.deps.Slots.CommentSlots(proj)); !d.Allowed {
				return DecisionError(op, d)
			}
		}

		rec, err := a.deps.Ledger.Record(dbc, LedgerEntry{
			DedupKey:   keys.ComprehensiveVoteKey(in.ProjectID, in.StageID, actor.Email),
			ActorEmail: actor.Email,
			ActionType: ranking.ActionComprehensiveVote,
			EntityID:   in.StageID,
			Payload:    in,
		})
		if err != nil {
			return err
		}
		if !rec.IsNew {
			counts, err := r.ReviewerRanks.Counts(dbc, in.StageID, actor.Email)
			if err != nil {
				return err
			}
			out.SubmissionCount = counts.Submissions
			out.CommentCount = counts.Comments
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

		subFacts, err := loadSubmissionFacts(dbc, r, in.ProjectID, in.StageID, in.SubmissionRankings)
		if err != nil {
			return err
		}
		for _, f := range subFacts {
			if d := eligibility.CheckSubmission(f, nil); !d.Allowed {
				return DecisionError(op, d)
			}
		}
		commentFacts, err := loadCommentFacts(dbc, r, in.ProjectID, in.StageID, in.CommentRankings)
		if err != nil {
			return err
		}
		for _, f := range commentFacts {
			if d := eligibility.CheckComment(f, actor.Email); !d.Allowed {
				return DecisionError(op, d)
			}
		}
		if d := eligibility.CheckAuthorUniqueness(commentFacts); !d.Allowed {
			return DecisionError(op, d)
		}

		eventID := uuid.New()
		now := a.deps.Base.now()
		subRows := make([]*ranking.ReviewerSubmissionRanking, 0, len(in.SubmissionRankings))
		for _, it := range in.SubmissionRankings {
			subRows = append(subRows, &ranking.ReviewerSubmissionRanking{
				ID:            uuid.New(),
				ProjectID:     in.ProjectID,
				StageID:       in.StageID,
				ReviewerEmail: actor.Email,
				SubmissionID:  it.TargetID,
				Rank:          it.Rank,
				EventID:       eventID,
				CreatedAt:     now,
			})
		}
		commentRows := make([]*ranking.ReviewerCommentRanking, 0, len(in.CommentRankings))
		for _, it := range in.CommentRankings {
			commentRows = append(commentRows, &ranking.ReviewerCommentRanking{
				ID:            uuid.New(),
				ProjectID:     in.ProjectID,
				StageID:       in.StageID,
				ReviewerEmail: actor.Email,
				CommentID:     it.CommentID,
				Rank:          it.Rank,
				EventID:       eventID,
				CreatedAt:     now,
			})
		}
		if err := r.ReviewerRanks.AppendSubmissionRankings(dbc, subRows); err != nil {
			return err
		}
		if err := r.ReviewerRanks.AppendCommentRankings(dbc, commentRows); err != nil {
			return err
		}
		out.EventID = eventID
		out.SubmissionCount = int64(len(subRows))
		out.CommentCount = int64(len(commentRows))
		return nil
	})
	return out, err
}
