package aggregates

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	domainagg "github.com/yungbote/peerrank-backend/internal/domain/aggregates"
	"github.com/yungbote/peerrank-backend/internal/domain/project"
	"github.com/yungbote/peerrank-backend/internal/domain/ranking"
	"github.com/yungbote/peerrank-backend/internal/modules/ranking/eligibility"
	"github.com/yungbote/peerrank-backend/internal/modules/ranking/keys"
	"github.com/yungbote/peerrank-backend/internal/platform/dbctx"
)

type commentRankingAggregate struct {
	deps RankingDeps
}

func NewCommentRankingAggregate(deps RankingDeps) domainagg.CommentRankingAggregate {
	return &commentRankingAggregate{deps: deps.withDefaults()}
}

func (a *commentRankingAggregate) Contract() domainagg.Contract {
	return domainagg.CommentRankingAggregateContract
}

func (a *commentRankingAggregate) SubmitCommentRanking(ctx context.Context, in domainagg.CommentRankingInput) (domainagg.CommentRankingResult, error) {
	const op = "Ranking.CommentRanking.Submit"
	var out domainagg.CommentRankingResult
	if in.ProjectID == uuid.Nil || in.StageID == uuid.Nil {
		return out, domainagg.NewError(domainagg.CodeValidation, op, "missing project_id or stage_id", nil)
	}
	r := a.deps.Repos

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		actor, err := ResolveActor(dbc, r, in.ProjectID, in.ActorEmail, false)
		if err != nil {
			return err
		}
		if d := eligibility.Authorize(eligibility.OpSubmitCommentRanking, actor, eligibility.Scope{}); !d.Allowed {
			return DecisionError(op, d)
		}
		proj, err := loadProject(dbc, a.deps, op, in.ProjectID)
		if err != nil {
			return err
		}
		if d := eligibility.ValidateCommentRanking(in.Rankings, a.deps.Slots.CommentSlots(proj)); !d.Allowed {
			return DecisionError(op, d)
		}

		rec, err := a.deps.Ledger.Record(dbc, LedgerEntry{
			DedupKey:   keys.CommentRankingKey(in.ProjectID, in.StageID, actor.Email),
			ActorEmail: actor.Email,
			ActionType: ranking.ActionCommentRanking,
			EntityID:   in.StageID,
			Payload:    in,
		})
		if err != nil {
			return err
		}
		if !rec.IsNew {
			latest, err := r.CommentRankings.Latest(dbc, in.StageID, actor.Email)
			if err != nil {
				return err
			}
			if latest == nil {
				return domainagg.NewReasonError(domainagg.CodeConflict, op, ReasonReplayWithoutResult, "duplicate request has no recorded ranking")
			}
			out.Ranking = latest
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

		facts, err := loadCommentFacts(dbc, r, in.ProjectID, in.StageID, in.Rankings)
		if err != nil {
			return err
		}
		for _, f := range facts {
			if d := eligibility.CheckComment(f, actor.Email); !d.Allowed {
				return DecisionError(op, d)
			}
		}
		if d := eligibility.CheckAuthorUniqueness(facts); !d.Allowed {
			return DecisionError(op, d)
		}

		body, err := encodeCommentItems(in.Rankings)
		if err != nil {
			return err
		}
		row := &ranking.CommentRankingProposal{
			ID:          uuid.New(),
			ProjectID:   in.ProjectID,
			StageID:     in.StageID,
			AuthorEmail: actor.Email,
			Rankings:    body,
			CreatedAt:   a.deps.Base.now(),
		}
		if err := r.CommentRankings.Append(dbc, row); err != nil {
			if IsUniqueViolation(err) {
				return RetryableError("concurrent comment ranking for the same author")
			}
			return err
		}
		out.Ranking = row
		return nil
	})
	return out, err
}

func loadProject(dbc dbctx.Context, deps RankingDeps, op string, projectID uuid.UUID) (*project.Project, error) {
	p, err := deps.Repos.Projects.GetByID(dbc, projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domainagg.NewReasonError(domainagg.CodeNotFound, op, ReasonProjectNotFound, "project "+projectID.String()+" not found")
	}
	return p, nil
}

func encodeCommentItems(items []ranking.CommentRankItem) (datatypes.JSON, error) {
	sorted := append([]ranking.CommentRankItem(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Rank < sorted[j].Rank })
	b, err := json.Marshal(sorted)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(b), nil
}
