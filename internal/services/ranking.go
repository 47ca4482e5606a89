package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/peerrank-backend/internal/data/aggregates"
	"github.com/yungbote/peerrank-backend/internal/data/repos"
	domainagg "github.com/yungbote/peerrank-backend/internal/domain/aggregates"
	"github.com/yungbote/peerrank-backend/internal/domain/ranking"
	"github.com/yungbote/peerrank-backend/internal/modules/ranking/eligibility"
	"github.com/yungbote/peerrank-backend/internal/platform/dbctx"
	"github.com/yungbote/peerrank-backend/internal/platform/logger"
	"github.com/yungbote/peerrank-backend/internal/realtime"
	"github.com/yungbote/peerrank-backend/internal/requestdata"
)

// TallyReader backs the tally endpoint. The caller must be a participant.
type TallyReader interface {
	GetProposalTally(ctx context.Context, projectID, proposalID uuid.UUID) (ranking.Tally, error)
}

// SettlementTallyReader is the internal entry point for the settlement job.
// It reads a tally without a request actor.
type SettlementTallyReader interface {
	TallyForSettlement(ctx context.Context, projectID, proposalID uuid.UUID) (ranking.Tally, error)
}

type settlementTallyReader struct {
	repos repos.Set
}

func NewSettlementTallyReader(r repos.Set) SettlementTallyReader {
	return &settlementTallyReader{repos: r}
}

func (s *settlementTallyReader) TallyForSettlement(ctx context.Context, projectID, proposalID uuid.UUID) (ranking.Tally, error) {
	const op = "Ranking.Proposal.SettlementTally"
	if projectID == uuid.Nil || proposalID == uuid.Nil {
		return ranking.Tally{}, domainagg.NewError(domainagg.CodeValidation, op, "missing project_id or proposal_id", nil)
	}
	return readTally(dbctx.Context{Ctx: ctx}, s.repos, op, projectID, proposalID)
}

func readTally(dbc dbctx.Context, r repos.Set, op string, projectID, proposalID uuid.UUID) (ranking.Tally, error) {
	p, err := r.Proposals.GetByID(dbc, projectID, proposalID)
	if err != nil {
		return ranking.Tally{}, aggregates.MapError(op, err)
	}
	if p == nil {
		return ranking.Tally{}, domainagg.NewReasonError(domainagg.CodeNotFound, op, aggregates.ReasonProposalNotFound, "proposal not found")
	}
	tally, err := aggregates.LoadTally(dbc, r, p)
	if err != nil {
		return ranking.Tally{}, aggregates.MapError(op, err)
	}
	return tally, nil
}

// CommentRankingReader returns a participant's comment ranking versions,
// oldest first.
type CommentRankingReader interface {
	GetCommentRankingHistory(ctx context.Context, projectID, stageID uuid.UUID) ([]*ranking.CommentRankingProposal, error)
}

// RankingService is the caller-facing ranking API. The actor is always the
// authenticated caller in ctx.
type RankingService interface {
	TallyReader
	CommentRankingReader

	SubmitProposal(ctx context.Context, projectID, stageID uuid.UUID, items []ranking.RankItem) (domainagg.SubmitProposalResult, error)
	VoteOnProposal(ctx context.Context, projectID, proposalID uuid.UUID, agree bool, comment string) (domainagg.VoteResult, error)
	WithdrawProposal(ctx context.Context, projectID, proposalID uuid.UUID) (domainagg.ProposalTransitionResult, error)
	ResetProposal(ctx context.Context, projectID, proposalID uuid.UUID) (domainagg.ProposalTransitionResult, error)
	ListProposals(ctx context.Context, projectID, stageID uuid.UUID) ([]*ranking.ProposalView, error)

	SubmitCommentRanking(ctx context.Context, projectID, stageID uuid.UUID, items []ranking.CommentRankItem) (domainagg.CommentRankingResult, error)

	SubmitComprehensiveVote(ctx context.Context, projectID, stageID uuid.UUID, subs []ranking.RankItem, comments []ranking.CommentRankItem) (domainagg.ComprehensiveVoteResult, error)
	// ListReviewerRankings returns the current view for reviewerEmail, or for
	// the caller when reviewerEmail is empty. Staff only.
	ListReviewerRankings(ctx context.Context, projectID, stageID uuid.UUID, reviewerEmail string) (repos.ReviewerCurrentView, error)
}

type rankingService struct {
	log       *logger.Logger
	repos     repos.Set
	proposals domainagg.ProposalAggregate
	comments  domainagg.CommentRankingAggregate
	reviewers domainagg.ReviewerRankingAggregate
	notifier  RankingNotifier
}

type RankingServiceDeps struct {
	Log       *logger.Logger
	Repos     repos.Set
	Proposals domainagg.ProposalAggregate
	Comments  domainagg.CommentRankingAggregate
	Reviewers domainagg.ReviewerRankingAggregate
	Notifier  RankingNotifier
}

func NewRankingService(deps RankingServiceDeps) RankingService {
	return &rankingService{
		log:       deps.Log.With("service", "RankingService"),
		repos:     deps.Repos,
		proposals: deps.Proposals,
		comments:  deps.Comments,
		reviewers: deps.Reviewers,
		notifier:  deps.Notifier,
	}
}

func (s *rankingService) SubmitProposal(ctx context.Context, projectID, stageID uuid.UUID, items []ranking.RankItem) (domainagg.SubmitProposalResult, error) {
	actor := requestdata.ActorEmail(ctx)
	res, err := s.proposals.SubmitProposal(ctx, domainagg.SubmitProposalInput{
		ProjectID:  projectID,
		StageID:    stageID,
		ActorEmail: actor,
		Rankings:   items,
	})
	if err != nil {
		s.logRejected("submit proposal", err, "project_id", projectID, "stage_id", stageID, "actor_email", actor)
		return res, err
	}
	s.log.Info("Proposal submitted",
		"project_id", projectID,
		"proposal_id", res.Proposal.ID,
		"actor_email", actor,
		"deduped", res.Deduped,
	)
	if !res.Deduped {
		s.notify(RankingEvent{
			Type:      realtime.ProposalSubmitted,
			ProjectID: projectID,
			EntityID:  res.Proposal.ID,
			Actor:     actor,
			GroupIDs:  []uuid.UUID{res.Proposal.GroupID},
			Data:      map[string]any{"stage_id": stageID},
		})
	}
	return res, nil
}

func (s *rankingService) VoteOnProposal(ctx context.Context, projectID, proposalID uuid.UUID, agree bool, comment string) (domainagg.VoteResult, error) {
	actor := requestdata.ActorEmail(ctx)
	res, err := s.proposals.VoteOnProposal(ctx, domainagg.VoteInput{
		ProjectID:  projectID,
		ProposalID: proposalID,
		ActorEmail: actor,
		Agree:      agree,
		Comment:    comment,
	})
	if err != nil {
		s.logRejected("vote on proposal", err, "proposal_id", proposalID, "actor_email", actor)
		return res, err
	}
	s.log.Info("Proposal vote recorded",
		"proposal_id", proposalID,
		"actor_email", actor,
		"net_score", res.Tally.NetScore,
		"deduped", res.Deduped,
	)
	if !res.Deduped {
		p, err := s.repos.Proposals.GetByID(dbctx.Context{Ctx: ctx}, projectID, proposalID)
		if err != nil {
			s.log.Warn("Load proposal for notification failed", "proposal_id", proposalID, "error", err)
		} else if p != nil {
			s.notify(RankingEvent{
				Type:      realtime.ProposalVoted,
				ProjectID: projectID,
				EntityID:  proposalID,
				Actor:     actor,
				GroupIDs:  []uuid.UUID{p.GroupID},
				Data:      map[string]any{"tally": res.Tally},
			})
		}
	}
	return res, nil
}

func (s *rankingService) WithdrawProposal(ctx context.Context, projectID, proposalID uuid.UUID) (domainagg.ProposalTransitionResult, error) {
	actor := requestdata.ActorEmail(ctx)
	res, err := s.proposals.WithdrawProposal(ctx, domainagg.ProposalTransitionInput{
		ProjectID:  projectID,
		ProposalID: proposalID,
		ActorEmail: actor,
	})
	if err != nil {
		s.logRejected("withdraw proposal", err, "proposal_id", proposalID, "actor_email", actor)
		return res, err
	}
	s.log.Info("Proposal withdrawn", "proposal_id", proposalID, "actor_email", actor, "deduped", res.Deduped)
	if !res.Deduped {
		s.notifyTransition(realtime.ProposalWithdrawn, projectID, actor, res.Proposal)
	}
	return res, nil
}

func (s *rankingService) ResetProposal(ctx context.Context, projectID, proposalID uuid.UUID) (domainagg.ProposalTransitionResult, error) {
	actor := requestdata.ActorEmail(ctx)
	res, err := s.proposals.ResetProposal(ctx, domainagg.ProposalTransitionInput{
		ProjectID:  projectID,
		ProposalID: proposalID,
		ActorEmail: actor,
	})
	if err != nil {
		s.logRejected("reset proposal", err, "proposal_id", proposalID, "actor_email", actor)
		return res, err
	}
	s.log.Info("Proposal reset", "proposal_id", proposalID, "actor_email", actor, "deduped", res.Deduped)
	if !res.Deduped {
		s.notifyTransition(realtime.ProposalReset, projectID, actor, res.Proposal)
	}
	return res, nil
}

func (s *rankingService) ListProposals(ctx context.Context, projectID, stageID uuid.UUID) ([]*ranking.ProposalView, error) {
	const op = "Ranking.Proposal.List"
	dbc := dbctx.Context{Ctx: ctx}
	if err := s.authorizeRead(dbc, op, projectID, eligibility.OpViewProposals); err != nil {
		return nil, err
	}
	rows, err := s.repos.Proposals.ListByStage(dbc, projectID, stageID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	out := make([]*ranking.ProposalView, 0, len(rows))
	for _, p := range rows {
		out = append(out, ranking.NewProposalView(p))
	}
	return out, nil
}

func (s *rankingService) GetProposalTally(ctx context.Context, projectID, proposalID uuid.UUID) (ranking.Tally, error) {
	const op = "Ranking.Proposal.Tally"
	dbc := dbctx.Context{Ctx: ctx}
	if err := s.authorizeRead(dbc, op, projectID, eligibility.OpViewProposals); err != nil {
		return ranking.Tally{}, err
	}
	return readTally(dbc, s.repos, op, projectID, proposalID)
}

func (s *rankingService) SubmitCommentRanking(ctx context.Context, projectID, stageID uuid.UUID, items []ranking.CommentRankItem) (domainagg.CommentRankingResult, error) {
	actor := requestdata.ActorEmail(ctx)
	res, err := s.comments.SubmitCommentRanking(ctx, domainagg.CommentRankingInput{
		ProjectID:  projectID,
		StageID:    stageID,
		ActorEmail: actor,
		Rankings:   items,
	})
	if err != nil {
		s.logRejected("submit comment ranking", err, "stage_id", stageID, "actor_email", actor)
		return res, err
	}
	s.log.Info("Comment ranking submitted",
		"stage_id", stageID,
		"actor_email", actor,
		"version", res.Ranking.Version,
		"deduped", res.Deduped,
	)
	if !res.Deduped {
		m, err := s.repos.Memberships.GetActiveMember(dbctx.Context{Ctx: ctx}, projectID, actor)
		if err != nil {
			s.log.Warn("Load membership for notification failed", "actor_email", actor, "error", err)
		} else if m != nil {
			s.notify(RankingEvent{
				Type:      realtime.CommentRankingSubmitted,
				ProjectID: projectID,
				EntityID:  res.Ranking.ID,
				Actor:     actor,
				GroupIDs:  []uuid.UUID{m.GroupID},
				Data:      map[string]any{"stage_id": stageID, "version": res.Ranking.Version},
			})
		}
	}
	return res, nil
}

func (s *rankingService) GetCommentRankingHistory(ctx context.Context, projectID, stageID uuid.UUID) ([]*ranking.CommentRankingProposal, error) {
	const op = "Ranking.CommentRanking.History"
	dbc := dbctx.Context{Ctx: ctx}
	actor := requestdata.ActorEmail(ctx)
	if actor == "" {
		return nil, aggregates.MapError(op, aggregates.ValidationError("missing actor email"))
	}
	stage, err := s.repos.Stages.GetByID(dbc, projectID, stageID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if stage == nil {
		return nil, domainagg.NewReasonError(domainagg.CodeNotFound, op, eligibility.ReasonStageNotFound, "stage not found")
	}
	rows, err := s.repos.CommentRankings.History(dbc, stageID, actor)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return rows, nil
}

func (s *rankingService) SubmitComprehensiveVote(ctx context.Context, projectID, stageID uuid.UUID, subs []ranking.RankItem, comments []ranking.CommentRankItem) (domainagg.ComprehensiveVoteResult, error) {
	actor := requestdata.ActorEmail(ctx)
	res, err := s.reviewers.SubmitComprehensiveVote(ctx, domainagg.ComprehensiveVoteInput{
		ProjectID:          projectID,
		StageID:            stageID,
		ReviewerEmail:      actor,
		SubmissionRankings: subs,
		CommentRankings:    comments,
	})
	if err != nil {
		s.logRejected("comprehensive vote", err, "stage_id", stageID, "actor_email", actor)
		return res, err
	}
	s.log.Info("Comprehensive vote recorded",
		"stage_id", stageID,
		"actor_email", actor,
		"event_id", res.EventID,
		"submissions", res.SubmissionCount,
		"comments", res.CommentCount,
		"deduped", res.Deduped,
	)
	if !res.Deduped && len(subs) > 0 {
		groups, err := s.submissionGroups(dbctx.Context{Ctx: ctx}, projectID, stageID, subs)
		if err != nil {
			s.log.Warn("Load submission groups for notification failed", "stage_id", stageID, "error", err)
		} else {
			s.notify(RankingEvent{
				Type:      realtime.ReviewerVoteSubmitted,
				ProjectID: projectID,
				EntityID:  res.EventID,
				Actor:     actor,
				GroupIDs:  groups,
				Data:      map[string]any{"stage_id": stageID},
			})
		}
	}
	return res, nil
}

func (s *rankingService) ListReviewerRankings(ctx context.Context, projectID, stageID uuid.UUID, reviewerEmail string) (repos.ReviewerCurrentView, error) {
	const op = "Ranking.Reviewer.List"
	dbc := dbctx.Context{Ctx: ctx}
	if err := s.authorizeRead(dbc, op, projectID, eligibility.OpViewReviewerRankings); err != nil {
		return repos.ReviewerCurrentView{}, err
	}
	if reviewerEmail == "" {
		reviewerEmail = requestdata.ActorEmail(ctx)
	}
	view, err := s.repos.ReviewerRanks.Current(dbc, projectID, stageID, reviewerEmail)
	if err != nil {
		return repos.ReviewerCurrentView{}, aggregates.MapError(op, err)
	}
	return view, nil
}

func (s *rankingService) authorizeRead(dbc dbctx.Context, op string, projectID uuid.UUID, action eligibility.Operation) error {
	project, err := s.repos.Projects.GetByID(dbc, projectID)
	if err != nil {
		return aggregates.MapError(op, err)
	}
	if project == nil {
		return domainagg.NewReasonError(domainagg.CodeNotFound, op, aggregates.ReasonProjectNotFound, "project not found")
	}
	actor, err := aggregates.ResolveActor(dbc, s.repos, projectID, requestdata.ActorEmail(dbc.Ctx), action == eligibility.OpViewReviewerRankings)
	if err != nil {
		return aggregates.MapError(op, err)
	}
	if d := eligibility.Authorize(action, actor, eligibility.Scope{}); !d.Allowed {
		return aggregates.DecisionError(op, d)
	}
	return nil
}

func (s *rankingService) submissionGroups(dbc dbctx.Context, projectID, stageID uuid.UUID, items []ranking.RankItem) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.TargetID)
	}
	subs, err := s.repos.Submissions.GetByIDs(dbc, projectID, stageID, ids)
	if err != nil {
		return nil, err
	}
	seen := map[uuid.UUID]bool{}
	out := []uuid.UUID{}
	for _, id := range ids {
		sub := subs[id]
		if sub == nil || seen[sub.GroupID] {
			continue
		}
		seen[sub.GroupID] = true
		out = append(out, sub.GroupID)
	}
	return out, nil
}

func (s *rankingService) notifyTransition(t realtime.NotificationType, projectID uuid.UUID, actor string, p *ranking.RankingProposal) {
	if p == nil {
		return
	}
	s.notify(RankingEvent{
		Type:      t,
		ProjectID: projectID,
		EntityID:  p.ID,
		Actor:     actor,
		GroupIDs:  []uuid.UUID{p.GroupID},
		Data:      map[string]any{"status": ranking.DeriveStatus(p)},
	})
}

func (s *rankingService) notify(ev RankingEvent) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ev)
}

// logRejected logs expected business rejections at info and everything else
// at error.
func (s *rankingService) logRejected(action string, err error, kv ...any) {
	kv = append(kv, "code", domainagg.CodeOf(err), "reason", domainagg.ReasonOf(err), "error", err)
	switch domainagg.CodeOf(err) {
	case domainagg.CodeInternal, "":
		s.log.Error("Ranking "+action+" failed", kv...)
	default:
		s.log.Info("Ranking "+action+" rejected", kv...)
	}
}
