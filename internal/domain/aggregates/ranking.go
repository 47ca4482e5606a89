package aggregates

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/peerrank-backend/internal/domain/ranking"
)

var ProposalAggregateContract = Contract{
	Name:             "Ranking.ProposalAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	WritePolicy:      WritePolicyOverwrite,
	Notes:            "Owns proposal lifecycle and the one-live-vote-per-voter upsert; ledger row and business write commit together.",
}

var CommentRankingAggregateContract = Contract{
	Name:             "Ranking.CommentRankingAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	WritePolicy:      WritePolicyAppend,
	Notes:            "Appends a new versioned comment ranking per submission event.",
}

var ReviewerRankingAggregateContract = Contract{
	Name:             "Ranking.ReviewerRankingAggregate",
	WriteTxOwnership: WriteTxOwnedByAggregate,
	WritePolicy:      WritePolicyAppend,
	Notes:            "Validates both reviewer channels and appends all rows in one transaction or none.",
}

// ProposalAggregate owns proposal lifecycle and peer vote invariants.
//
// Write method failures return *aggregates.Error with codes:
// CodeValidation, CodeNotFound, CodeNotEligible, CodeConflict, CodeRetryable, CodeInternal.
type ProposalAggregate interface {
	Aggregate

	SubmitProposal(ctx context.Context, in SubmitProposalInput) (SubmitProposalResult, error)
	VoteOnProposal(ctx context.Context, in VoteInput) (VoteResult, error)
	WithdrawProposal(ctx context.Context, in ProposalTransitionInput) (ProposalTransitionResult, error)
	ResetProposal(ctx context.Context, in ProposalTransitionInput) (ProposalTransitionResult, error)
}

type SubmitProposalInput struct {
	ProjectID  uuid.UUID
	StageID    uuid.UUID
	ActorEmail string
	Rankings   []ranking.RankItem
}

type SubmitProposalResult struct {
	Proposal *ranking.RankingProposal
	Deduped  bool
}

type VoteInput struct {
	ProjectID  uuid.UUID
	ProposalID uuid.UUID
	ActorEmail string
	Agree      bool
	Comment    string
}

type VoteResult struct {
	Tally   ranking.Tally
	Deduped bool
}

type ProposalTransitionInput struct {
	ProjectID  uuid.UUID
	ProposalID uuid.UUID
	ActorEmail string
}

type ProposalTransitionResult struct {
	Proposal *ranking.RankingProposal
	Deduped  bool
}

// CommentRankingAggregate records peer comment rankings as versioned history.
type CommentRankingAggregate interface {
	Aggregate

	SubmitCommentRanking(ctx context.Context, in CommentRankingInput) (CommentRankingResult, error)
}

type CommentRankingInput struct {
	ProjectID  uuid.UUID
	StageID    uuid.UUID
	ActorEmail string
	Rankings   []ranking.CommentRankItem
}

type CommentRankingResult struct {
	Ranking *ranking.CommentRankingProposal
	Deduped bool
}

// ReviewerRankingAggregate coordinates a reviewer's two-channel vote.
type ReviewerRankingAggregate interface {
	Aggregate

	SubmitComprehensiveVote(ctx context.Context, in ComprehensiveVoteInput) (ComprehensiveVoteResult, error)
}

type ComprehensiveVoteInput struct {
	ProjectID          uuid.UUID
	StageID            uuid.UUID
	ReviewerEmail      string
	SubmissionRankings []ranking.RankItem
	CommentRankings    []ranking.CommentRankItem
}

type ComprehensiveVoteResult struct {
	EventID         uuid.UUID
	SubmissionCount int64
	CommentCount    int64
	Deduped         bool
}
