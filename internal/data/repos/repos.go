package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/peerrank-backend/internal/data/repos/project"
	"github.com/yungbote/peerrank-backend/internal/data/repos/ranking"
	"github.com/yungbote/peerrank-backend/internal/platform/logger"
)

type ProjectRepo = project.ProjectRepo
type StageRepo = project.StageRepo
type MembershipRepo = project.MembershipRepo
type StaffRepo = project.StaffRepo
type SubmissionRepo = project.SubmissionRepo
type CommentRepo = project.CommentRepo
type CommentStats = project.CommentStats

type ActionLedgerRepo = ranking.ActionLedgerRepo
type ProposalRepo = ranking.ProposalRepo
type ProposalVoteRepo = ranking.ProposalVoteRepo
type VoteCounts = ranking.VoteCounts
type CommentRankingRepo = ranking.CommentRankingRepo
type ReviewerRankingRepo = ranking.ReviewerRankingRepo
type ReviewerRankingCounts = ranking.ReviewerRankingCounts
type ReviewerCurrentView = ranking.ReviewerCurrentView

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return project.NewProjectRepo(db, baseLog)
}
func NewStageRepo(db *gorm.DB, baseLog *logger.Logger) StageRepo {
	return project.NewStageRepo(db, baseLog)
}
func NewMembershipRepo(db *gorm.DB, baseLog *logger.Logger) MembershipRepo {
	return project.NewMembershipRepo(db, baseLog)
}
func NewStaffRepo(db *gorm.DB, baseLog *logger.Logger) StaffRepo {
	return project.NewStaffRepo(db, baseLog)
}
func NewSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionRepo {
	return project.NewSubmissionRepo(db, baseLog)
}
func NewCommentRepo(db *gorm.DB, baseLog *logger.Logger) CommentRepo {
	return project.NewCommentRepo(db, baseLog)
}

func NewActionLedgerRepo(db *gorm.DB, baseLog *logger.Logger) ActionLedgerRepo {
	return ranking.NewActionLedgerRepo(db, baseLog)
}
func NewProposalRepo(db *gorm.DB, baseLog *logger.Logger) ProposalRepo {
	return ranking.NewProposalRepo(db, baseLog)
}
func NewProposalVoteRepo(db *gorm.DB, baseLog *logger.Logger) ProposalVoteRepo {
	return ranking.NewProposalVoteRepo(db, baseLog)
}
func NewCommentRankingRepo(db *gorm.DB, baseLog *logger.Logger) CommentRankingRepo {
	return ranking.NewCommentRankingRepo(db, baseLog)
}
func NewReviewerRankingRepo(db *gorm.DB, baseLog *logger.Logger) ReviewerRankingRepo {
	return ranking.NewReviewerRankingRepo(db, baseLog)
}

// Set bundles every repo the ranking aggregates and services need.
type Set struct {
	Projects        ProjectRepo
	Stages          StageRepo
	Memberships     MembershipRepo
	Staff           StaffRepo
	Submissions     SubmissionRepo
	Comments        CommentRepo
	Ledger          ActionLedgerRepo
	Proposals       ProposalRepo
	Votes           ProposalVoteRepo
	CommentRankings CommentRankingRepo
	ReviewerRanks   ReviewerRankingRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) Set {
	return Set{
		Projects:        NewProjectRepo(db, baseLog),
		Stages:          NewStageRepo(db, baseLog),
		Memberships:     NewMembershipRepo(db, baseLog),
		Staff:           NewStaffRepo(db, baseLog),
		Submissions:     NewSubmissionRepo(db, baseLog),
		Comments:        NewCommentRepo(db, baseLog),
		Ledger:          NewActionLedgerRepo(db, baseLog),
		Proposals:       NewProposalRepo(db, baseLog),
		Votes:           NewProposalVoteRepo(db, baseLog),
		CommentRankings: NewCommentRankingRepo(db, baseLog),
		ReviewerRanks:   NewReviewerRankingRepo(db, baseLog),
	}
}
