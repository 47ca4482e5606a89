package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/peerrank-backend/internal/domain/project"
	"github.com/yungbote/peerrank-backend/internal/domain/ranking"
)

// Models lists every table this service migrates, referenced entities first.
func Models() []any {
	return []any{
		// =========================
		// Referenced entities (read-only here)
		// =========================
		&project.Project{},
		&project.Stage{},
		&project.ProjectGroup{},
		&project.GroupMember{},
		&project.ProjectStaff{},
		&project.Submission{},
		&project.Comment{},
		&project.CommentMention{},
		&project.CommentReaction{},

		// =========================
		// Ranking / voting
		// =========================
		&ranking.RankingProposal{},
		&ranking.ProposalVote{},
		&ranking.CommentRankingProposal{},
		&ranking.ReviewerSubmissionRanking{},
		&ranking.ReviewerCommentRanking{},
		&ranking.ActionLedgerEntry{},
	}
}

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// EnsureRankingIndexes creates indexes GORM tags cannot express. The SQL is
// valid on both Postgres and SQLite.
func EnsureRankingIndexes(db *gorm.DB) error {
	// At most one pending proposal per (stage, group). Rejected rows stay
	// outside the predicate so a rejected group can resubmit.
	if err := db.Exec(`DROP INDEX IF EXISTS idx_ranking_proposal_open;`).Error; err != nil {
		return fmt.Errorf("drop idx_ranking_proposal_open: %w", err)
	}
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_ranking_proposal_pending
		ON ranking_proposal(stage_id, group_id)
		WHERE settled_at IS NULL AND withdrawn_at IS NULL AND reset_at IS NULL AND status <> 'rejected';
	`).Error; err != nil {
		return fmt.Errorf("create idx_ranking_proposal_pending: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_proposal_vote_proposal ON proposal_vote(proposal_id);`).Error; err != nil {
		return fmt.Errorf("create idx_proposal_vote_proposal: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_action_ledger_created_at ON action_ledger(created_at);`).Error; err != nil {
		return fmt.Errorf("create idx_action_ledger_created_at: %w", err)
	}
	return nil
}

// Migrate runs schema migration followed by the extra indexes.
func Migrate(db *gorm.DB) error {
	if err := AutoMigrateAll(db); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return EnsureRankingIndexes(db)
}
