package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/peerrank-backend/internal/domain/project"
)

func SeedProject(tb testing.TB, ctx context.Context, tx *gorm.DB, slots int) *types.Project {
	tb.Helper()
	p := &types.Project{
		ID:                  uuid.New(),
		Name:                "project",
		CommentRankingSlots: slots,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed project: %v", err)
	}
	return p
}

func SeedStage(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, status string) *types.Stage {
	tb.Helper()
	s := &types.Stage{
		ID:        uuid.New(),
		ProjectID: projectID,
		Name:      "stage",
		Status:    status,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed stage: %v", err)
	}
	return s
}

func SeedGroup(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID) *types.ProjectGroup {
	tb.Helper()
	g := &types.ProjectGroup{
		ID:        uuid.New(),
		ProjectID: projectID,
		Name:      "group",
	}
	if err := tx.WithContext(ctx).Create(g).Error; err != nil {
		tb.Fatalf("seed group: %v", err)
	}
	return g
}

func SeedMember(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID, groupID uuid.UUID, email, role string) *types.GroupMember {
	tb.Helper()
	m := &types.GroupMember{
		ID:        uuid.New(),
		ProjectID: projectID,
		GroupID:   groupID,
		UserEmail: strings.ToLower(email),
		Role:      role,
		Status:    types.MemberStatusActive,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed member: %v", err)
	}
	return m
}

func SeedStaff(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID uuid.UUID, email, role string) *types.ProjectStaff {
	tb.Helper()
	s := &types.ProjectStaff{
		ID:        uuid.New(),
		ProjectID: projectID,
		UserEmail: strings.ToLower(email),
		Role:      role,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed staff: %v", err)
	}
	return s
}

func SeedSubmission(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID, stageID, groupID uuid.UUID, status string) *types.Submission {
	tb.Helper()
	s := &types.Submission{
		ID:        uuid.New(),
		ProjectID: projectID,
		StageID:   stageID,
		GroupID:   groupID,
		Title:     "submission",
		Status:    status,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed submission: %v", err)
	}
	return s
}

// SeedComment creates a top-level comment with one user mention.
func SeedComment(tb testing.TB, ctx context.Context, tx *gorm.DB, projectID, stageID uuid.UUID, author string) *types.Comment {
	tb.Helper()
	c := &types.Comment{
		ID:          uuid.New(),
		ProjectID:   projectID,
		StageID:     stageID,
		AuthorEmail: strings.ToLower(author),
		Content:     "see @someone",
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed comment: %v", err)
	}
	m := &types.CommentMention{
		ID:             uuid.New(),
		CommentID:      c.ID,
		MentionedEmail: "someone@example.com",
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed mention: %v", err)
	}
	return c
}

func SeedReply(tb testing.TB, ctx context.Context, tx *gorm.DB, parent *types.Comment, author string) *types.Comment {
	tb.Helper()
	pid := parent.ID
	c := &types.Comment{
		ID:          uuid.New(),
		ProjectID:   parent.ProjectID,
		StageID:     parent.StageID,
		AuthorEmail: strings.ToLower(author),
		ParentID:    &pid,
		Content:     "reply",
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed reply: %v", err)
	}
	return c
}

func SeedHelpful(tb testing.TB, ctx context.Context, tx *gorm.DB, commentID uuid.UUID, reactor string) {
	tb.Helper()
	r := &types.CommentReaction{
		ID:           uuid.New(),
		CommentID:    commentID,
		ReactorEmail: strings.ToLower(reactor),
		Kind:         types.ReactionHelpful,
	}
	if err := tx.WithContext(ctx).Create(r).Error; err != nil {
		tb.Fatalf("seed reaction: %v", err)
	}
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
