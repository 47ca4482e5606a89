package project

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/yungbote/peerrank-backend/internal/domain/project"
	"github.com/yungbote/peerrank-backend/internal/platform/dbctx"
	"github.com/yungbote/peerrank-backend/internal/platform/logger"
)

type MembershipRepo interface {
	// GetActiveMember returns the actor's active membership in the project, or nil.
	GetActiveMember(dbc dbctx.Context, projectID uuid.UUID, email string) (*domain.GroupMember, error)
	CountActiveInGroup(dbc dbctx.Context, groupID uuid.UUID) (int64, error)
	ListActiveEmailsInGroup(dbc dbctx.Context, groupID uuid.UUID) ([]string, error)
	// ActiveEmails reports which of emails hold an active membership in the project.
	ActiveEmails(dbc dbctx.Context, projectID uuid.UUID, emails []string) (map[string]bool, error)
}

type membershipRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewMembershipRepo(db *gorm.DB, baseLog *logger.Logger) MembershipRepo {
	return &membershipRepo{
		db:  db,
		log: baseLog.With("repo", "MembershipRepo"),
	}
}

func (r *membershipRepo) GetActiveMember(dbc dbctx.Context, projectID uuid.UUID, email string) (*domain.GroupMember, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	email = normEmail(email)
	if projectID == uuid.Nil || email == "" {
		return nil, nil
	}
	var row domain.GroupMember
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ? AND user_email = ? AND status = ?", projectID, email, domain.MemberStatusActive).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *membershipRepo) CountActiveInGroup(dbc dbctx.Context, groupID uuid.UUID) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if groupID == uuid.Nil {
		return 0, nil
	}
	var n int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&domain.GroupMember{}).
		Where("group_id = ? AND status = ?", groupID, domain.MemberStatusActive).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *membershipRepo) ListActiveEmailsInGroup(dbc dbctx.Context, groupID uuid.UUID) ([]string, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := []string{}
	if groupID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Model(&domain.GroupMember{}).
		Where("group_id = ? AND status = ?", groupID, domain.MemberStatusActive).
		Order("user_email ASC").
		Pluck("user_email", &out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *membershipRepo) ActiveEmails(dbc dbctx.Context, projectID uuid.UUID, emails []string) (map[string]bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	out := map[string]bool{}
	norm := make([]string, 0, len(emails))
	for _, e := range emails {
		if e = normEmail(e); e != "" {
			norm = append(norm, e)
		}
	}
	if projectID == uuid.Nil || len(norm) == 0 {
		return out, nil
	}
	var found []string
	if err := transaction.WithContext(dbc.Ctx).
		Model(&domain.GroupMember{}).
		Where("project_id = ? AND status = ? AND user_email IN ?", projectID, domain.MemberStatusActive, norm).
		Where("role IN ?", []string{domain.MemberRoleLeader, domain.MemberRoleMember}).
		Pluck("user_email", &found).Error; err != nil {
		return nil, err
	}
	for _, e := range found {
		out[normEmail(e)] = true
	}
	return out, nil
}

type StaffRepo interface {
	// GetRole returns "teacher", "admin" or "" when the email holds no staff role.
	GetRole(dbc dbctx.Context, projectID uuid.UUID, email string) (string, error)
}

type staffRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStaffRepo(db *gorm.DB, baseLog *logger.Logger) StaffRepo {
	return &staffRepo{
		db:  db,
		log: baseLog.With("repo", "StaffRepo"),
	}
}

func (r *staffRepo) GetRole(dbc dbctx.Context, projectID uuid.UUID, email string) (string, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	email = normEmail(email)
	if projectID == uuid.Nil || email == "" {
		return "", nil
	}
	var row domain.ProjectStaff
	if err := transaction.WithContext(dbc.Ctx).
		Where("project_id = ? AND user_email = ?", projectID, email).
		Limit(1).
		Find(&row).Error; err != nil {
		return "", err
	}
	return row.Role, nil
}

func normEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
