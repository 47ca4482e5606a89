package project

import (
	"time"

	"github.com/google/uuid"
)

type ProjectGroup struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Name      string    `gorm:"column:name;not null" json:"name"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (ProjectGroup) TableName() string { return "project_group" }

const (
	MemberRoleLeader = "leader"
	MemberRoleMember = "member"

	MemberStatusActive   = "active"
	MemberStatusInactive = "inactive"
)

// GroupMember is the authoritative join between a user and a group within a
// project. One row per (project_id, user_email).
type GroupMember struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_group_member_project_user,priority:1" json:"project_id"`
	GroupID   uuid.UUID `gorm:"type:uuid;not null;index" json:"group_id"`
	UserEmail string    `gorm:"column:user_email;not null;uniqueIndex:idx_group_member_project_user,priority:2" json:"user_email"`

	// leader|member
	Role string `gorm:"column:role;not null" json:"role"`
	// active|inactive
	Status string `gorm:"column:status;not null;index" json:"status"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (GroupMember) TableName() string { return "group_member" }

func (m *GroupMember) IsActive() bool {
	return m != nil && m.Status == MemberStatusActive
}

const (
	StaffRoleTeacher = "teacher"
	StaffRoleAdmin   = "admin"
)

// ProjectStaff lists the privileged reviewers of a project.
type ProjectStaff struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_project_staff_project_user,priority:1" json:"project_id"`
	UserEmail string    `gorm:"column:user_email;not null;uniqueIndex:idx_project_staff_project_user,priority:2" json:"user_email"`

	// teacher|admin
	Role string `gorm:"column:role;not null" json:"role"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (ProjectStaff) TableName() string { return "project_staff" }
