package aggregates

import (
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/peerrank-backend/internal/data/repos"
	"github.com/yungbote/peerrank-backend/internal/modules/ranking/eligibility"
	"github.com/yungbote/peerrank-backend/internal/platform/dbctx"
)

// ResolveActor maps an email to its role in a project. A user who is both
// staff and a group member acts as a member unless preferStaff is set.
func ResolveActor(dbc dbctx.Context, r repos.Set, projectID uuid.UUID, email string, preferStaff bool) (eligibility.Actor, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	actor := eligibility.Actor{Email: email, Role: eligibility.RoleNone}
	if email == "" {
		return actor, ValidationError("missing actor email")
	}

	staffRole, err := r.Staff.GetRole(dbc, projectID, email)
	if err != nil {
		return actor, err
	}
	staff := eligibility.Role(staffRole)
	if preferStaff && staff.IsStaff() {
		actor.Role = staff
		return actor, nil
	}

	member, err := r.Memberships.GetActiveMember(dbc, projectID, email)
	if err != nil {
		return actor, err
	}
	if member != nil {
		if role := eligibility.Role(member.Role); role.IsGroupRole() {
			gid := member.GroupID
			actor.Role = role
			actor.GroupID = &gid
			return actor, nil
		}
	}
	if staff.IsStaff() {
		actor.Role = staff
	}
	return actor, nil
}
