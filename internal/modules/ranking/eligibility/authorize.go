package eligibility

import (
	"github.com/google/uuid"
)

// Role is the closed set of actor classes in a project.
type Role string

const (
	RoleNone    Role = ""
	RoleMember  Role = "member"
	RoleLeader  Role = "leader"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

func (r Role) IsGroupRole() bool { return r == RoleMember || r == RoleLeader }
func (r Role) IsStaff() bool     { return r == RoleTeacher || r == RoleAdmin }

// Operation names a ranking action subject to authorization.
type Operation string

const (
	OpSubmitProposal       Operation = "submit_proposal"
	OpVoteOnProposal       Operation = "vote_on_proposal"
	OpWithdrawProposal     Operation = "withdraw_proposal"
	OpResetProposal        Operation = "reset_proposal"
	OpSubmitCommentRanking Operation = "submit_comment_ranking"
	OpComprehensiveVote    Operation = "comprehensive_vote"
	OpViewReviewerRankings Operation = "view_reviewer_rankings"
	OpViewProposals        Operation = "view_proposals"
)

// Actor is the resolved principal within one project.
type Actor struct {
	Email string
	Role  Role
	// GroupID is the actor's active group; nil for staff and non-members.
	GroupID *uuid.UUID
}

// Scope carries the target of an operation.
type Scope struct {
	// GroupID of the proposal being acted on.
	GroupID       *uuid.UUID
	ProposerEmail string
}

// Authorize returns the decision for op. Each operation has exactly one rule.
func Authorize(op Operation, a Actor, s Scope) Decision {
	switch op {
	case OpSubmitProposal, OpSubmitCommentRanking:
		if !a.Role.IsGroupRole() || a.GroupID == nil {
			return Deny(KindNotEligible, ReasonNotGroupMember, "actor is not an active group member in this project")
		}
		return Allow()
	case OpVoteOnProposal:
		if !sameGroup(a, s) {
			return Deny(KindNotEligible, ReasonNotGroupMember, "voter does not belong to the proposal's group")
		}
		return Allow()
	case OpWithdrawProposal:
		if !sameGroup(a, s) {
			return Deny(KindNotEligible, ReasonNotGroupMember, "actor does not belong to the proposal's group")
		}
		if a.Role == RoleLeader || normEmail(a.Email) == normEmail(s.ProposerEmail) {
			return Allow()
		}
		return Deny(KindNotEligible, ReasonNotProposerOrLeader, "only the proposer or the group leader can withdraw")
	case OpResetProposal:
		if a.Role.IsStaff() {
			return Allow()
		}
		if a.Role == RoleLeader && sameGroup(a, s) {
			return Allow()
		}
		return Deny(KindNotEligible, ReasonLeaderOrStaffRequired, "only the group leader or project staff can reset")
	case OpComprehensiveVote, OpViewReviewerRankings:
		if !a.Role.IsStaff() {
			return Deny(KindNotEligible, ReasonReviewerRequired, "teacher or admin role required")
		}
		return Allow()
	case OpViewProposals:
		if a.Role == RoleNone {
			return Deny(KindNotEligible, ReasonNotParticipant, "actor is neither a group member nor staff in this project")
		}
		return Allow()
	default:
		return Deny(KindNotEligible, "unknown_operation", "unknown operation "+string(op))
	}
}

func sameGroup(a Actor, s Scope) bool {
	return a.Role.IsGroupRole() && a.GroupID != nil && s.GroupID != nil && *a.GroupID == *s.GroupID
}
