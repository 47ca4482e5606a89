package eligibility

// Kind classifies a denial so callers can map it to an error class.
type Kind string

const (
	KindInvalidShape Kind = "invalid_shape"
	KindNotFound     Kind = "not_found"
	KindNotEligible  Kind = "not_eligible"
)

// Reason codes surfaced to clients.
const (
	ReasonRankingEmpty          = "ranking_empty"
	ReasonTooManyItems          = "ranking_too_many_items"
	ReasonRankOutOfRange        = "rank_out_of_range"
	ReasonDuplicateTarget       = "duplicate_target"
	ReasonDuplicateRank         = "duplicate_rank"
	ReasonRankNotContiguous     = "rank_not_contiguous"
	ReasonInvalidTarget         = "invalid_target"
	ReasonSubmissionNotFound    = "submission_not_found"
	ReasonSubmissionNotApproved = "submission_not_approved"
	ReasonOwnGroupSubmission    = "own_group_submission"
	ReasonCommentNotFound       = "comment_not_found"
	ReasonCommentIsReply        = "comment_is_reply"
	ReasonCommentNoMentions     = "comment_has_no_mentions"
	ReasonAuthorNotMember       = "comment_author_not_member"
	ReasonOwnComment            = "own_comment"
	ReasonInsufficientHelpful   = "insufficient_helpful_reactions"
	ReasonDuplicateAuthor       = "duplicate_comment_author"
	ReasonStageNotFound         = "stage_not_found"
	ReasonStageNotOpen          = "stage_not_open"
	ReasonNotGroupMember        = "not_group_member"
	ReasonNotProposerOrLeader   = "not_proposer_or_leader"
	ReasonLeaderOrStaffRequired = "leader_or_staff_required"
	ReasonReviewerRequired      = "reviewer_role_required"
	ReasonNotParticipant        = "not_project_participant"
)

// Decision is the typed outcome of every validator: allowed, or denied with a reason.
type Decision struct {
	Allowed bool
	Kind    Kind
	Reason  string
	Detail  string
}

func Allow() Decision { return Decision{Allowed: true} }

func Deny(kind Kind, reason, detail string) Decision {
	return Decision{Kind: kind, Reason: reason, Detail: detail}
}
