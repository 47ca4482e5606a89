package eligibility

import (
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/peerrank-backend/internal/domain/project"
)

// MinHelpfulReactions is the quality gate for comment ranking.
const MinHelpfulReactions = 1

// SubmissionFacts is the pre-loaded state of a ranked submission.
type SubmissionFacts struct {
	ID      uuid.UUID
	Exists  bool
	Status  string
	GroupID uuid.UUID
}

// CommentFacts is the pre-loaded state of a ranked comment.
type CommentFacts struct {
	ID          uuid.UUID
	Exists      bool
	AuthorEmail string
	IsReply     bool
	// MentionCount counts user and group mentions.
	MentionCount int
	// AuthorActiveMember is true when the author holds an active leader or
	// member role in a group of the project.
	AuthorActiveMember bool
	// HelpfulFromOthers counts helpful reactions not left by the author.
	HelpfulFromOthers int
}

// CheckSubmission decides whether a submission may be ranked. excludeGroupID
// is set for peer voting so a group cannot rank its own work; reviewers pass nil.
func CheckSubmission(f SubmissionFacts, excludeGroupID *uuid.UUID) Decision {
	if !f.Exists {
		return Deny(KindNotFound, ReasonSubmissionNotFound, "submission "+f.ID.String()+" not found")
	}
	if f.Status != project.SubmissionStatusApproved {
		return Deny(KindNotEligible, ReasonSubmissionNotApproved, "submission "+f.ID.String()+" is "+f.Status)
	}
	if excludeGroupID != nil && *excludeGroupID == f.GroupID {
		return Deny(KindNotEligible, ReasonOwnGroupSubmission, "cannot rank your own group's submission")
	}
	return Allow()
}

// CheckComment decides whether a comment may be ranked. excludeAuthor is the
// ranking actor; nobody may rank their own comment.
func CheckComment(f CommentFacts, excludeAuthor string) Decision {
	if !f.Exists {
		return Deny(KindNotFound, ReasonCommentNotFound, "comment "+f.ID.String()+" not found")
	}
	if f.IsReply {
		return Deny(KindNotEligible, ReasonCommentIsReply, "only top-level comments can be ranked")
	}
	if f.MentionCount < 1 {
		return Deny(KindNotEligible, ReasonCommentNoMentions, "comment must mention a user or group")
	}
	if !f.AuthorActiveMember {
		return Deny(KindNotEligible, ReasonAuthorNotMember, "comment author is not an active group member")
	}
	if ex := normEmail(excludeAuthor); ex != "" && ex == normEmail(f.AuthorEmail) {
		return Deny(KindNotEligible, ReasonOwnComment, "cannot rank your own comment")
	}
	if f.HelpfulFromOthers < MinHelpfulReactions {
		return Deny(KindNotEligible, ReasonInsufficientHelpful, "comment needs at least one helpful reaction from another participant")
	}
	return Allow()
}

// CheckAuthorUniqueness rejects a batch that ranks two comments by one author.
func CheckAuthorUniqueness(comments []CommentFacts) Decision {
	seen := make(map[string]uuid.UUID, len(comments))
	for _, c := range comments {
		a := normEmail(c.AuthorEmail)
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			return Deny(KindNotEligible, ReasonDuplicateAuthor, "two ranked comments share an author")
		}
		seen[a] = c.ID
	}
	return Allow()
}

func normEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
