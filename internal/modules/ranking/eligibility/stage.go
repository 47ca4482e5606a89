package eligibility

import "github.com/yungbote/peerrank-backend/internal/domain/project"

// CheckStageOpen rejects rankings on stages that are not active or voting.
func CheckStageOpen(st *project.Stage) Decision {
	if st == nil {
		return Deny(KindNotFound, ReasonStageNotFound, "stage not found")
	}
	if !st.AcceptsRankings() {
		return Deny(KindNotEligible, ReasonStageNotOpen, "stage is "+st.Status)
	}
	return Allow()
}
