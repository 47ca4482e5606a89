package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultWindow is the dedup time-bucket width.
const DefaultWindow = 60 * time.Second

// Clock is injected wherever a dedup bucket is computed.
type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads wall time in UTC.
var SystemClock Clock = ClockFunc(func() time.Time { return time.Now().UTC() })

// Bucket returns floor(unix(now) / window). Non-positive windows fall back to DefaultWindow.
func Bucket(now time.Time, window time.Duration) int64 {
	if window <= 0 {
		window = DefaultWindow
	}
	secs := int64(window / time.Second)
	if secs <= 0 {
		secs = 1
	}
	u := now.Unix()
	b := u / secs
	// floor for pre-epoch instants
	if u < 0 && u%secs != 0 {
		b--
	}
	return b
}

// Dedup computes a deterministic dedup key for action over the given parts.
// Part names and values are normalized (trimmed, lowercased) so the same
// logical action always yields the same key.
func Dedup(action string, parts map[string]string) string {
	payload := map[string]any{
		"action": strings.TrimSpace(strings.ToLower(action)),
		"parts":  normalizeParts(parts),
		"v":      1,
	}
	b, _ := json.Marshal(payload)
	sum := sha256.Sum256(b)
	return strings.TrimSpace(strings.ToLower(action)) + ":" + hex.EncodeToString(sum[:])[:32]
}

// SubmitProposalKey scopes proposal submission to (project, stage, group, actor).
// The actor is part of the key so different members of one group submitting
// together are not collapsed into one action.
func SubmitProposalKey(projectID, stageID, groupID uuid.UUID, actor string) string {
	return Dedup("proposal.submit", map[string]string{
		"project": projectID.String(),
		"stage":   stageID.String(),
		"group":   groupID.String(),
		"actor":   actor,
	})
}

func VoteProposalKey(proposalID uuid.UUID, actor string) string {
	return Dedup("proposal.vote", map[string]string{
		"proposal": proposalID.String(),
		"actor":    actor,
	})
}

// TransitionKey covers withdraw/reset actions on a proposal.
func TransitionKey(action string, proposalID uuid.UUID, actor string) string {
	return Dedup(action, map[string]string{
		"proposal": proposalID.String(),
		"actor":    actor,
	})
}

func CommentRankingKey(projectID, stageID uuid.UUID, actor string) string {
	return Dedup("comment_ranking.submit", map[string]string{
		"project": projectID.String(),
		"stage":   stageID.String(),
		"actor":   actor,
	})
}

// ComprehensiveVoteKey is one key for both reviewer channels.
func ComprehensiveVoteKey(projectID, stageID uuid.UUID, reviewer string) string {
	return Dedup("reviewer.comprehensive_vote", map[string]string{
		"project":  projectID.String(),
		"stage":    stageID.String(),
		"reviewer": reviewer,
	})
}

func normalizeParts(in map[string]string) [][2]string {
	out := make([][2]string, 0, len(in))
	for k, v := range in {
		k = strings.TrimSpace(strings.ToLower(k))
		if k == "" {
			continue
		}
		out = append(out, [2]string{k, strings.TrimSpace(strings.ToLower(v))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}
