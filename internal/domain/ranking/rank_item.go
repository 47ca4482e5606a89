package ranking

import "github.com/google/uuid"

// RankItem places one target at a rank; 1 is best.
type RankItem struct {
	TargetID uuid.UUID `json:"targetId"`
	Rank     int       `json:"rank"`
}

// CommentRankItem is the stored form of a comment ranking slot.
type CommentRankItem struct {
	CommentID uuid.UUID `json:"commentId"`
	Rank      int       `json:"rank"`
}

func CommentItemsToRankItems(in []CommentRankItem) []RankItem {
	out := make([]RankItem, 0, len(in))
	for _, it := range in {
		out = append(out, RankItem{TargetID: it.CommentID, Rank: it.Rank})
	}
	return out
}

func RankItemsToCommentItems(in []RankItem) []CommentRankItem {
	out := make([]CommentRankItem, 0, len(in))
	for _, it := range in {
		out = append(out, CommentRankItem{CommentID: it.TargetID, Rank: it.Rank})
	}
	return out
}
