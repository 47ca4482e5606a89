package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/peerrank-backend/internal/domain/ranking"
	"github.com/yungbote/peerrank-backend/internal/http/response"
	"github.com/yungbote/peerrank-backend/internal/services"
)

type RankingHandler struct {
	ranking services.RankingService
}

func NewRankingHandler(ranking services.RankingService) *RankingHandler {
	return &RankingHandler{ranking: ranking}
}

type submitProposalRequest struct {
	Rankings []ranking.RankItem `json:"rankings"`
}

type voteRequest struct {
	Agree   *bool  `json:"agree" binding:"required"`
	Comment string `json:"comment"`
}

type commentRankingRequest struct {
	Rankings []ranking.CommentRankItem `json:"rankings"`
}

type comprehensiveVoteRequest struct {
	SubmissionRankings []ranking.RankItem        `json:"submissionRankings"`
	CommentRankings    []ranking.CommentRankItem `json:"commentRankings"`
}

// POST /api/projects/:projectId/stages/:stageId/proposals
func (h *RankingHandler) SubmitProposal(c *gin.Context) {
	projectID, stageID, ok := projectStageParams(c)
	if !ok {
		return
	}
	var req submitProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.ranking.SubmitProposal(c.Request.Context(), projectID, stageID, req.Rankings)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	respondWrite(c, res.Deduped, gin.H{"proposal": ranking.NewProposalView(res.Proposal), "deduped": res.Deduped})
}

// GET /api/projects/:projectId/stages/:stageId/proposals
func (h *RankingHandler) ListProposals(c *gin.Context) {
	projectID, stageID, ok := projectStageParams(c)
	if !ok {
		return
	}
	views, err := h.ranking.ListProposals(c.Request.Context(), projectID, stageID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"proposals": views})
}

// POST /api/projects/:projectId/proposals/:proposalId/votes
func (h *RankingHandler) VoteOnProposal(c *gin.Context) {
	projectID, proposalID, ok := projectProposalParams(c)
	if !ok {
		return
	}
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.ranking.VoteOnProposal(c.Request.Context(), projectID, proposalID, *req.Agree, strings.TrimSpace(req.Comment))
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tally": res.Tally, "deduped": res.Deduped})
}

// GET /api/projects/:projectId/proposals/:proposalId/tally
func (h *RankingHandler) GetProposalTally(c *gin.Context) {
	projectID, proposalID, ok := projectProposalParams(c)
	if !ok {
		return
	}
	tally, err := h.ranking.GetProposalTally(c.Request.Context(), projectID, proposalID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"tally": tally})
}

// POST /api/projects/:projectId/proposals/:proposalId/withdraw
func (h *RankingHandler) WithdrawProposal(c *gin.Context) {
	projectID, proposalID, ok := projectProposalParams(c)
	if !ok {
		return
	}
	res, err := h.ranking.WithdrawProposal(c.Request.Context(), projectID, proposalID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"proposal": ranking.NewProposalView(res.Proposal), "deduped": res.Deduped})
}

// POST /api/projects/:projectId/proposals/:proposalId/reset
func (h *RankingHandler) ResetProposal(c *gin.Context) {
	projectID, proposalID, ok := projectProposalParams(c)
	if !ok {
		return
	}
	res, err := h.ranking.ResetProposal(c.Request.Context(), projectID, proposalID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"proposal": ranking.NewProposalView(res.Proposal), "deduped": res.Deduped})
}

// POST /api/projects/:projectId/stages/:stageId/comment-rankings
func (h *RankingHandler) SubmitCommentRanking(c *gin.Context) {
	projectID, stageID, ok := projectStageParams(c)
	if !ok {
		return
	}
	var req commentRankingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.ranking.SubmitCommentRanking(c.Request.Context(), projectID, stageID, req.Rankings)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	respondWrite(c, res.Deduped, gin.H{"ranking": res.Ranking, "deduped": res.Deduped})
}

// GET /api/projects/:projectId/stages/:stageId/comment-rankings/history
func (h *RankingHandler) GetCommentRankingHistory(c *gin.Context) {
	projectID, stageID, ok := projectStageParams(c)
	if !ok {
		return
	}
	history, err := h.ranking.GetCommentRankingHistory(c.Request.Context(), projectID, stageID)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"history": history})
}

// POST /api/projects/:projectId/stages/:stageId/reviewer-votes
func (h *RankingHandler) SubmitComprehensiveVote(c *gin.Context) {
	projectID, stageID, ok := projectStageParams(c)
	if !ok {
		return
	}
	var req comprehensiveVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	res, err := h.ranking.SubmitComprehensiveVote(c.Request.Context(), projectID, stageID, req.SubmissionRankings, req.CommentRankings)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	respondWrite(c, res.Deduped, gin.H{
		"event_id":         res.EventID,
		"submission_count": res.SubmissionCount,
		"comment_count":    res.CommentCount,
		"deduped":          res.Deduped,
	})
}

// GET /api/projects/:projectId/stages/:stageId/reviewer-votes?reviewer=
func (h *RankingHandler) ListReviewerRankings(c *gin.Context) {
	projectID, stageID, ok := projectStageParams(c)
	if !ok {
		return
	}
	reviewer := strings.ToLower(strings.TrimSpace(c.Query("reviewer")))
	view, err := h.ranking.ListReviewerRankings(c.Request.Context(), projectID, stageID, reviewer)
	if err != nil {
		response.RespondAggregateError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"rankings": view})
}

// respondWrite answers 201 for a new write and 200 for a replay.
func respondWrite(c *gin.Context, deduped bool, payload any) {
	if deduped {
		response.RespondOK(c, payload)
		return
	}
	response.RespondCreated(c, payload)
}

func projectStageParams(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	projectID, ok := uuidParam(c, "projectId", "invalid_project_id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	stageID, ok := uuidParam(c, "stageId", "invalid_stage_id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return projectID, stageID, true
}

func projectProposalParams(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	projectID, ok := uuidParam(c, "projectId", "invalid_project_id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	proposalID, ok := uuidParam(c, "proposalId", "invalid_proposal_id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return projectID, proposalID, true
}

func uuidParam(c *gin.Context, name, code string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, code, err)
		return uuid.Nil, false
	}
	return id, true
}
