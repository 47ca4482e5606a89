package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/peerrank-backend/internal/http/handlers"
	httpMW "github.com/yungbote/peerrank-backend/internal/http/middleware"
	"github.com/yungbote/peerrank-backend/internal/observability"
	"github.com/yungbote/peerrank-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	AuthMiddleware *httpMW.AuthMiddleware
	RankingHandler *httpH.RankingHandler
	HealthHandler  *httpH.HealthHandler

	ServiceName    string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.AttachRequestContext(cfg.RequestTimeout))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	protected := r.Group("/api")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if h := cfg.RankingHandler; h != nil {
			// Proposals
			protected.POST("/projects/:projectId/stages/:stageId/proposals", h.SubmitProposal)
			protected.GET("/projects/:projectId/stages/:stageId/proposals", h.ListProposals)
			protected.POST("/projects/:projectId/proposals/:proposalId/votes", h.VoteOnProposal)
			protected.GET("/projects/:projectId/proposals/:proposalId/tally", h.GetProposalTally)
			protected.POST("/projects/:projectId/proposals/:proposalId/withdraw", h.WithdrawProposal)
			protected.POST("/projects/:projectId/proposals/:proposalId/reset", h.ResetProposal)

			// Peer comment rankings
			protected.POST("/projects/:projectId/stages/:stageId/comment-rankings", h.SubmitCommentRanking)
			protected.GET("/projects/:projectId/stages/:stageId/comment-rankings/history", h.GetCommentRankingHistory)

			// Reviewer (staff) votes
			protected.POST("/projects/:projectId/stages/:stageId/reviewer-votes", h.SubmitComprehensiveVote)
			protected.GET("/projects/:projectId/stages/:stageId/reviewer-votes", h.ListReviewerRankings)
		}
	}

	return r
}
