package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/peerrank-backend/internal/http"
	httpH "github.com/yungbote/peerrank-backend/internal/http/handlers"
	httpMW "github.com/yungbote/peerrank-backend/internal/http/middleware"
	"github.com/yungbote/peerrank-backend/internal/observability"
	"github.com/yungbote/peerrank-backend/internal/platform/logger"
)

type Handlers struct {
	Health  *httpH.HealthHandler
	Ranking *httpH.RankingHandler
}

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

func wireHandlers(log *logger.Logger, theDB *gorm.DB, svcs Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:  httpH.NewHealthHandler(theDB),
		Ranking: httpH.NewRankingHandler(svcs.Ranking),
	}
}

func wireMiddleware(log *logger.Logger, svcs Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, svcs.Auth),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, mw Middleware) *http.Server {
	return http.NewServer(http.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		AuthMiddleware: mw.Auth,
		RankingHandler: handlers.Ranking,
		HealthHandler:  handlers.Health,
		ServiceName:    cfg.ServiceName,
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
	})
}
