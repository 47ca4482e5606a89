package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/peerrank-backend/internal/data/aggregates"
	"github.com/yungbote/peerrank-backend/internal/data/repos"
	"github.com/yungbote/peerrank-backend/internal/observability"
	"github.com/yungbote/peerrank-backend/internal/platform/logger"
	"github.com/yungbote/peerrank-backend/internal/services"
)

type Services struct {
	Auth       services.AuthService
	Ranking    services.RankingService
	Settlement services.SettlementTallyReader
	Notifier   services.RankingNotifier
}

func wireRankingDeps(theDB *gorm.DB, log *logger.Logger, cfg Config, reposet repos.Set, metrics *observability.Metrics) (aggregates.RankingDeps, error) {
	slots, err := cfg.Policy.SlotPolicy()
	if err != nil {
		return aggregates.RankingDeps{}, err
	}
	hooks := aggregates.NewObservabilityHooks(metrics)
	policy := cfg.ReadOnlyPolicy()
	log.Info("ledger configured", "window", cfg.LedgerWindow.String(), "read_only_policy", string(policy))
	return aggregates.RankingDeps{
		Base: aggregates.BaseDeps{
			DB:    theDB,
			Log:   log,
			Hooks: hooks,
		},
		Repos: reposet,
		Ledger: aggregates.NewLedger(reposet.Ledger, log, hooks, aggregates.LedgerConfig{
			Window:         cfg.LedgerWindow,
			ReadOnlyPolicy: policy,
		}),
		Slots: slots,
	}, nil
}

func wireServices(theDB *gorm.DB, log *logger.Logger, cfg Config, reposet repos.Set, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	auth, err := services.NewAuthService(log, services.AuthConfig{
		SecretKey: cfg.JWT.SecretKey,
		Issuer:    cfg.JWT.Issuer,
		Audience:  cfg.JWT.Audience,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init auth service: %w", err)
	}

	deps, err := wireRankingDeps(theDB, log, cfg, reposet, metrics)
	if err != nil {
		return Services{}, err
	}

	notifier := services.NewRankingNotifier(log, clients.Bus, reposet.Memberships, metrics, services.NotifierConfig{
		Timeout:     cfg.NotifyTimeout,
		MaxParallel: cfg.NotifyParallel,
	})

	ranking := services.NewRankingService(services.RankingServiceDeps{
		Log:       log,
		Repos:     reposet,
		Proposals: aggregates.NewProposalAggregate(deps),
		Comments:  aggregates.NewCommentRankingAggregate(deps),
		Reviewers: aggregates.NewReviewerRankingAggregate(deps),
		Notifier:  notifier,
	})

	return Services{
		Auth:       auth,
		Ranking:    ranking,
		Settlement: services.NewSettlementTallyReader(reposet),
		Notifier:   notifier,
	}, nil
}
