package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/peerrank-backend/internal/data/db"
	"github.com/yungbote/peerrank-backend/internal/data/repos"
	"github.com/yungbote/peerrank-backend/internal/platform/logger"
)

func (c DBConfig) toDB() db.Config {
	return db.Config{
		Driver:       c.Driver,
		DSN:          c.DSN,
		Host:         c.Host,
		Port:         c.Port,
		User:         c.User,
		Password:     c.Password,
		Name:         c.Name,
		SQLitePath:   c.SQLitePath,
		MaxOpenConns: c.MaxOpenConns,
		Tracing:      c.Tracing,
	}
}

// OpenDatabase connects and, when migrate is set, brings the schema and the
// ranking indexes up to date.
func OpenDatabase(log *logger.Logger, cfg DBConfig, migrate bool) (*db.DatabaseService, error) {
	svc, err := db.NewDatabaseService(cfg.toDB(), log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if migrate {
		if err := db.Migrate(svc.DB()); err != nil {
			_ = svc.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	return svc, nil
}

func wireRepos(theDB *gorm.DB, log *logger.Logger) repos.Set {
	log.Info("Wiring repos...")
	return repos.NewSet(theDB, log)
}

// Migrate runs the schema migration on its own, for the migrate command.
func Migrate(cfg Config) error {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()
	svc, err := OpenDatabase(log, cfg.DB, true)
	if err != nil {
		return err
	}
	log.Info("migration complete", "driver", svc.Driver())
	return svc.Close()
}
