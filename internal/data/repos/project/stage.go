package project

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	domain "github.com/yungbote/peerrank-backend/internal/domain/project"
	"github.com/yungbote/peerrank-backend/internal/platform/dbctx"
	"github.com/yungbote/peerrank-backend/internal/platform/logger"
)

type ProjectRepo interface {
	GetByID(dbc dbctx.Context, projectID uuid.UUID) (*domain.Project, error)
}

type projectRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProjectRepo(db *gorm.DB, baseLog *logger.Logger) ProjectRepo {
	return &projectRepo{
		db:  db,
		log: baseLog.With("repo", "ProjectRepo"),
	}
}

func (r *projectRepo) GetByID(dbc dbctx.Context, projectID uuid.UUID) (*domain.Project, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if projectID == uuid.Nil {
		return nil, nil
	}
	var row domain.Project
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", projectID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

type StageRepo interface {
	GetByID(dbc dbctx.Context, projectID, stageID uuid.UUID) (*domain.Stage, error)
}

type stageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStageRepo(db *gorm.DB, baseLog *logger.Logger) StageRepo {
	return &stageRepo{
		db:  db,
		log: baseLog.With("repo", "StageRepo"),
	}
}

// GetByID returns nil when the stage does not exist in the project.
func (r *stageRepo) GetByID(dbc dbctx.Context, projectID, stageID uuid.UUID) (*domain.Stage, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if projectID == uuid.Nil || stageID == uuid.Nil {
		return nil, nil
	}
	var row domain.Stage
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ? AND project_id = ?", stageID, projectID).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}
