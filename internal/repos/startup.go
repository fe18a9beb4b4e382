package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/skillbase-backend/internal/logger"
	"github.com/skillbase/skillbase-backend/internal/types"
)

type StartupRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Startup, error)
	// GetByIDWithCourse preloads the startup's course and its school, which
	// registration statements need for URLs and display names.
	GetByIDWithCourse(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Startup, error)
}

type startupRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStartupRepo(db *gorm.DB, baseLog *logger.Logger) StartupRepo {
	return &startupRepo{db: db, log: baseLog.With("repo", "StartupRepo")}
}

func (r *startupRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Startup, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var startup types.Startup
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&startup).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &startup, nil
}

func (r *startupRepo) GetByIDWithCourse(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Startup, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var startup types.Startup
	err := transaction.WithContext(ctx).
		Preload("Course").
		Preload("Course.School").
		Where("id = ?", id).
		First(&startup).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &startup, nil
}
