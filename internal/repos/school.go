package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/skillbase-backend/internal/logger"
	"github.com/skillbase/skillbase-backend/internal/types"
)

type SchoolRepo interface {
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.School, error)
	GetPrimaryDomain(ctx context.Context, tx *gorm.DB, schoolID uuid.UUID) (*types.Domain, error)
}

type schoolRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSchoolRepo(db *gorm.DB, baseLog *logger.Logger) SchoolRepo {
	return &schoolRepo{db: db, log: baseLog.With("repo", "SchoolRepo")}
}

func (r *schoolRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.School, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var school types.School
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&school).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &school, nil
}

func (r *schoolRepo) GetPrimaryDomain(ctx context.Context, tx *gorm.DB, schoolID uuid.UUID) (*types.Domain, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if schoolID == uuid.Nil {
		return nil, nil
	}
	var domain types.Domain
	err := transaction.WithContext(ctx).
		Where("school_id = ? AND primary_domain = ?", schoolID, true).
		First(&domain).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &domain, nil
}
