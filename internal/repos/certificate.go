package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/skillbase/skillbase-backend/internal/logger"
	"github.com/skillbase/skillbase-backend/internal/types"
)

type IssuedCertificateRepo interface {
	Create(ctx context.Context, tx *gorm.DB, certs []*types.IssuedCertificate) ([]*types.IssuedCertificate, error)
	GetByStartupAndCourse(ctx context.Context, tx *gorm.DB, startupID, courseID uuid.UUID) (*types.IssuedCertificate, error)
}

type issuedCertificateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIssuedCertificateRepo(db *gorm.DB, baseLog *logger.Logger) IssuedCertificateRepo {
	return &issuedCertificateRepo{db: db, log: baseLog.With("repo", "IssuedCertificateRepo")}
}

func (r *issuedCertificateRepo) Create(ctx context.Context, tx *gorm.DB, certs []*types.IssuedCertificate) ([]*types.IssuedCertificate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(certs) == 0 {
		return []*types.IssuedCertificate{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&certs).Error; err != nil {
		return nil, err
	}
	return certs, nil
}

func (r *issuedCertificateRepo) GetByStartupAndCourse(ctx context.Context, tx *gorm.DB, startupID, courseID uuid.UUID) (*types.IssuedCertificate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if startupID == uuid.Nil || courseID == uuid.Nil {
		return nil, nil
	}
	var cert types.IssuedCertificate
	err := transaction.WithContext(ctx).
		Where("startup_id = ? AND course_id = ?", startupID, courseID).
		First(&cert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cert, nil
}
