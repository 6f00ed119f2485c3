package certificates

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openattest/certgen-backend/internal/domain"
	"github.com/openattest/certgen-backend/internal/platform/logger"
)

type CertificateRepo interface {
	Create(ctx context.Context, tx *gorm.DB, certs []*domain.GeneratedCertificate) ([]*domain.GeneratedCertificate, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.GeneratedCertificate, error)
	GetByTemplateIDs(ctx context.Context, tx *gorm.DB, templateIDs []uuid.UUID) ([]*domain.GeneratedCertificate, error)
	IncrementViewCount(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	Revoke(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type certificateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCertificateRepo(db *gorm.DB, baseLog *logger.Logger) CertificateRepo {
	repoLog := baseLog.With("repo", "CertificateRepo")
	return &certificateRepo{db: db, log: repoLog}
}

func (r *certificateRepo) Create(ctx context.Context, tx *gorm.DB, certs []*domain.GeneratedCertificate) ([]*domain.GeneratedCertificate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(certs) == 0 {
		return []*domain.GeneratedCertificate{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&certs).Error; err != nil {
		return nil, err
	}
	return certs, nil
}

func (r *certificateRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.GeneratedCertificate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result domain.GeneratedCertificate
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *certificateRepo) GetByTemplateIDs(ctx context.Context, tx *gorm.DB, templateIDs []uuid.UUID) ([]*domain.GeneratedCertificate, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.GeneratedCertificate
	if len(templateIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("template_id IN ?", templateIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// IncrementViewCount bumps view_count by one as a single SQL expression so
// concurrent increments never lose updates.
func (r *certificateRepo) IncrementViewCount(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&domain.GeneratedCertificate{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
}

func (r *certificateRepo) Revoke(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Model(&domain.GeneratedCertificate{}).
		Where("id = ?", id).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
