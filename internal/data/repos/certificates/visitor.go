package certificates

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openattest/certgen-backend/internal/domain"
	"github.com/openattest/certgen-backend/internal/platform/logger"
)

type VisitorRepo interface {
	// InsertIfAbsent inserts the visitor record unless one already exists
	// for the same (certificate, identity hash) pair. Reports whether the
	// insert took effect.
	InsertIfAbsent(ctx context.Context, tx *gorm.DB, visitor *domain.CertificateVisitor) (bool, error)
	Touch(ctx context.Context, tx *gorm.DB, certificateID uuid.UUID, identityHash string, now time.Time) error
	GetByCertificateAndHash(ctx context.Context, tx *gorm.DB, certificateID uuid.UUID, identityHash string) (*domain.CertificateVisitor, error)
	CountByCertificateIDs(ctx context.Context, tx *gorm.DB, certificateIDs []uuid.UUID) (int64, error)
}

type visitorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVisitorRepo(db *gorm.DB, baseLog *logger.Logger) VisitorRepo {
	repoLog := baseLog.With("repo", "VisitorRepo")
	return &visitorRepo{db: db, log: repoLog}
}

func (r *visitorRepo) InsertIfAbsent(ctx context.Context, tx *gorm.DB, visitor *domain.CertificateVisitor) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "certificate_id"}, {Name: "identity_hash"}},
			DoNothing: true,
		}).
		Create(visitor)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *visitorRepo) Touch(ctx context.Context, tx *gorm.DB, certificateID uuid.UUID, identityHash string, now time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&domain.CertificateVisitor{}).
		Where("certificate_id = ? AND identity_hash = ?", certificateID, identityHash).
		UpdateColumns(map[string]any{
			"last_view_at": now,
			"view_count":   gorm.Expr("view_count + ?", 1),
		}).Error
}

func (r *visitorRepo) GetByCertificateAndHash(ctx context.Context, tx *gorm.DB, certificateID uuid.UUID, identityHash string) (*domain.CertificateVisitor, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result domain.CertificateVisitor
	err := transaction.WithContext(ctx).
		Where("certificate_id = ? AND identity_hash = ?", certificateID, identityHash).
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *visitorRepo) CountByCertificateIDs(ctx context.Context, tx *gorm.DB, certificateIDs []uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(certificateIDs) == 0 {
		return 0, nil
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&domain.CertificateVisitor{}).
		Where("certificate_id IN ?", certificateIDs).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
