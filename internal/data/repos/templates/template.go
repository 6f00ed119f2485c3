package templates

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openattest/certgen-backend/internal/domain"
	"github.com/openattest/certgen-backend/internal/platform/logger"
)

type TemplateRepo interface {
	Create(ctx context.Context, tx *gorm.DB, docs []*domain.TemplateDocument) ([]*domain.TemplateDocument, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.TemplateDocument, error)
	GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*domain.TemplateDocument, error)
	GetPublic(ctx context.Context, tx *gorm.DB) ([]*domain.TemplateDocument, error)
	SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
}

type templateRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTemplateRepo(db *gorm.DB, baseLog *logger.Logger) TemplateRepo {
	repoLog := baseLog.With("repo", "TemplateRepo")
	return &templateRepo{db: db, log: repoLog}
}

func (r *templateRepo) Create(ctx context.Context, tx *gorm.DB, docs []*domain.TemplateDocument) ([]*domain.TemplateDocument, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(docs) == 0 {
		return []*domain.TemplateDocument{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *templateRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.TemplateDocument, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result domain.TemplateDocument
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

func (r *templateRepo) GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*domain.TemplateDocument, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.TemplateDocument
	if len(userIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *templateRepo) GetPublic(ctx context.Context, tx *gorm.DB) ([]*domain.TemplateDocument, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.TemplateDocument
	if err := transaction.WithContext(ctx).
		Where("is_public = ?", true).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *templateRepo) SoftDeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(ids) == 0 {
		return nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&domain.TemplateDocument{}).Error; err != nil {
		return err
	}
	return nil
}
