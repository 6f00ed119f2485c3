package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/openattest/certgen-backend/internal/cache"
	"github.com/openattest/certgen-backend/internal/clients/gcp"
	"github.com/openattest/certgen-backend/internal/data/repos"
	"github.com/openattest/certgen-backend/internal/domain"
	"github.com/openattest/certgen-backend/internal/platform/apierr"
	"github.com/openattest/certgen-backend/internal/platform/logger"
)

const publicTemplatesCacheKey = "templates:public"

type CreateTemplateInput struct {
	Name            string          `json:"name"`
	IssuerName      string          `json:"issuer_name"`
	Width           int             `json:"width"`
	Height          int             `json:"height"`
	CanvasGraph     json.RawMessage `json:"canvas_graph"`
	PlaceholderKeys []string        `json:"placeholder_keys"`
	IsPublic        bool            `json:"is_public"`
}

type TemplateService interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateTemplateInput) (*domain.TemplateDocument, error)
	GetByID(ctx context.Context, userID uuid.UUID, id uuid.UUID) (*domain.TemplateDocument, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.TemplateDocument, error)
	ListPublic(ctx context.Context) ([]*domain.TemplateDocument, error)
	Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error
}

type templateService struct {
	log          *logger.Logger
	templateRepo repos.TemplateRepo
	bucket       gcp.BucketService
	publicCache  *cache.TTLCache
}

func NewTemplateService(log *logger.Logger, templateRepo repos.TemplateRepo, bucket gcp.BucketService, cacheTTL time.Duration) TemplateService {
	return &templateService{
		log:          log.With("service", "TemplateService"),
		templateRepo: templateRepo,
		bucket:       bucket,
		publicCache:  cache.NewTTLCache(cacheTTL, time.Now),
	}
}

func (s *templateService) Create(ctx context.Context, userID uuid.UUID, input CreateTemplateInput) (*domain.TemplateDocument, error) {
	if err := validateTemplateInput(input); err != nil {
		return nil, err
	}

	keysJSON, err := json.Marshal(input.PlaceholderKeys)
	if err != nil {
		return nil, apierr.New(http.StatusBadRequest, "INVALID_PLACEHOLDER_KEYS", err)
	}

	doc := &domain.TemplateDocument{
		ID:              uuid.New(),
		UserID:          userID,
		Name:            strings.TrimSpace(input.Name),
		IssuerName:      strings.TrimSpace(input.IssuerName),
		Width:           input.Width,
		Height:          input.Height,
		CanvasGraph:     datatypes.JSON(input.CanvasGraph),
		PlaceholderKeys: datatypes.JSON(keysJSON),
		IsPublic:        input.IsPublic,
	}

	created, err := s.templateRepo.Create(ctx, nil, []*domain.TemplateDocument{doc})
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "TEMPLATE_CREATE_FAILED", err)
	}
	if doc.IsPublic {
		s.publicCache.Invalidate(publicTemplatesCacheKey)
	}
	return created[0], nil
}

func validateTemplateInput(input CreateTemplateInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return apierr.New(http.StatusBadRequest, "TEMPLATE_NAME_REQUIRED", fmt.Errorf("template name required"))
	}
	if input.Width <= 0 || input.Height <= 0 {
		return apierr.New(http.StatusBadRequest, "INVALID_TEMPLATE_DIMENSIONS", fmt.Errorf("width and height must be positive"))
	}

	var nodes []domain.CanvasNode
	if len(input.CanvasGraph) > 0 {
		if err := json.Unmarshal(input.CanvasGraph, &nodes); err != nil {
			return apierr.New(http.StatusBadRequest, "INVALID_CANVAS_GRAPH", err)
		}
	}

	keySet := map[string]bool{}
	for _, k := range input.PlaceholderKeys {
		k = strings.TrimSpace(k)
		if k == "" {
			return apierr.New(http.StatusBadRequest, "INVALID_PLACEHOLDER_KEYS", fmt.Errorf("empty placeholder key"))
		}
		if keySet[k] {
			return apierr.New(http.StatusBadRequest, "INVALID_PLACEHOLDER_KEYS", fmt.Errorf("duplicate placeholder key %q", k))
		}
		keySet[k] = true
	}

	for _, n := range nodes {
		if n.Kind == domain.NodeKindBindable && strings.TrimSpace(n.DynamicKey) == "" {
			return apierr.New(http.StatusBadRequest, "INVALID_CANVAS_GRAPH", fmt.Errorf("bindable node %q missing dynamic key", n.ID))
		}
	}
	return nil
}

func (s *templateService) GetByID(ctx context.Context, userID uuid.UUID, id uuid.UUID) (*domain.TemplateDocument, error) {
	doc, err := s.templateRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "TEMPLATE_LOOKUP_FAILED", err)
	}
	if doc == nil {
		return nil, apierr.New(http.StatusNotFound, "TEMPLATE_NOT_FOUND", fmt.Errorf("template %s not found", id))
	}
	if !doc.IsPublic && doc.UserID != userID {
		return nil, apierr.New(http.StatusForbidden, "TEMPLATE_FORBIDDEN", fmt.Errorf("template %s not owned by caller", id))
	}
	return doc, nil
}

func (s *templateService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.TemplateDocument, error) {
	docs, err := s.templateRepo.GetByUserIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "TEMPLATE_LIST_FAILED", err)
	}
	return docs, nil
}

func (s *templateService) ListPublic(ctx context.Context) ([]*domain.TemplateDocument, error) {
	if cached, ok := s.publicCache.Get(publicTemplatesCacheKey); ok {
		return cached.([]*domain.TemplateDocument), nil
	}
	docs, err := s.templateRepo.GetPublic(ctx, nil)
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "TEMPLATE_LIST_FAILED", err)
	}
	s.publicCache.Set(publicTemplatesCacheKey, docs)
	return docs, nil
}

func (s *templateService) Delete(ctx context.Context, userID uuid.UUID, id uuid.UUID) error {
	doc, err := s.templateRepo.GetByID(ctx, nil, id)
	if err != nil {
		return apierr.New(http.StatusInternalServerError, "TEMPLATE_LOOKUP_FAILED", err)
	}
	if doc == nil {
		return apierr.New(http.StatusNotFound, "TEMPLATE_NOT_FOUND", fmt.Errorf("template %s not found", id))
	}
	if doc.UserID != userID {
		return apierr.New(http.StatusForbidden, "TEMPLATE_FORBIDDEN", fmt.Errorf("template %s not owned by caller", id))
	}
	if err := s.templateRepo.SoftDeleteByIDs(ctx, nil, []uuid.UUID{id}); err != nil {
		return apierr.New(http.StatusInternalServerError, "TEMPLATE_DELETE_FAILED", err)
	}
	if doc.IsPublic {
		s.publicCache.Invalidate(publicTemplatesCacheKey)
	}
	// Best-effort artifact cleanup; certificate rows stay for verification
	// history even after the template goes away.
	if s.bucket != nil {
		prefix := fmt.Sprintf("certificates/%s/", id)
		if err := s.bucket.DeletePrefix(ctx, gcp.BucketCategoryArtifact, prefix); err != nil {
			s.log.Warn("Failed deleting template artifacts", "templateID", id, "error", err)
		}
	}
	return nil
}
