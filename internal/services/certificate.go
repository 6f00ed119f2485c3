package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openattest/certgen-backend/internal/data/repos"
	"github.com/openattest/certgen-backend/internal/domain"
	"github.com/openattest/certgen-backend/internal/platform/apierr"
	"github.com/openattest/certgen-backend/internal/platform/logger"
)

type CertificateService interface {
	Revoke(ctx context.Context, userID uuid.UUID, certificateID uuid.UUID) error
	ListByTemplate(ctx context.Context, userID uuid.UUID, templateID uuid.UUID) ([]*domain.GeneratedCertificate, error)
}

type certificateService struct {
	log          *logger.Logger
	templateRepo repos.TemplateRepo
	certRepo     repos.CertificateRepo
}

func NewCertificateService(log *logger.Logger, templateRepo repos.TemplateRepo, certRepo repos.CertificateRepo) CertificateService {
	return &certificateService{
		log:          log.With("service", "CertificateService"),
		templateRepo: templateRepo,
		certRepo:     certRepo,
	}
}

// Revoke flips the certificate inactive. The row and its artifact stay so
// the owner retains issuance history; public verification reports revoked.
func (s *certificateService) Revoke(ctx context.Context, userID uuid.UUID, certificateID uuid.UUID) error {
	cert, err := s.certRepo.GetByID(ctx, nil, certificateID)
	if err != nil {
		return apierr.New(http.StatusInternalServerError, "CERTIFICATE_LOOKUP_FAILED", err)
	}
	if cert == nil {
		return apierr.New(http.StatusNotFound, "CERTIFICATE_NOT_FOUND", fmt.Errorf("certificate %s not found", certificateID))
	}
	if err := s.requireTemplateOwner(ctx, userID, cert.TemplateID); err != nil {
		return err
	}
	if !cert.IsActive {
		return nil
	}
	if err := s.certRepo.Revoke(ctx, nil, certificateID); err != nil {
		if err == gorm.ErrRecordNotFound {
			return apierr.New(http.StatusNotFound, "CERTIFICATE_NOT_FOUND", err)
		}
		return apierr.New(http.StatusInternalServerError, "CERTIFICATE_REVOKE_FAILED", err)
	}
	s.log.Info("Certificate revoked", "certificateID", certificateID, "userID", userID)
	return nil
}

func (s *certificateService) ListByTemplate(ctx context.Context, userID uuid.UUID, templateID uuid.UUID) ([]*domain.GeneratedCertificate, error) {
	if err := s.requireTemplateOwner(ctx, userID, templateID); err != nil {
		return nil, err
	}
	certs, err := s.certRepo.GetByTemplateIDs(ctx, nil, []uuid.UUID{templateID})
	if err != nil {
		return nil, apierr.New(http.StatusInternalServerError, "CERTIFICATE_LIST_FAILED", err)
	}
	return certs, nil
}

func (s *certificateService) requireTemplateOwner(ctx context.Context, userID uuid.UUID, templateID uuid.UUID) error {
	tpl, err := s.templateRepo.GetByID(ctx, nil, templateID)
	if err != nil {
		return apierr.New(http.StatusInternalServerError, "TEMPLATE_LOOKUP_FAILED", err)
	}
	if tpl == nil {
		return apierr.New(http.StatusNotFound, "TEMPLATE_NOT_FOUND", fmt.Errorf("template %s not found", templateID))
	}
	if tpl.UserID != userID {
		return apierr.New(http.StatusForbidden, "CERTIFICATE_FORBIDDEN", fmt.Errorf("template %s not owned by caller", templateID))
	}
	return nil
}
