package verify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openattest/certgen-backend/internal/data/repos"
	"github.com/openattest/certgen-backend/internal/domain"
	"github.com/openattest/certgen-backend/internal/platform/logger"
)

const (
	ErrorNotFound    = "not_found"
	ErrorRevoked     = "revoked"
	ErrorServerError = "server_error"
)

// CertificateView is the sanitized public shape of a certificate. Raw
// requester identities and the daily salt never appear here.
type CertificateView struct {
	TemplateID     uuid.UUID `json:"template_id"`
	RecipientName  string    `json:"recipient_name"`
	RecipientEmail string    `json:"recipient_email,omitempty"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	IssuedAt       time.Time `json:"issued_at"`
	IssuerName     string    `json:"issuer_name"`
	ViewCount      int64     `json:"view_count"`
	ArtifactURL    string    `json:"artifact_url,omitempty"`
}

type Result struct {
	IsValid     bool             `json:"is_valid"`
	IsNewView   bool             `json:"is_new_view,omitempty"`
	Error       string           `json:"error,omitempty"`
	Certificate *CertificateView `json:"certificate,omitempty"`
}

type Service interface {
	Verify(ctx context.Context, certificateID uuid.UUID, requesterIdentity string, now time.Time) (Result, error)
}

type service struct {
	db         *gorm.DB
	log        *logger.Logger
	certs      repos.CertificateRepo
	visitors   repos.VisitorRepo
	saltSecret string
}

func NewService(db *gorm.DB, baseLog *logger.Logger, certs repos.CertificateRepo, visitors repos.VisitorRepo, saltSecret string) (Service, error) {
	if saltSecret == "" {
		return nil, fmt.Errorf("verification salt secret is required")
	}
	return &service{
		db:         db,
		log:        baseLog.With("service", "VerificationService"),
		certs:      certs,
		visitors:   visitors,
		saltSecret: saltSecret,
	}, nil
}

// Verify classifies one lookup into exactly one outcome: valid (counted),
// not found, revoked, or server error. Counting is deduplicated per
// certificate per daily-salted identity hash and runs in a single
// transaction so concurrent first views increment view_count exactly once.
func (s *service) Verify(ctx context.Context, certificateID uuid.UUID, requesterIdentity string, now time.Time) (Result, error) {
	cert, err := s.certs.GetByID(ctx, nil, certificateID)
	if err != nil {
		s.log.Error("certificate lookup failed", "certificate_id", certificateID.String(), "error", err)
		return Result{Error: ErrorServerError}, err
	}
	if cert == nil {
		return Result{IsValid: false, Error: ErrorNotFound}, nil
	}
	if !cert.IsActive {
		return Result{IsValid: false, Error: ErrorRevoked}, nil
	}

	hash := IdentityHash(s.saltSecret, requesterIdentity, now)

	var isNewView bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		visitor := &domain.CertificateVisitor{
			ID:            uuid.New(),
			CertificateID: cert.ID,
			IdentityHash:  hash,
			FirstViewAt:   now,
			LastViewAt:    now,
			ViewCount:     1,
		}
		created, err := s.visitors.InsertIfAbsent(ctx, tx, visitor)
		if err != nil {
			return err
		}
		if created {
			isNewView = true
			return s.certs.IncrementViewCount(ctx, tx, cert.ID)
		}
		return s.visitors.Touch(ctx, tx, cert.ID, hash, now)
	})
	if err != nil {
		s.log.Error("view counting transaction failed", "certificate_id", cert.ID.String(), "error", err)
		return Result{Error: ErrorServerError}, err
	}

	viewCount := cert.ViewCount
	if isNewView {
		viewCount++
	}

	return Result{
		IsValid:   true,
		IsNewView: isNewView,
		Certificate: &CertificateView{
			TemplateID:     cert.TemplateID,
			RecipientName:  cert.RecipientName,
			RecipientEmail: cert.RecipientEmail,
			Title:          cert.Title,
			Description:    cert.Description,
			IssuedAt:       cert.IssuedAt,
			IssuerName:     cert.IssuerName,
			ViewCount:      viewCount,
			ArtifactURL:    cert.ArtifactURL,
		},
	}, nil
}
