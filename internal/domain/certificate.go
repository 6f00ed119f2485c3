package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GeneratedCertificate is one issued certificate. Its ID doubles as the
// public verification code and is generated before rendering so the QR
// image can embed it.
type GeneratedCertificate struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TemplateID     uuid.UUID `gorm:"type:uuid;index;column:template_id" json:"template_id"`
	RecipientName  string    `gorm:"not null;column:recipient_name" json:"recipient_name"`
	RecipientEmail string    `gorm:"column:recipient_email" json:"recipient_email,omitempty"`
	Title          string    `gorm:"not null;column:title" json:"title"`
	Description    string    `gorm:"column:description" json:"description,omitempty"`
	IssuedAt       time.Time `gorm:"not null;column:issued_at" json:"issued_at"`
	IssuerName     string    `gorm:"not null;column:issuer_name" json:"issuer_name"`
	ViewCount      int64     `gorm:"not null;default:0;column:view_count" json:"view_count"`
	IsActive       bool      `gorm:"not null;default:true;column:is_active" json:"is_active"`

	ArtifactKey string            `gorm:"column:artifact_key" json:"artifact_key,omitempty"`
	ArtifactURL string            `gorm:"column:artifact_url" json:"artifact_url,omitempty"`
	Metadata    datatypes.JSONMap `gorm:"column:metadata" json:"metadata,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (GeneratedCertificate) TableName() string { return "generated_certificate" }

// CertificateVisitor dedups views of one certificate by a daily-salted
// identity hash. A new calendar day yields a new hash for the same real
// identity, so the dedup window is one day.
type CertificateVisitor struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CertificateID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_certificate_visitor;column:certificate_id" json:"certificate_id"`
	IdentityHash  string    `gorm:"not null;uniqueIndex:idx_certificate_visitor;column:identity_hash" json:"-"`
	FirstViewAt   time.Time `gorm:"not null;column:first_view_at" json:"first_view_at"`
	LastViewAt    time.Time `gorm:"not null;column:last_view_at" json:"last_view_at"`
	ViewCount     int64     `gorm:"not null;default:1;column:view_count" json:"view_count"`
}

func (CertificateVisitor) TableName() string { return "certificate_visitor" }
