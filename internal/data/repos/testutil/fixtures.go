package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/openattest/certgen-backend/internal/domain"
)

func SeedTemplate(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID) *domain.TemplateDocument {
	tb.Helper()
	doc := &domain.TemplateDocument{
		ID:              uuid.New(),
		UserID:          userID,
		Name:            "completion certificate",
		IssuerName:      "Test Academy",
		Width:           1120,
		Height:          800,
		CanvasGraph:     datatypes.JSON(`[{"id":"n1","kind":"bindable","dynamic_key":"name","text":"Recipient Name","x":560,"y":360,"font_size":48}]`),
		PlaceholderKeys: datatypes.JSON(`["name"]`),
	}
	if err := tx.WithContext(ctx).Create(doc).Error; err != nil {
		tb.Fatalf("seed template: %v", err)
	}
	return doc
}

func SeedCertificate(tb testing.TB, ctx context.Context, tx *gorm.DB, templateID uuid.UUID) *domain.GeneratedCertificate {
	tb.Helper()
	cert := &domain.GeneratedCertificate{
		ID:            uuid.New(),
		TemplateID:    templateID,
		RecipientName: "Ada Lovelace",
		Title:         "Certificate of Completion",
		IssuedAt:      time.Now().UTC(),
		IssuerName:    "Test Academy",
		IsActive:      true,
	}
	if err := tx.WithContext(ctx).Create(cert).Error; err != nil {
		tb.Fatalf("seed certificate: %v", err)
	}
	return cert
}
