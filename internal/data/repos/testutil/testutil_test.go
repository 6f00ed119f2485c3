package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

// The DSN-free fallback must migrate every domain model; dialect-specific
// column defaults in the gorm tags would break it.
func TestAutoMigrateAllOnSQLite(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := autoMigrateAll(db); err != nil {
		t.Fatalf("automigrate on sqlite: %v", err)
	}

	ctx := context.Background()
	tpl := SeedTemplate(t, ctx, db, uuid.New())
	cert := SeedCertificate(t, ctx, db, tpl.ID)

	if tpl.CreatedAt.IsZero() || tpl.UpdatedAt.IsZero() {
		t.Fatalf("template timestamps not populated on create: %+v", tpl)
	}
	if cert.CreatedAt.IsZero() {
		t.Fatalf("certificate timestamps not populated on create: %+v", cert)
	}
}
