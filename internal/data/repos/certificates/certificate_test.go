package certificates

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/openattest/certgen-backend/internal/data/repos/testutil"
)

func TestCertificateRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewCertificateRepo(db, testutil.Logger(t))

	tpl := testutil.SeedTemplate(t, ctx, tx, uuid.New())
	cert := testutil.SeedCertificate(t, ctx, tx, tpl.ID)

	got, err := repo.GetByID(ctx, tx, cert.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: err=%v got=%v", err, got)
	}
	if got.ViewCount != 0 || !got.IsActive {
		t.Fatalf("unexpected fresh certificate state: %+v", got)
	}

	if err := repo.IncrementViewCount(ctx, tx, cert.ID); err != nil {
		t.Fatalf("IncrementViewCount: %v", err)
	}
	if err := repo.IncrementViewCount(ctx, tx, cert.ID); err != nil {
		t.Fatalf("IncrementViewCount: %v", err)
	}
	got, err = repo.GetByID(ctx, tx, cert.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID after increments: err=%v", err)
	}
	if got.ViewCount != 2 {
		t.Fatalf("expected view_count 2, got %d", got.ViewCount)
	}

	if err := repo.Revoke(ctx, tx, cert.ID); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	got, err = repo.GetByID(ctx, tx, cert.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID after revoke: err=%v", err)
	}
	if got.IsActive {
		t.Fatalf("expected is_active false after revoke")
	}

	if rows, err := repo.GetByTemplateIDs(ctx, tx, []uuid.UUID{tpl.ID}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByTemplateIDs: err=%v len=%d", err, len(rows))
	}
}

func TestCertificateRepoMissing(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewCertificateRepo(db, testutil.Logger(t))

	got, err := repo.GetByID(ctx, tx, uuid.New())
	if err != nil {
		t.Fatalf("GetByID missing: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing certificate")
	}

	if err := repo.Revoke(ctx, tx, uuid.New()); err == nil {
		t.Fatalf("expected error revoking missing certificate")
	}
}
