package templates

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/openattest/certgen-backend/internal/data/repos/testutil"
	"github.com/openattest/certgen-backend/internal/domain"
)

func TestTemplateRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	repo := NewTemplateRepo(db, testutil.Logger(t))

	userID := uuid.New()
	doc := &domain.TemplateDocument{
		ID:              uuid.New(),
		UserID:          userID,
		Name:            "tpl",
		Width:           1000,
		Height:          700,
		CanvasGraph:     datatypes.JSON(`[]`),
		PlaceholderKeys: datatypes.JSON(`["name","course"]`),
		IsPublic:        true,
	}
	if _, err := repo.Create(ctx, tx, []*domain.TemplateDocument{doc}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByID(ctx, tx, doc.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID: err=%v got=%v", err, got)
	}
	keys, err := got.Keys()
	if err != nil || len(keys) != 2 {
		t.Fatalf("Keys: err=%v keys=%v", err, keys)
	}

	if rows, err := repo.GetByUserIDs(ctx, tx, []uuid.UUID{userID}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByUserIDs: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.GetPublic(ctx, tx); err != nil || len(rows) != 1 {
		t.Fatalf("GetPublic: err=%v len=%d", err, len(rows))
	}

	if err := repo.SoftDeleteByIDs(ctx, tx, []uuid.UUID{doc.ID}); err != nil {
		t.Fatalf("SoftDeleteByIDs: %v", err)
	}
	if got, err := repo.GetByID(ctx, tx, doc.ID); err != nil || got != nil {
		t.Fatalf("after SoftDeleteByIDs GetByID: err=%v got=%v", err, got)
	}
}

func TestTemplateRepoGetByIDMissing(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewTemplateRepo(db, testutil.Logger(t))
	got, err := repo.GetByID(context.Background(), tx, uuid.New())
	if err != nil {
		t.Fatalf("GetByID missing: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing template, got %+v", got)
	}
}
