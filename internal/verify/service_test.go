package verify

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/openattest/certgen-backend/internal/data/repos"
	"github.com/openattest/certgen-backend/internal/data/repos/testutil"
	"github.com/openattest/certgen-backend/internal/domain"
)

func setupService(t *testing.T) (Service, *domain.GeneratedCertificate) {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)

	certRepo := repos.NewCertificateRepo(db, log)
	visitorRepo := repos.NewVisitorRepo(db, log)

	svc, err := NewService(db, log, certRepo, visitorRepo, "test-salt-secret")
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	cert := &domain.GeneratedCertificate{
		ID:            uuid.New(),
		TemplateID:    uuid.New(),
		RecipientName: "Ada Lovelace",
		Title:         "Certificate of Completion",
		IssuedAt:      time.Now().UTC(),
		IssuerName:    "Test Academy",
		IsActive:      true,
	}
	if err := db.Create(cert).Error; err != nil {
		t.Fatalf("seed certificate: %v", err)
	}
	t.Cleanup(func() {
		db.Where("certificate_id = ?", cert.ID).Delete(&domain.CertificateVisitor{})
		db.Unscoped().Where("id = ?", cert.ID).Delete(&domain.GeneratedCertificate{})
	})
	return svc, cert
}

func TestVerifyCountsAndDedupsWithinDay(t *testing.T) {
	svc, cert := setupService(t)
	ctx := context.Background()
	day := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	res, err := svc.Verify(ctx, cert.ID, "ip-a", day)
	if err != nil {
		t.Fatalf("first verify: %v", err)
	}
	if !res.IsValid || !res.IsNewView {
		t.Fatalf("first view should be valid and new: %+v", res)
	}
	if res.Certificate == nil || res.Certificate.ViewCount != 1 {
		t.Fatalf("expected view count 1, got %+v", res.Certificate)
	}

	res, err = svc.Verify(ctx, cert.ID, "ip-a", day.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("repeat verify: %v", err)
	}
	if !res.IsValid || res.IsNewView {
		t.Fatalf("repeat view same day should not be new: %+v", res)
	}
	if res.Certificate.ViewCount != 1 {
		t.Fatalf("repeat view should not increment, got %d", res.Certificate.ViewCount)
	}

	res, err = svc.Verify(ctx, cert.ID, "ip-b", day)
	if err != nil {
		t.Fatalf("second identity verify: %v", err)
	}
	if !res.IsNewView || res.Certificate.ViewCount != 2 {
		t.Fatalf("different identity should count: %+v", res)
	}
}

func TestVerifyNewDayCountsAgain(t *testing.T) {
	svc, cert := setupService(t)
	ctx := context.Background()

	day1 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

	if _, err := svc.Verify(ctx, cert.ID, "ip-a", day1); err != nil {
		t.Fatalf("day1 verify: %v", err)
	}
	res, err := svc.Verify(ctx, cert.ID, "ip-a", day2)
	if err != nil {
		t.Fatalf("day2 verify: %v", err)
	}
	// Dedup is day-scoped: the same identity counts once per calendar day.
	if !res.IsNewView || res.Certificate.ViewCount != 2 {
		t.Fatalf("new day should count again: %+v", res)
	}
}

func TestVerifyNotFound(t *testing.T) {
	svc, _ := setupService(t)

	res, err := svc.Verify(context.Background(), uuid.New(), "ip-a", time.Now().UTC())
	if err != nil {
		t.Fatalf("verify missing: %v", err)
	}
	if res.IsValid || res.Error != ErrorNotFound {
		t.Fatalf("expected not_found, got %+v", res)
	}
	if res.Certificate != nil {
		t.Fatalf("not_found must not leak certificate data")
	}
}

func TestVerifyRevokedNeverCounts(t *testing.T) {
	svc, cert := setupService(t)
	ctx := context.Background()
	db := testutil.DB(t)

	if err := db.Model(&domain.GeneratedCertificate{}).Where("id = ?", cert.ID).Update("is_active", false).Error; err != nil {
		t.Fatalf("revoke: %v", err)
	}

	for i := 0; i < 3; i++ {
		res, err := svc.Verify(ctx, cert.ID, "ip-a", time.Now().UTC())
		if err != nil {
			t.Fatalf("verify revoked: %v", err)
		}
		if res.IsValid || res.Error != ErrorRevoked {
			t.Fatalf("expected revoked, got %+v", res)
		}
	}

	var fresh domain.GeneratedCertificate
	if err := db.Where("id = ?", cert.ID).First(&fresh).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if fresh.ViewCount != 0 {
		t.Fatalf("revoked verification must not change view_count, got %d", fresh.ViewCount)
	}
}

func TestVerifyConcurrentFirstViewsCountOnce(t *testing.T) {
	if os.Getenv("TEST_POSTGRES_DSN") == "" {
		t.Skip("set TEST_POSTGRES_DSN to run the concurrency test")
	}
	svc, cert := setupService(t)
	db := testutil.DB(t)

	day := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	const n = 8

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Verify(context.Background(), cert.ID, "ip-a", day); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent verify: %v", err)
	}

	var fresh domain.GeneratedCertificate
	if err := db.Where("id = ?", cert.ID).First(&fresh).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if fresh.ViewCount != 1 {
		t.Fatalf("expected exactly one combined increment, got %d", fresh.ViewCount)
	}

	var visitors int64
	if err := db.Model(&domain.CertificateVisitor{}).Where("certificate_id = ?", cert.ID).Count(&visitors).Error; err != nil {
		t.Fatalf("count visitors: %v", err)
	}
	if visitors != 1 {
		t.Fatalf("expected exactly one visitor record, got %d", visitors)
	}
}
