package batch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/openattest/certgen-backend/internal/binding"
	"github.com/openattest/certgen-backend/internal/domain"
	"github.com/openattest/certgen-backend/internal/export"
	"github.com/openattest/certgen-backend/internal/platform/logger"
)

type memCertRepo struct {
	mu    sync.Mutex
	certs []*domain.GeneratedCertificate
}

func (m *memCertRepo) Create(ctx context.Context, tx *gorm.DB, certs []*domain.GeneratedCertificate) ([]*domain.GeneratedCertificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.certs = append(m.certs, certs...)
	return certs, nil
}

func (m *memCertRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.GeneratedCertificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.certs {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (m *memCertRepo) GetByTemplateIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.GeneratedCertificate, error) {
	return nil, nil
}
func (m *memCertRepo) IncrementViewCount(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return nil
}
func (m *memCertRepo) Revoke(ctx context.Context, tx *gorm.DB, id uuid.UUID) error { return nil }

// failingExporter fails any artifact whose resolved text contains the
// trigger string, standing in for an export-breaking row value.
type failingExporter struct {
	inner   export.Exporter
	trigger string
}

func (f *failingExporter) Render(ctx context.Context, artifact *binding.MaterializedArtifact) ([]byte, error) {
	if f.trigger != "" {
		for _, n := range artifact.Nodes {
			if strings.Contains(n.Text, f.trigger) {
				return nil, fmt.Errorf("unrenderable content %q", n.Text)
			}
		}
	}
	return f.inner.Render(ctx, artifact)
}

type memStore struct {
	mu   sync.Mutex
	keys []string
}

func (m *memStore) Put(ctx context.Context, key string, blob []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, key)
	return "https://cdn.example.com/" + key, nil
}

// cancelAfterNotifier cancels the job once `after` rows have been
// processed, mimicking an operator pressing cancel mid-run.
type cancelAfterNotifier struct {
	after int
	job   *Job
}

func (n *cancelAfterNotifier) JobProgress(userID uuid.UUID, snap Snapshot) {
	if n.job != nil && n.after > 0 && snap.Current >= n.after {
		n.job.Cancel()
	}
}

type testDeps struct {
	controller *Controller
	certs      *memCertRepo
	store      *memStore
	registry   *Registry
}

func newTestDeps(t *testing.T, exp export.Exporter, notifier Notifier) *testDeps {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	if exp == nil {
		exp, err = export.NewPNGExporter(log, "")
		if err != nil {
			t.Fatalf("exporter: %v", err)
		}
	}
	certs := &memCertRepo{}
	store := &memStore{}
	registry := NewRegistry()
	engine := binding.NewEngine(log, "https://certs.example.com")
	return &testDeps{
		controller: NewController(log, engine, exp, certs, store, notifier, nil, registry),
		certs:      certs,
		store:      store,
		registry:   registry,
	}
}

func batchTemplate() *domain.TemplateDocument {
	return &domain.TemplateDocument{
		ID:         uuid.New(),
		Name:       "tpl",
		IssuerName: "Test Academy",
		Width:      400,
		Height:     300,
		CanvasGraph: datatypes.JSON(`[
			{"id":"name","kind":"bindable","dynamic_key":"name","text":"Recipient","x":200,"y":120,"font_size":20},
			{"id":"qr","kind":"verification","x":340,"y":240,"size":60}
		]`),
		PlaceholderKeys: datatypes.JSON(`["name"]`),
	}
}

func batchDataset(names ...string) *domain.Dataset {
	rows := make([]domain.DataRow, 0, len(names))
	for _, n := range names {
		rows = append(rows, domain.DataRow{"name": n})
	}
	return &domain.Dataset{Headers: []string{"name"}, Rows: rows}
}

func TestRunGeneratesEveryRowInOrder(t *testing.T) {
	deps := newTestDeps(t, nil, nil)

	job, err := deps.controller.Run(context.Background(), batchTemplate(), batchDataset("Ada", "Grace", "Edsger"), IssuanceContext{
		Title:      "Cert",
		NameColumn: "name",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	snap := job.Snapshot()
	if snap.Status != StatusComplete || snap.Current != 3 || snap.Percentage != 100 {
		t.Fatalf("unexpected terminal state: %+v", snap)
	}
	if len(snap.GeneratedIDs)+len(snap.Errors) != snap.Total {
		t.Fatalf("row conservation violated: %d + %d != %d", len(snap.GeneratedIDs), len(snap.Errors), snap.Total)
	}
	if len(deps.certs.certs) != 3 {
		t.Fatalf("expected 3 persisted certificates, got %d", len(deps.certs.certs))
	}
	for i, want := range []string{"Ada", "Grace", "Edsger"} {
		if deps.certs.certs[i].RecipientName != want {
			t.Fatalf("row order broken at %d: got %q want %q", i, deps.certs.certs[i].RecipientName, want)
		}
		if deps.certs.certs[i].ID != snap.GeneratedIDs[i] {
			t.Fatalf("generated id position %d does not match persisted certificate", i)
		}
	}
}

func TestRunIsolatesRowFailure(t *testing.T) {
	log, _ := logger.New("test")
	inner, err := export.NewPNGExporter(log, "")
	if err != nil {
		t.Fatalf("exporter: %v", err)
	}
	deps := newTestDeps(t, &failingExporter{inner: inner, trigger: "Grace"}, nil)

	job, err := deps.controller.Run(context.Background(), batchTemplate(), batchDataset("Ada", "Grace", "Edsger"), IssuanceContext{
		Title:      "Cert",
		NameColumn: "name",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	snap := job.Snapshot()
	if snap.Current != 3 || snap.Total != 3 {
		t.Fatalf("failed row should still advance current: %+v", snap)
	}
	if len(snap.Errors) != 1 || snap.Errors[0].Index != 1 {
		t.Fatalf("expected one error at index 1, got %+v", snap.Errors)
	}
	if snap.Errors[0].Message == "" {
		t.Fatalf("row error should carry a message")
	}
	if len(snap.GeneratedIDs) != 2 {
		t.Fatalf("expected 2 generated ids, got %d", len(snap.GeneratedIDs))
	}
	if snap.Status != StatusComplete {
		t.Fatalf("partial failure must not abort the batch: %s", snap.Status)
	}
}

func TestRunCancellationStopsAtRowBoundary(t *testing.T) {
	notifier := &cancelAfterNotifier{after: 2}
	deps := newTestDeps(t, nil, notifier)

	tpl := batchTemplate()
	dataset := batchDataset("Ada", "Grace", "Edsger", "Barbara", "Donald")

	job, nodes, err := deps.controller.prepare(tpl, dataset, IssuanceContext{Title: "Cert", NameColumn: "name"})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	notifier.job = job
	deps.controller.process(context.Background(), job, tpl, nodes, dataset, IssuanceContext{Title: "Cert", NameColumn: "name"})

	snap := job.Snapshot()
	if snap.Status != StatusCancelled {
		t.Fatalf("expected Cancelled, got %s", snap.Status)
	}
	if snap.Current != 2 {
		t.Fatalf("expected exactly 2 processed rows, got %d", snap.Current)
	}
	// No rollback: certificates issued before the cancel stay issued.
	if len(deps.certs.certs) != 2 {
		t.Fatalf("expected 2 persisted certificates after cancel, got %d", len(deps.certs.certs))
	}
}

func TestRunValidatesBeforeAnyRow(t *testing.T) {
	deps := newTestDeps(t, nil, nil)
	ctx := context.Background()
	issuance := IssuanceContext{Title: "Cert", NameColumn: "name"}

	if _, err := deps.controller.Run(ctx, nil, batchDataset("Ada"), issuance); err == nil {
		t.Fatalf("nil template should fail validation")
	}
	if _, err := deps.controller.Run(ctx, batchTemplate(), &domain.Dataset{}, issuance); err == nil {
		t.Fatalf("empty dataset should fail validation")
	}

	bad := batchTemplate()
	bad.PlaceholderKeys = datatypes.JSON(`["other"]`)
	if _, err := deps.controller.Run(ctx, bad, batchDataset("Ada"), issuance); err == nil {
		t.Fatalf("bindable key outside placeholder set should fail validation")
	}
	if len(deps.certs.certs) != 0 {
		t.Fatalf("validation failures must not persist anything")
	}
}

func TestRunMissingRowValueStillIssues(t *testing.T) {
	deps := newTestDeps(t, nil, nil)

	dataset := &domain.Dataset{Headers: []string{"name"}, Rows: []domain.DataRow{{}}}
	job, err := deps.controller.Run(context.Background(), batchTemplate(), dataset, IssuanceContext{
		Title:      "Cert",
		NameColumn: "name",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	snap := job.Snapshot()
	if len(snap.Errors) != 0 || len(snap.GeneratedIDs) != 1 {
		t.Fatalf("row without values should still issue: %+v", snap)
	}
}

func TestRegistryTracksJobs(t *testing.T) {
	deps := newTestDeps(t, nil, nil)

	job, err := deps.controller.Run(context.Background(), batchTemplate(), batchDataset("Ada"), IssuanceContext{
		Title:      "Cert",
		NameColumn: "name",
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := deps.registry.Get(job.ID()); got != job {
		t.Fatalf("registry should return the same job")
	}
	if deps.registry.Get(uuid.New()) != nil {
		t.Fatalf("unknown id should return nil")
	}
}
