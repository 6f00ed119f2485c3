package batch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/openattest/certgen-backend/internal/binding"
	"github.com/openattest/certgen-backend/internal/data/repos"
	"github.com/openattest/certgen-backend/internal/domain"
	"github.com/openattest/certgen-backend/internal/export"
	"github.com/openattest/certgen-backend/internal/platform/apierr"
	"github.com/openattest/certgen-backend/internal/platform/logger"
)

// ArtifactStore persists one exported certificate blob and returns its
// public URL. The app wires the GCS bucket client behind this.
type ArtifactStore interface {
	Put(ctx context.Context, key string, blob []byte) (string, error)
}

// Notifier receives a snapshot after every processed row and on terminal
// transitions. Implementations must not block the batch loop.
type Notifier interface {
	JobProgress(userID uuid.UUID, snap Snapshot)
}

// Mailer delivers one issued certificate to its recipient. Failures are
// logged and never become row failures.
type Mailer interface {
	SendCertificate(ctx context.Context, toEmail string, cert *domain.GeneratedCertificate, artifact []byte) error
}

// IssuanceContext carries everything row processing needs beyond the row
// itself. It is explicit call state, not ambient state; concurrent batches
// share nothing.
type IssuanceContext struct {
	UserID      uuid.UUID
	IssuerName  string
	Title       string
	Description string
	NameColumn  string
	EmailColumn string
	SendEmail   bool
}

type Controller struct {
	log       *logger.Logger
	binder    binding.Engine
	exporter  export.Exporter
	certs     repos.CertificateRepo
	artifacts ArtifactStore
	notifier  Notifier
	mailer    Mailer
	registry  *Registry
	now       func() time.Time
}

func NewController(
	baseLog *logger.Logger,
	binder binding.Engine,
	exporter export.Exporter,
	certs repos.CertificateRepo,
	artifacts ArtifactStore,
	notifier Notifier,
	mailer Mailer,
	registry *Registry,
) *Controller {
	return &Controller{
		log:       baseLog.With("component", "BatchController"),
		binder:    binder,
		exporter:  exporter,
		certs:     certs,
		artifacts: artifacts,
		notifier:  notifier,
		mailer:    mailer,
		registry:  registry,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run validates the batch input, then processes every row in source order
// before returning the terminal job. Row failures are recorded and skipped
// over; only input validation aborts the whole batch.
func (c *Controller) Run(ctx context.Context, tpl *domain.TemplateDocument, dataset *domain.Dataset, issuance IssuanceContext) (*Job, error) {
	job, nodes, err := c.prepare(tpl, dataset, issuance)
	if err != nil {
		return nil, err
	}
	c.process(ctx, job, tpl, nodes, dataset, issuance)
	return job, nil
}

// Start is Run with the loop detached: it returns the job as soon as
// validation passes so callers can watch progress and cancel.
func (c *Controller) Start(ctx context.Context, tpl *domain.TemplateDocument, dataset *domain.Dataset, issuance IssuanceContext) (*Job, error) {
	job, nodes, err := c.prepare(tpl, dataset, issuance)
	if err != nil {
		return nil, err
	}
	go c.process(context.WithoutCancel(ctx), job, tpl, nodes, dataset, issuance)
	return job, nil
}

// prepare performs the batch-fatal validation that must happen before any
// row is touched.
func (c *Controller) prepare(tpl *domain.TemplateDocument, dataset *domain.Dataset, issuance IssuanceContext) (*Job, []domain.CanvasNode, error) {
	if tpl == nil {
		return nil, nil, apierr.New(http.StatusBadRequest, "invalid_template", fmt.Errorf("template is required"))
	}
	if tpl.Width <= 0 || tpl.Height <= 0 {
		return nil, nil, apierr.New(http.StatusBadRequest, "invalid_template", fmt.Errorf("template has invalid dimensions %dx%d", tpl.Width, tpl.Height))
	}
	if dataset == nil || len(dataset.Rows) == 0 {
		return nil, nil, apierr.New(http.StatusBadRequest, "empty_dataset", fmt.Errorf("dataset has no rows"))
	}

	nodes, err := tpl.Nodes()
	if err != nil {
		return nil, nil, apierr.New(http.StatusBadRequest, "invalid_template", fmt.Errorf("canvas graph: %w", err))
	}

	keys, err := tpl.Keys()
	if err != nil {
		return nil, nil, apierr.New(http.StatusBadRequest, "invalid_template", fmt.Errorf("placeholder keys: %w", err))
	}
	known := make(map[string]bool, len(keys))
	for _, k := range keys {
		known[k] = true
	}
	for _, n := range nodes {
		if n.Kind == domain.NodeKindBindable && !known[n.DynamicKey] {
			return nil, nil, apierr.New(http.StatusBadRequest, "invalid_template",
				fmt.Errorf("node %s binds unknown key %q", n.ID, n.DynamicKey))
		}
	}

	job := newJob(len(dataset.Rows), issuance.UserID)
	if c.registry != nil {
		c.registry.add(job)
	}
	return job, nodes, nil
}

func (c *Controller) process(ctx context.Context, job *Job, tpl *domain.TemplateDocument, nodes []domain.CanvasNode, dataset *domain.Dataset, issuance IssuanceContext) {
	log := c.log.With("job_id", job.ID().String(), "template_id", tpl.ID.String())
	log.Info("batch started", "rows", len(dataset.Rows))

	for i, row := range dataset.Rows {
		// Cancellation is cooperative and only honored between rows; an
		// in-flight row always finishes.
		if job.IsCancelled() {
			job.finish(StatusCancelled, fmt.Sprintf("Cancelled after %d of %d rows", i, job.total))
			c.notify(issuance.UserID, job)
			log.Info("batch cancelled", "processed", i)
			return
		}

		certificateID := uuid.New()
		cert, artifactBlob, err := c.processRow(ctx, tpl, nodes, row, certificateID, issuance)
		if err != nil {
			job.recordFailure(i, err.Error())
			log.Warn("row failed", "index", i, "error", err)
		} else {
			job.recordSuccess(cert.ID, fmt.Sprintf("Generated certificate %d of %d", i+1, job.total))
			if issuance.SendEmail && cert.RecipientEmail != "" && c.mailer != nil {
				if err := c.mailer.SendCertificate(ctx, cert.RecipientEmail, cert, artifactBlob); err != nil {
					log.Warn("certificate email failed", "index", i, "error", err)
				}
			}
		}
		c.notify(issuance.UserID, job)
	}

	job.finish(StatusComplete, fmt.Sprintf("Generated %d of %d certificates", len(job.generatedIDs), job.total))
	c.notify(issuance.UserID, job)
	snap := job.Snapshot()
	log.Info("batch complete", "generated", len(snap.GeneratedIDs), "failed", len(snap.Errors))
}

func (c *Controller) processRow(ctx context.Context, tpl *domain.TemplateDocument, nodes []domain.CanvasNode, row domain.DataRow, certificateID uuid.UUID, issuance IssuanceContext) (*domain.GeneratedCertificate, []byte, error) {
	artifact, err := c.binder.Bind(ctx, tpl, row, certificateID)
	if err != nil {
		return nil, nil, fmt.Errorf("bind: %w", err)
	}

	blob, err := c.exporter.Render(ctx, artifact)
	if err != nil {
		return nil, nil, fmt.Errorf("export: %w", err)
	}

	key := fmt.Sprintf("certificates/%s/%s.png", tpl.ID.String(), certificateID.String())
	url, err := c.artifacts.Put(ctx, key, blob)
	if err != nil {
		return nil, nil, fmt.Errorf("store artifact: %w", err)
	}

	issuerName := issuance.IssuerName
	if issuerName == "" {
		issuerName = tpl.IssuerName
	}

	cert := &domain.GeneratedCertificate{
		ID:             certificateID,
		TemplateID:     tpl.ID,
		RecipientName:  rowString(row, issuance.NameColumn),
		RecipientEmail: rowString(row, issuance.EmailColumn),
		Title:          issuance.Title,
		Description:    issuance.Description,
		IssuedAt:       c.now(),
		IssuerName:     issuerName,
		IsActive:       true,
		ArtifactKey:    key,
		ArtifactURL:    url,
	}
	if _, err := c.certs.Create(ctx, nil, []*domain.GeneratedCertificate{cert}); err != nil {
		return nil, nil, fmt.Errorf("persist: %w", err)
	}
	return cert, blob, nil
}

func (c *Controller) notify(userID uuid.UUID, job *Job) {
	if c.notifier == nil {
		return
	}
	c.notifier.JobProgress(userID, job.Snapshot())
}

func rowString(row domain.DataRow, column string) string {
	if column == "" {
		return ""
	}
	v, ok := row[column]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
