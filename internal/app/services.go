package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/openattest/certgen-backend/internal/batch"
	"github.com/openattest/certgen-backend/internal/binding"
	"github.com/openattest/certgen-backend/internal/clients/gcp"
	redisclient "github.com/openattest/certgen-backend/internal/clients/redis"
	"github.com/openattest/certgen-backend/internal/export"
	"github.com/openattest/certgen-backend/internal/platform/logger"
	"github.com/openattest/certgen-backend/internal/platform/sendgrid"
	"github.com/openattest/certgen-backend/internal/services"
	"github.com/openattest/certgen-backend/internal/sse"
	"github.com/openattest/certgen-backend/internal/verify"
)

type Services struct {
	Template    services.TemplateService
	Certificate services.CertificateService
	Email       services.EmailService
	Notifier    *services.ProgressNotifier
	Verify      verify.Service

	Binder     binding.Engine
	Exporter   export.Exporter
	Controller *batch.Controller
	Registry   *batch.Registry
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos, hub *sse.Hub) (Services, error) {
	log.Info("Wiring services...")

	bucket, err := gcp.NewBucketService(log)
	if err != nil {
		return Services{}, fmt.Errorf("init bucket service: %w", err)
	}

	var bus redisclient.ProgressBus
	if cfg.RedisEnabled {
		bus, err = redisclient.NewProgressBus(log)
		if err != nil {
			log.Warn("Redis progress bus unavailable; progress stays instance-local", "error", err)
			bus = nil
		}
	}
	notifier := services.NewProgressNotifier(log, hub, bus)

	var mailer services.EmailService
	if cfg.EmailEnabled {
		sg, err := sendgrid.NewFromEnv(log)
		if err != nil {
			log.Warn("SendGrid unavailable; certificate emails disabled", "error", err)
		} else {
			mailer = services.NewEmailService(log, sg, cfg.PublicBaseURL)
		}
	}

	binder := binding.NewEngine(log, cfg.PublicBaseURL)
	exporter, err := export.NewPNGExporter(log, cfg.CertFontPath)
	if err != nil {
		return Services{}, fmt.Errorf("init exporter: %w", err)
	}

	registry := batch.NewRegistry()
	var batchMailer batch.Mailer
	if mailer != nil {
		batchMailer = mailer
	}
	controller := batch.NewController(
		log,
		binder,
		exporter,
		reposet.Certificate,
		services.NewBucketArtifactStore(bucket),
		notifier,
		batchMailer,
		registry,
	)

	verifier, err := verify.NewService(db, log, reposet.Certificate, reposet.Visitor, cfg.VerifySaltSecret)
	if err != nil {
		return Services{}, fmt.Errorf("init verification service: %w", err)
	}

	return Services{
		Template:    services.NewTemplateService(log, reposet.Template, bucket, cfg.PublicCacheTTL),
		Certificate: services.NewCertificateService(log, reposet.Template, reposet.Certificate),
		Email:       mailer,
		Notifier:    notifier,
		Verify:      verifier,
		Binder:      binder,
		Exporter:    exporter,
		Controller:  controller,
		Registry:    registry,
	}, nil
}
