package app

import (
	"github.com/openattest/certgen-backend/internal/batch"
	httpH "github.com/openattest/certgen-backend/internal/http/handlers"
	"github.com/openattest/certgen-backend/internal/platform/logger"
	"github.com/openattest/certgen-backend/internal/sse"
)

type Handlers struct {
	Health      *httpH.HealthHandler
	Template    *httpH.TemplateHandler
	Generate    *httpH.GenerateHandler
	Job         *httpH.JobHandler
	Verify      *httpH.VerifyHandler
	Certificate *httpH.CertificateHandler
}

func wireHandlers(log *logger.Logger, svc Services, registry *batch.Registry, hub *sse.Hub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:      httpH.NewHealthHandler(),
		Template:    httpH.NewTemplateHandler(svc.Template),
		Generate:    httpH.NewGenerateHandler(svc.Template, svc.Controller, svc.Binder, svc.Exporter),
		Job:         httpH.NewJobHandler(log, registry, hub),
		Verify:      httpH.NewVerifyHandler(svc.Verify),
		Certificate: httpH.NewCertificateHandler(svc.Certificate),
	}
}
