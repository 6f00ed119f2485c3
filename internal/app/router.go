package app

import (
	internalhttp "github.com/openattest/certgen-backend/internal/http"
	httpMW "github.com/openattest/certgen-backend/internal/http/middleware"
	"github.com/openattest/certgen-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, cfg Config, h Handlers) *internalhttp.Server {
	log.Info("Wiring router...")
	return internalhttp.NewServer(internalhttp.RouterConfig{
		Log:            log,
		AuthMiddleware: httpMW.NewAuthMiddleware(log, cfg.JWTSecretKey),

		HealthHandler:      h.Health,
		TemplateHandler:    h.Template,
		GenerateHandler:    h.Generate,
		JobHandler:         h.Job,
		VerifyHandler:      h.Verify,
		CertificateHandler: h.Certificate,
	})
}
