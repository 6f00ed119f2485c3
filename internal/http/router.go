package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/openattest/certgen-backend/internal/http/handlers"
	httpMW "github.com/openattest/certgen-backend/internal/http/middleware"
	"github.com/openattest/certgen-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler      *httpH.HealthHandler
	TemplateHandler    *httpH.TemplateHandler
	GenerateHandler    *httpH.GenerateHandler
	JobHandler         *httpH.JobHandler
	VerifyHandler      *httpH.VerifyHandler
	CertificateHandler *httpH.CertificateHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")

	// Public surface: no auth, safe for anonymous verifiers.
	public := api.Group("/public")
	{
		if cfg.VerifyHandler != nil {
			public.GET("/verify/:code", cfg.VerifyHandler.VerifyCertificate)
		}
		if cfg.TemplateHandler != nil {
			public.GET("/templates", cfg.TemplateHandler.ListPublicTemplates)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Templates
		if cfg.TemplateHandler != nil {
			protected.POST("/templates", cfg.TemplateHandler.CreateTemplate)
			protected.GET("/templates", cfg.TemplateHandler.ListMyTemplates)
			protected.GET("/templates/:id", cfg.TemplateHandler.GetTemplate)
			protected.DELETE("/templates/:id", cfg.TemplateHandler.DeleteTemplate)
		}

		// Batch generation
		if cfg.GenerateHandler != nil {
			protected.POST("/templates/:id/generate", cfg.GenerateHandler.GenerateBatch)
			protected.POST("/binding/preview", cfg.GenerateHandler.PreviewBinding)
		}

		// Jobs
		if cfg.JobHandler != nil {
			protected.GET("/jobs/:id", cfg.JobHandler.GetJob)
			protected.POST("/jobs/:id/cancel", cfg.JobHandler.CancelJob)
			protected.GET("/jobs/:id/events", cfg.JobHandler.JobEvents)
		}

		// Certificates
		if cfg.CertificateHandler != nil {
			protected.POST("/certificates/:id/revoke", cfg.CertificateHandler.RevokeCertificate)
			protected.GET("/templates/:id/certificates", cfg.CertificateHandler.ListTemplateCertificates)
		}
	}

	return r
}
