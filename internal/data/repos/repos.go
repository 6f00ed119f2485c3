package repos

import (
	"github.com/openattest/certgen-backend/internal/data/repos/certificates"
	"github.com/openattest/certgen-backend/internal/data/repos/templates"
)

type TemplateRepo = templates.TemplateRepo
type CertificateRepo = certificates.CertificateRepo
type VisitorRepo = certificates.VisitorRepo

var (
	NewTemplateRepo    = templates.NewTemplateRepo
	NewCertificateRepo = certificates.NewCertificateRepo
	NewVisitorRepo     = certificates.NewVisitorRepo
)
