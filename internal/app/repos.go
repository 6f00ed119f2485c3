package app

import (
	"gorm.io/gorm"

	"github.com/openattest/certgen-backend/internal/data/repos"
	"github.com/openattest/certgen-backend/internal/platform/logger"
)

type Repos struct {
	Template    repos.TemplateRepo
	Certificate repos.CertificateRepo
	Visitor     repos.VisitorRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Template:    repos.NewTemplateRepo(db, log),
		Certificate: repos.NewCertificateRepo(db, log),
		Visitor:     repos.NewVisitorRepo(db, log),
	}
}
