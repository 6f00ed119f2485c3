package app

import (
	"time"

	"github.com/openattest/certgen-backend/internal/platform/envutil"
	"github.com/openattest/certgen-backend/internal/platform/logger"
)

type Config struct {
	Port             string
	PublicBaseURL    string
	JWTSecretKey     string
	VerifySaltSecret string
	CertFontPath     string
	PublicCacheTTL   time.Duration
	RedisEnabled     bool
	EmailEnabled     bool
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:             envutil.String("PORT", "8080"),
		PublicBaseURL:    envutil.String("PUBLIC_BASE_URL", "http://localhost:8080"),
		JWTSecretKey:     envutil.String("JWT_SECRET_KEY", "defaultsecret"),
		VerifySaltSecret: envutil.String("VERIFY_SALT_SECRET", ""),
		CertFontPath:     envutil.String("CERT_FONT_PATH", ""),
		PublicCacheTTL:   envutil.Seconds("PUBLIC_TEMPLATE_CACHE_TTL", 60*time.Second),
		RedisEnabled:     envutil.String("REDIS_ADDR", "") != "",
		EmailEnabled:     envutil.String("SENDGRID_API_KEY", "") != "",
	}
	if cfg.JWTSecretKey == "defaultsecret" {
		log.Warn("JWT_SECRET_KEY not set; using insecure default")
	}
	if cfg.VerifySaltSecret == "" {
		log.Warn("VERIFY_SALT_SECRET not set; verification will not start without it")
	}
	return cfg
}
