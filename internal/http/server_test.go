package http

import (
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	httpH "github.com/openattest/certgen-backend/internal/http/handlers"
	"github.com/openattest/certgen-backend/internal/platform/logger"
)

func TestNewServerServesConfiguredRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}

	srv := NewServer(RouterConfig{
		Log:           log,
		HealthHandler: httpH.NewHealthHandler(),
	})
	if srv == nil || srv.Engine == nil {
		t.Fatalf("server engine not built")
	}

	req := httptest.NewRequest(nethttp.MethodGet, "/healthcheck", nil)
	rec := httptest.NewRecorder()
	srv.Engine.ServeHTTP(rec, req)

	if rec.Code != nethttp.StatusOK {
		t.Fatalf("unexpected status: got=%d want=%d", rec.Code, nethttp.StatusOK)
	}
	if rec.Body.String() != "ok" {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
}
