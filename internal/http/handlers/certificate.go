package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openattest/certgen-backend/internal/http/response"
	"github.com/openattest/certgen-backend/internal/services"
)

type CertificateHandler struct {
	certificates services.CertificateService
}

func NewCertificateHandler(certificates services.CertificateService) *CertificateHandler {
	return &CertificateHandler{certificates: certificates}
}

// POST /api/certificates/:id/revoke
func (h *CertificateHandler) RevokeCertificate(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	certID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_certificate_id", err)
		return
	}
	if err := h.certificates.Revoke(c.Request.Context(), userID, certID); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"revoked": true})
}

// GET /api/templates/:id/certificates
func (h *CertificateHandler) ListTemplateCertificates(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	templateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_template_id", err)
		return
	}
	certs, err := h.certificates.ListByTemplate(c.Request.Context(), userID, templateID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"certificates": certs})
}
