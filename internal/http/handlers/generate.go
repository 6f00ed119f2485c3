package handlers

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openattest/certgen-backend/internal/batch"
	"github.com/openattest/certgen-backend/internal/binding"
	"github.com/openattest/certgen-backend/internal/domain"
	"github.com/openattest/certgen-backend/internal/export"
	"github.com/openattest/certgen-backend/internal/http/response"
	"github.com/openattest/certgen-backend/internal/services"
)

type GenerateHandler struct {
	templates  services.TemplateService
	controller *batch.Controller
	binder     binding.Engine
	exporter   export.Exporter
}

func NewGenerateHandler(templates services.TemplateService, controller *batch.Controller, binder binding.Engine, exporter export.Exporter) *GenerateHandler {
	return &GenerateHandler{
		templates:  templates,
		controller: controller,
		binder:     binder,
		exporter:   exporter,
	}
}

type generateRequest struct {
	Dataset     domain.Dataset `json:"dataset"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	IssuerName  string         `json:"issuer_name"`
	NameColumn  string         `json:"name_column"`
	EmailColumn string         `json:"email_column"`
	SendEmail   bool           `json:"send_email"`
}

// POST /api/templates/:id/generate
func (h *GenerateHandler) GenerateBatch(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	templateID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_template_id", err)
		return
	}

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_generate_payload", err)
		return
	}
	if req.Title == "" {
		response.RespondError(c, http.StatusBadRequest, "invalid_generate_payload", fmt.Errorf("title required"))
		return
	}
	if req.NameColumn == "" {
		req.NameColumn = "name"
	}

	tpl, err := h.templates.GetByID(c.Request.Context(), userID, templateID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}

	job, err := h.controller.Start(c.Request.Context(), tpl, &req.Dataset, batch.IssuanceContext{
		UserID:      userID,
		IssuerName:  req.IssuerName,
		Title:       req.Title,
		Description: req.Description,
		NameColumn:  req.NameColumn,
		EmailColumn: req.EmailColumn,
		SendEmail:   req.SendEmail,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}

	response.RespondOK(c, gin.H{"job": job.Snapshot()})
}

type previewRequest struct {
	TemplateID    uuid.UUID        `json:"template_id"`
	Row           domain.DataRow   `json:"row"`
	CertificateID *uuid.UUID       `json:"certificate_id,omitempty"`
	QRStyle       *binding.QRStyle `json:"qr_style,omitempty"`
}

// POST /api/binding/preview
//
// Two modes, neither persists anything: with a row, binds and renders a
// full sample certificate; with only a qr_style, re-renders just the
// verification image so the editor can restyle the QR live.
func (h *GenerateHandler) PreviewBinding(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	var req previewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_preview_payload", err)
		return
	}

	if req.Row == nil && req.QRStyle != nil {
		certID := uuid.New()
		if req.CertificateID != nil {
			certID = *req.CertificateID
		}
		img, err := h.binder.RegenerateVerificationImage(c.Request.Context(), certID, *req.QRStyle)
		if err != nil {
			response.RespondError(c, http.StatusInternalServerError, "render_failed", err)
			return
		}
		response.RespondOK(c, gin.H{
			"verification_png": base64.StdEncoding.EncodeToString(img),
		})
		return
	}

	tpl, err := h.templates.GetByID(c.Request.Context(), userID, req.TemplateID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}

	// Sample certificate id; nothing is persisted under it.
	artifact, err := h.binder.Bind(c.Request.Context(), tpl, req.Row, uuid.New())
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "binding_failed", err)
		return
	}
	png, err := h.exporter.Render(c.Request.Context(), artifact)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "render_failed", err)
		return
	}

	response.RespondOK(c, gin.H{
		"preview_png": base64.StdEncoding.EncodeToString(png),
	})
}
