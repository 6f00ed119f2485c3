package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openattest/certgen-backend/internal/http/response"
	"github.com/openattest/certgen-backend/internal/platform/ctxutil"
	"github.com/openattest/certgen-backend/internal/services"
)

type TemplateHandler struct {
	templates services.TemplateService
}

func NewTemplateHandler(templates services.TemplateService) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

// POST /api/templates
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}

	var input services.CreateTemplateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_template_payload", err)
		return
	}

	doc, err := h.templates.Create(c.Request.Context(), userID, input)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"template": doc})
}

// GET /api/templates
func (h *TemplateHandler) ListMyTemplates(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	docs, err := h.templates.ListByUser(c.Request.Context(), userID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"templates": docs})
}

// GET /api/templates/:id
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_template_id", err)
		return
	}
	doc, err := h.templates.GetByID(c.Request.Context(), userID, id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"template": doc})
}

// DELETE /api/templates/:id
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_template_id", err)
		return
	}
	if err := h.templates.Delete(c.Request.Context(), userID, id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}

// GET /api/public/templates
func (h *TemplateHandler) ListPublicTemplates(c *gin.Context) {
	docs, err := h.templates.ListPublic(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"templates": docs})
}

func requestUserID(c *gin.Context) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("not authenticated"))
		return uuid.Nil, false
	}
	return rd.UserID, true
}
