package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openattest/certgen-backend/internal/http/response"
	"github.com/openattest/certgen-backend/internal/verify"
)

type VerifyHandler struct {
	verifier verify.Service
}

func NewVerifyHandler(verifier verify.Service) *VerifyHandler {
	return &VerifyHandler{verifier: verifier}
}

// GET /api/public/verify/:code
//
// Unauthenticated by design; anyone holding the code may verify. A
// malformed code is indistinguishable from an unknown one.
func (h *VerifyHandler) VerifyCertificate(c *gin.Context) {
	code, err := uuid.Parse(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusNotFound, verify.Result{IsValid: false, Error: verify.ErrorNotFound})
		return
	}

	identity := c.ClientIP() + "|" + c.Request.UserAgent()

	result, err := h.verifier.Verify(c.Request.Context(), code, identity, time.Now().UTC())
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, verify.ErrorServerError, err)
		return
	}

	status := http.StatusOK
	switch result.Error {
	case verify.ErrorNotFound:
		status = http.StatusNotFound
	case verify.ErrorRevoked:
		status = http.StatusGone
	}
	c.JSON(status, result)
}
