package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openattest/certgen-backend/internal/batch"
	"github.com/openattest/certgen-backend/internal/http/response"
	"github.com/openattest/certgen-backend/internal/platform/logger"
	"github.com/openattest/certgen-backend/internal/sse"
)

type JobHandler struct {
	log      *logger.Logger
	registry *batch.Registry
	hub      *sse.Hub
}

func NewJobHandler(log *logger.Logger, registry *batch.Registry, hub *sse.Hub) *JobHandler {
	return &JobHandler{
		log:      log.With("handler", "JobHandler"),
		registry: registry,
		hub:      hub,
	}
}

// GET /api/jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	job, ok := h.lookupJob(c)
	if !ok {
		return
	}
	response.RespondOK(c, gin.H{"job": job.Snapshot()})
}

// POST /api/jobs/:id/cancel
//
// Cancellation is cooperative; the batch loop observes it at the next row
// boundary, so the snapshot returned here may still say Generating.
func (h *JobHandler) CancelJob(c *gin.Context) {
	job, ok := h.lookupJob(c)
	if !ok {
		return
	}
	job.Cancel()
	response.RespondOK(c, gin.H{"job": job.Snapshot()})
}

// GET /api/jobs/:id/events
func (h *JobHandler) JobEvents(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	job, ok := h.lookupJob(c)
	if !ok {
		return
	}

	client := h.hub.NewClient(userID)
	h.hub.AddChannel(client, sse.JobChannel(job.ID()))

	h.hub.ServeHTTP(c.Writer, c.Request, client)

	h.hub.CloseClient(client)
}

// lookupJob resolves the path id to a job owned by the caller. Foreign
// jobs 404 rather than 403 so ids are not probeable.
func (h *JobHandler) lookupJob(c *gin.Context) (*batch.Job, bool) {
	userID, ok := requestUserID(c)
	if !ok {
		return nil, false
	}
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_job_id", err)
		return nil, false
	}
	job := h.registry.Get(jobID)
	if job == nil || job.UserID() != userID {
		response.RespondError(c, http.StatusNotFound, "job_not_found", fmt.Errorf("job %s not found", jobID))
		return nil, false
	}
	return job, true
}
