package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/oriolus/dwell/internal/jobs"
	"github.com/oriolus/dwell/pkg/response"
)

// JobHandler exposes background job launches and run status
type JobHandler struct {
	runner *jobs.Runner
}

// NewJobHandler creates a new job handler
func NewJobHandler(runner *jobs.Runner) *JobHandler {
	return &JobHandler{runner: runner}
}

// ListJobs handles GET /api/jobs
func (h *JobHandler) ListJobs(c *gin.Context) {
	response.Success(c, gin.H{"jobs": h.runner.Names()})
}

// RunJob handles POST /api/jobs/:name/run
func (h *JobHandler) RunJob(c *gin.Context) {
	name := c.Param("name")
	if h.runner.Get(name) == nil {
		response.NotFound(c, "Unknown job")
		return
	}

	var req struct {
		Mode string `json:"mode"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	// runs outlive the request
	runID, err := h.runner.Launch(context.Background(), name, uid(c), req.Mode)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to launch job", err)
		return
	}

	response.Created(c, gin.H{"runId": runID})
}

// GetRun handles GET /api/jobs/runs/:id
func (h *JobHandler) GetRun(c *gin.Context) {
	runID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid run id")
		return
	}

	run, err := h.runner.GetRun(runID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to get job run", err)
		return
	}
	if run == nil {
		response.NotFound(c, "Job run not found")
		return
	}

	response.Success(c, run)
}

// ListRuns handles GET /api/jobs/runs
func (h *JobHandler) ListRuns(c *gin.Context) {
	jobName := c.Query("job")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	runs, err := h.runner.ListRuns(jobName, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "Failed to list job runs", err)
		return
	}

	response.Success(c, runs)
}
