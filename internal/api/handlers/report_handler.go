package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/openshelf/reportgen/internal/report"
	"github.com/openshelf/reportgen/internal/repository"
	"github.com/openshelf/reportgen/internal/service"
)

// ReportHandler exposes report submission, polling, and run history.
type ReportHandler struct {
	service *service.ReportService
	history *repository.RunHistoryRepository
}

func NewReportHandler(svc *service.ReportService, history *repository.RunHistoryRepository) *ReportHandler {
	return &ReportHandler{
		service: svc,
		history: history,
	}
}

// SubmitReport starts a report job and returns its id for polling.
func (h *ReportHandler) SubmitReport(c *gin.Context) {
	var params service.SubmitParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	jobID, err := h.service.Submit(c.Request.Context(), params)
	if err != nil {
		var re *report.RunError
		if errors.As(err, &re) && re.Category == report.CategoryConfiguration {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to submit report job", "details": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
}

// GetReportStatus polls a job's state.
func (h *ReportHandler) GetReportStatus(c *gin.Context) {
	jobID := c.Param("id")

	rec, found, err := h.service.Status(c.Request.Context(), jobID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch job status", "details": err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}

	c.JSON(http.StatusOK, rec)
}

// GetRunHistory lists recent completed runs for a project.
func (h *ReportHandler) GetRunHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "run history is not enabled"})
		return
	}

	projectID := c.Param("project")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 {
		limit = 20
	}

	runs, err := h.history.RecentRuns(c.Request.Context(), projectID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch run history", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs})
}
