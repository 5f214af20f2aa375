package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/iterations-backend/internal/http/response"
	"github.com/yungbote/iterations-backend/internal/services"
)

type ProgressHandler struct {
	progress services.ProgressService
}

func NewProgressHandler(progress services.ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// GET /api/user/progress
func (h *ProgressHandler) Progress(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	report, err := h.progress.Report(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "progress_failed")
		return
	}
	response.RespondOK(c, gin.H{"progress": report})
}

// GET /api/user/dashboard
func (h *ProgressHandler) Dashboard(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	d, err := h.progress.Dashboard(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "dashboard_failed")
		return
	}
	response.RespondOK(c, d)
}

// GET /api/user/completed
func (h *ProgressHandler) Completed(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	items, err := h.progress.Completed(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "completed_failed")
		return
	}
	response.RespondOK(c, gin.H{"completed": items})
}
