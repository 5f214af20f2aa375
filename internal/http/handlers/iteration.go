package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/iterations-backend/internal/http/response"
	"github.com/yungbote/iterations-backend/internal/pkg/logger"
	"github.com/yungbote/iterations-backend/internal/services"
)

type IterationHandlerDeps struct {
	Log        *logger.Logger
	Iterations services.IterationService
	Progress   services.ProgressService
}

type IterationHandler struct {
	log        *logger.Logger
	iterations services.IterationService
	progress   services.ProgressService
}

func NewIterationHandler(deps IterationHandlerDeps) *IterationHandler {
	return &IterationHandler{
		log:        deps.Log.With("handler", "IterationHandler"),
		iterations: deps.Iterations,
		progress:   deps.Progress,
	}
}

type submitRequest struct {
	Key  string `json:"key"`
	Code string `json:"code" validate:"required"`
	Path string `json:"path" validate:"required,max=1024"`
}

// POST /api/user/assignments
// body: { "key": "...", "code": "...", "path": "ruby/leap/leap.rb" }
// The key may also be sent as ?key= or a bearer token.
func (h *IterationHandler) Submit(c *gin.Context) {
	var req submitRequest
	if !bindJSON(c, &req) {
		return
	}
	key := strings.TrimSpace(req.Key)
	if key == "" {
		key = strings.TrimSpace(c.Query("key"))
	}
	if key == "" {
		if auth := c.GetHeader("Authorization"); len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
			key = strings.TrimSpace(auth[7:])
		}
	}

	res, err := h.iterations.Submit(c.Request.Context(), services.SubmitInput{
		Key:       key,
		Code:      req.Code,
		Path:      req.Path,
		UserAgent: c.Request.UserAgent(),
	})
	if err != nil {
		respondServiceError(c, err, "submit_failed")
		return
	}
	response.RespondCreated(c, gin.H{
		"submission": res.Submission,
		"exercise":   res.Exercise,
		"superseded": res.Superseded,
	})
}

// DELETE /api/user/assignments
func (h *IterationHandler) Unsubmit(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	if _, err := h.iterations.Unsubmit(c.Request.Context(), userID); err != nil {
		respondServiceError(c, err, "unsubmit_failed")
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/iterations/latest
func (h *IterationHandler) Latest(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	subs, err := h.progress.LatestIterationsFor(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "latest_iterations_failed")
		return
	}
	response.RespondOK(c, gin.H{"iterations": subs})
}
