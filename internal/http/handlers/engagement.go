package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/iterations-backend/internal/domain/aggregates"
	"github.com/yungbote/iterations-backend/internal/http/response"
	"github.com/yungbote/iterations-backend/internal/pkg/logger"
	"github.com/yungbote/iterations-backend/internal/services"
)

type EngagementHandler struct {
	log        *logger.Logger
	engagement services.EngagementService
}

func NewEngagementHandler(log *logger.Logger, engagement services.EngagementService) *EngagementHandler {
	return &EngagementHandler{log: log.With("handler", "EngagementHandler"), engagement: engagement}
}

type engagementOp func(ctx context.Context, submissionKey string, userID uuid.UUID) (*domainagg.EngagementResult, error)

// POST /api/submissions/:key/like
func (h *EngagementHandler) Like(c *gin.Context) { h.toggle(c, h.engagement.Like, "like_failed") }

// DELETE /api/submissions/:key/like
func (h *EngagementHandler) Unlike(c *gin.Context) { h.toggle(c, h.engagement.Unlike, "unlike_failed") }

// POST /api/submissions/:key/mute
func (h *EngagementHandler) Mute(c *gin.Context) { h.toggle(c, h.engagement.Mute, "mute_failed") }

// DELETE /api/submissions/:key/mute
func (h *EngagementHandler) Unmute(c *gin.Context) { h.toggle(c, h.engagement.Unmute, "unmute_failed") }

func (h *EngagementHandler) toggle(c *gin.Context, op engagementOp, fallbackCode string) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	res, err := op(c.Request.Context(), strings.TrimSpace(c.Param("key")), userID)
	if err != nil {
		respondServiceError(c, err, fallbackCode)
		return
	}
	response.RespondOK(c, gin.H{
		"submission_id": res.SubmissionID,
		"is_liked":      res.IsLiked,
		"likes":         res.Likes,
		"muted":         res.Muted,
	})
}

// POST /api/submissions/:key/views
func (h *EngagementHandler) View(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	key := strings.TrimSpace(c.Param("key"))
	h.engagement.RecordView(c.Request.Context(), key, userID)
	n, err := h.engagement.ViewCount(c.Request.Context(), key)
	if err != nil {
		respondServiceError(c, err, "view_count_failed")
		return
	}
	response.RespondOK(c, gin.H{"views": n})
}

type commentRequest struct {
	Body string `json:"body" validate:"required,max=20000"`
}

// POST /api/submissions/:key/comments
// body: { "body": "markdown" }
func (h *EngagementHandler) AddComment(c *gin.Context) {
	author, ok := requestUser(c)
	if !ok {
		return
	}
	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.engagement.AddComment(c.Request.Context(), strings.TrimSpace(c.Param("key")), author, req.Body)
	if err != nil {
		respondServiceError(c, err, "comment_failed")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": res.Comment, "nit_count": res.Submission.NitCount})
}

// GET /api/submissions/:key/comments
func (h *EngagementHandler) ListComments(c *gin.Context) {
	comments, err := h.engagement.Comments(c.Request.Context(), strings.TrimSpace(c.Param("key")))
	if err != nil {
		respondServiceError(c, err, "list_comments_failed")
		return
	}
	response.RespondOK(c, gin.H{"comments": comments})
}

// GET /api/feeds/aging
func (h *EngagementHandler) AgingFeed(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	subs, err := h.engagement.AgingFeed(c.Request.Context(), userID, limitQuery(c))
	if err != nil {
		respondServiceError(c, err, "feed_failed")
		return
	}
	response.RespondOK(c, gin.H{"submissions": subs})
}

// GET /api/feeds/recent
func (h *EngagementHandler) RecentFeed(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	subs, err := h.engagement.RecentFeed(c.Request.Context(), userID, limitQuery(c))
	if err != nil {
		respondServiceError(c, err, "feed_failed")
		return
	}
	response.RespondOK(c, gin.H{"submissions": subs})
}
