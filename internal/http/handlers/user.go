package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/iterations-backend/internal/http/response"
	"github.com/yungbote/iterations-backend/internal/services"
)

type UserHandler struct {
	users services.UserService
}

func NewUserHandler(users services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type registerRequest struct {
	Username  string   `json:"username" validate:"required,min=1,max=64"`
	AvatarURL string   `json:"avatar_url" validate:"omitempty,url"`
	Mastery   []string `json:"mastery" validate:"omitempty,dive,required"`
}

// POST /api/users
func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	u, err := h.users.Register(c.Request.Context(), req.Username, req.AvatarURL, req.Mastery)
	if err != nil {
		respondServiceError(c, err, "register_failed")
		return
	}
	response.RespondCreated(c, gin.H{"user": u, "key": u.Key})
}

// GET /api/user/me
func (h *UserHandler) GetMe(c *gin.Context) {
	u, ok := requestUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	isNitpicker, err := h.users.IsNitpicker(ctx, u)
	if err != nil {
		respondServiceError(c, err, "load_user_failed")
		return
	}
	tracks, err := h.users.NitpickerTracks(ctx, u)
	if err != nil {
		respondServiceError(c, err, "load_user_failed")
		return
	}
	steps, err := h.users.OnboardingSteps(ctx, u.ID)
	if err != nil {
		respondServiceError(c, err, "load_user_failed")
		return
	}
	response.RespondOK(c, gin.H{
		"me":               u,
		"is_nitpicker":     isNitpicker,
		"nitpicker_tracks": tracks,
		"onboarding_steps": steps,
	})
}
