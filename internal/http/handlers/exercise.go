package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/iterations-backend/internal/domain/aggregates"
	types "github.com/yungbote/iterations-backend/internal/domain"
	"github.com/yungbote/iterations-backend/internal/http/response"
	"github.com/yungbote/iterations-backend/internal/services"
)

type ExerciseHandler struct {
	exercises services.ExerciseService
}

func NewExerciseHandler(exercises services.ExerciseService) *ExerciseHandler {
	return &ExerciseHandler{exercises: exercises}
}

type exerciseOp func(ctx context.Context, userID uuid.UUID, problem types.Problem) (*domainagg.ExerciseResult, error)

// POST /api/exercises/:track/:slug/close
func (h *ExerciseHandler) Close(c *gin.Context) { h.run(c, h.exercises.Close, "close_failed") }

// POST /api/exercises/:track/:slug/reopen
func (h *ExerciseHandler) Reopen(c *gin.Context) { h.run(c, h.exercises.Reopen, "reopen_failed") }

// POST /api/exercises/:track/:slug/unlock
func (h *ExerciseHandler) Unlock(c *gin.Context) { h.run(c, h.exercises.Unlock, "unlock_failed") }

func (h *ExerciseHandler) run(c *gin.Context, op exerciseOp, fallbackCode string) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	problem, ok := problemParam(c)
	if !ok {
		return
	}
	res, err := op(c.Request.Context(), userID, problem)
	if err != nil {
		respondServiceError(c, err, fallbackCode)
		return
	}
	response.RespondOK(c, gin.H{"exercise": res.Exercise, "latest": res.Latest})
}
