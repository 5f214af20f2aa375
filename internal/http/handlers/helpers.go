package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	types "github.com/yungbote/iterations-backend/internal/domain"
	"github.com/yungbote/iterations-backend/internal/http/response"
	"github.com/yungbote/iterations-backend/internal/pkg/ctxutil"
	"github.com/yungbote/iterations-backend/internal/services"
)

const (
	defaultFeedLimit = 50
	maxFeedLimit     = 200
)

var validate = validator.New()

// bindJSON decodes and validates the request body, writing a 400 on
// failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	if err := validate.Struct(req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return false
	}
	return true
}

func requestUserID(c *gin.Context) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return uuid.Nil, false
	}
	return rd.UserID, true
}

func requestUser(c *gin.Context) (*types.User, bool) {
	if v, ok := c.Get("user"); ok {
		if u, ok := v.(*types.User); ok && u != nil {
			return u, true
		}
	}
	response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
	return nil, false
}

func problemParam(c *gin.Context) (types.Problem, bool) {
	p := types.Problem{
		TrackID: strings.ToLower(strings.TrimSpace(c.Param("track"))),
		Slug:    strings.ToLower(strings.TrimSpace(c.Param("slug"))),
	}
	if !p.Valid() {
		response.RespondError(c, http.StatusBadRequest, "invalid_problem", errors.New("track and slug are required"))
		return p, false
	}
	return p, true
}

func limitQuery(c *gin.Context) int {
	n, err := strconv.Atoi(strings.TrimSpace(c.Query("limit")))
	if err != nil || n <= 0 {
		return defaultFeedLimit
	}
	if n > maxFeedLimit {
		return maxFeedLimit
	}
	return n
}

// respondServiceError maps service and engine errors to responses.
func respondServiceError(c *gin.Context, err error, fallbackCode string) {
	switch {
	case errors.Is(err, services.ErrUnknownAPIKey):
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", err)
	case errors.Is(err, services.ErrSubmissionNotFound):
		response.RespondError(c, http.StatusNotFound, "submission_not_found", err)
	case errors.Is(err, services.ErrUsernameTaken):
		response.RespondError(c, http.StatusConflict, "username_taken", err)
	default:
		response.RespondDomainError(c, err, fallbackCode)
	}
}
