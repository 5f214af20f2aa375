package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/iterations-backend/internal/http/response"
	"github.com/yungbote/iterations-backend/internal/pkg/ctxutil"
	"github.com/yungbote/iterations-backend/internal/pkg/logger"
	"github.com/yungbote/iterations-backend/internal/services"
)

type AuthMiddleware struct {
	log   *logger.Logger
	users services.UserService
}

func NewAuthMiddleware(log *logger.Logger, users services.UserService) *AuthMiddleware {
	middlewareLogger := log.With("Middleware", "AuthMiddleware")
	return &AuthMiddleware{log: middlewareLogger, users: users}
}

// RequireAPIKey resolves the learner behind the request's API key and
// attaches it as RequestData.
func (am *AuthMiddleware) RequireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := extractKey(c)
		if key == "" {
			response.RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("missing api key"))
			c.Abort()
			return
		}
		u, err := am.users.Authenticate(c.Request.Context(), key)
		if err != nil {
			if errors.Is(err, services.ErrUnknownAPIKey) {
				response.RespondError(c, http.StatusUnauthorized, "unauthorized", err)
			} else {
				am.log.Error("api key lookup failed", "error", err)
				response.RespondError(c, http.StatusInternalServerError, "auth_failed", nil)
			}
			c.Abort()
			return
		}
		ctx := ctxutil.WithRequestData(c.Request.Context(), &ctxutil.RequestData{
			UserID:   u.ID,
			Username: u.Username,
			APIKey:   key,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Set("user", u)
		c.Next()
	}
}

func extractKey(c *gin.Context) string {
	if qKey := strings.TrimSpace(c.Query("key")); qKey != "" {
		return qKey
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
