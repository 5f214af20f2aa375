package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	domainagg "github.com/yungbote/iterations-backend/internal/domain/aggregates"
	"github.com/yungbote/iterations-backend/internal/domain/learning"
	"github.com/yungbote/iterations-backend/internal/http/response"
	"github.com/yungbote/iterations-backend/internal/services"
)

func testContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, rec
}

func TestRespondServiceErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrUnknownAPIKey, http.StatusUnauthorized, "unauthorized"},
		{fmt.Errorf("like: %w", services.ErrSubmissionNotFound), http.StatusNotFound, "submission_not_found"},
		{services.ErrUsernameTaken, http.StatusConflict, "username_taken"},
		{domainagg.Reject(domainagg.CodePreconditionFailed, "op", learning.ErrTooOld), http.StatusForbidden, "too_old"},
		{domainagg.NewError(domainagg.CodeConflict, "op", "state", nil), http.StatusConflict, "conflict"},
		{errors.New("boom"), http.StatusInternalServerError, "fallback"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			c, rec := testContext("/")
			respondServiceError(c, tc.err, "fallback")
			require.Equal(t, tc.status, rec.Code)

			var env response.ErrorEnvelope
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
			require.Equal(t, tc.code, env.Error.Code)
			if tc.status >= http.StatusInternalServerError {
				require.NotContains(t, env.Error.Message, "boom")
			}
		})
	}
}

func TestLimitQuery(t *testing.T) {
	for target, want := range map[string]int{
		"/":            defaultFeedLimit,
		"/?limit=10":   10,
		"/?limit=-3":   defaultFeedLimit,
		"/?limit=x":    defaultFeedLimit,
		"/?limit=9999": maxFeedLimit,
	} {
		c, _ := testContext(target)
		require.Equal(t, want, limitQuery(c), target)
	}
}

func TestProblemParam(t *testing.T) {
	c, _ := testContext("/")
	c.Params = gin.Params{{Key: "track", Value: "Ruby"}, {Key: "slug", Value: " leap "}}
	p, ok := problemParam(c)
	require.True(t, ok)
	require.Equal(t, learning.Problem{TrackID: "ruby", Slug: "leap"}, p)

	c, rec := testContext("/")
	c.Params = gin.Params{{Key: "track", Value: "ruby"}}
	_, ok = problemParam(c)
	require.False(t, ok)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthCheck(t *testing.T) {
	c, rec := testContext("/healthcheck")
	NewHealthHandler(nil).HealthCheck(c)
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec = testContext("/healthcheck")
	NewHealthHandler(func(ctx context.Context) error { return errors.New("down") }).HealthCheck(c)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
