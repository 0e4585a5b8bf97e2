package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainCounters(t *testing.T) {
	before := testutil.ToFloat64(interviewTurns.WithLabelValues(TurnAdvanced))
	ObserveTurn(TurnAdvanced)
	assert.Equal(t, before+1, testutil.ToFloat64(interviewTurns.WithLabelValues(TurnAdvanced)))

	before = testutil.ToFloat64(interviewCompletions.WithLabelValues("passed"))
	ObserveCompletion(true)
	assert.Equal(t, before+1, testutil.ToFloat64(interviewCompletions.WithLabelValues("passed")))

	before = testutil.ToFloat64(collaboratorFailures.WithLabelValues(TTS))
	CollaboratorFailure(TTS)
	assert.Equal(t, before+1, testutil.ToFloat64(collaboratorFailures.WithLabelValues(TTS)))

	SetStaleSessions(7)
	assert.Equal(t, float64(7), testutil.ToFloat64(staleSessions))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/interview/:session_id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", Handler())

	before := testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/interview/:session_id", "204"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/interview/abc", nil))
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("GET", "/interview/:session_id", "204")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "floorscreen_http_requests_total"))
}
