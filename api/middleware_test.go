package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"example.com/clinichub/services/appointment/internal/correlation"
)

func correlationTestRouter(captured *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CorrelationMiddleware())
	router.GET("/ping", func(c *gin.Context) {
		id, _ := correlation.FromContext(c.Request.Context())
		*captured = id
		c.Status(http.StatusOK)
	})
	return router
}

func TestCorrelationMiddleware_PropagatesInboundID(t *testing.T) {
	var captured string
	router := correlationTestRouter(&captured)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(correlation.Header, "corr-abc")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "corr-abc", captured)
	require.Equal(t, "corr-abc", rec.Header().Get(correlation.Header))
}

func TestCorrelationMiddleware_GeneratesIDAtEdge(t *testing.T) {
	var captured string
	router := correlationTestRouter(&captured)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, captured)
	require.Equal(t, captured, rec.Header().Get(correlation.Header))
}
