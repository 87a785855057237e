package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())
	r.GET("/probe", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	before := testutil.ToFloat64(httpReqs.WithLabelValues(http.MethodGet, "/probe", "200"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/probe", nil))

	after := testutil.ToFloat64(httpReqs.WithLabelValues(http.MethodGet, "/probe", "200"))
	if after != before+1 {
		t.Fatalf("http_requests_total delta = %v, want 1", after-before)
	}
}

func TestMetricsFallsBackToRawPath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics())

	before := testutil.ToFloat64(httpReqs.WithLabelValues(http.MethodGet, "/nope", "404"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	after := testutil.ToFloat64(httpReqs.WithLabelValues(http.MethodGet, "/nope", "404"))
	if after != before+1 {
		t.Fatalf("unmatched route not counted: delta = %v", after-before)
	}
}
