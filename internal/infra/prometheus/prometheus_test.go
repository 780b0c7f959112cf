package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sifan077/shorty/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer_ExposesRegistry(t *testing.T) {
	reg := NewRegistry()
	m := NewMetrics(reg)
	m.ObserveShorten(OutcomeCreated)

	srv := NewServer(config.PrometheusConfig{}, reg)
	assert.Equal(t, ":9090", srv.Addr)

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `shorty_shorten_total{outcome="created"} 1`)
	assert.Contains(t, body, "go_goroutines")
	assert.Contains(t, body, "promhttp_metric_handler_requests_total")
}
