package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"sheetpulse/internal/config"
	"sheetpulse/internal/services"
	"sheetpulse/internal/shared/testutil"
)

func TestHealthHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	ready := services.NewHealthService("v1.0.0-test", "", &config.Paths{ExportsDir: t.TempDir()}, nil, logger)
	notReady := services.NewHealthService("v1.0.0-test", "", nil, nil, logger)

	tests := []struct {
		name           string
		handlerFunc    http.HandlerFunc
		expectedStatus int
		expectedBody   string
	}{
		{"health", NewHealthHandler(ready, logger).HealthCheck, http.StatusOK, `"status":"ok"`},
		{"ready", NewHealthHandler(ready, logger).ReadinessCheck, http.StatusOK, `"status":"ready"`},
		{"not ready", NewHealthHandler(notReady, logger).ReadinessCheck, http.StatusServiceUnavailable, `"status":"not_ready"`},
		{"live", NewHealthHandler(ready, logger).LivenessCheck, http.StatusOK, `"status":"alive"`},
		{"version", NewHealthHandler(ready, logger).Version, http.StatusOK, `"version":"v1.0.0-test"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handlerFunc(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
		})
	}
}
