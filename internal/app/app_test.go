package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetpulse/internal/config"
	"sheetpulse/internal/shared/testutil"
	handlers "sheetpulse/internal/transport/http"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Port = 0
	cfg.Paths.BaseDir = t.TempDir()
	cfg.Export.Renderer = config.RendererStatic
	cfg.Export.Width = 400
	cfg.Export.Height = 300
	cfg.Security.RateLimit.Enabled = false
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	a, err := New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = a.OTelProviders.Shutdown(context.Background())
	})
	return a
}

func loadedApp(t *testing.T) *Application {
	t.Helper()
	cfg := testConfig(t)
	cfg.Dashboard.WorkbookPath = testutil.WriteWorkbook(t, testutil.PriceSheet())
	return newTestApp(t, cfg)
}

func serve(a *Application, method, target string, body []byte, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	return rec
}

func TestNew_Routes(t *testing.T) {
	a := loadedApp(t)
	require.True(t, a.Dashboard.Loaded())

	sheet := url.PathEscape("价格")
	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"dashboard page", "/", http.StatusOK},
		{"health", "/api/health", http.StatusOK},
		{"readiness", "/api/health/ready", http.StatusOK},
		{"liveness", "/api/health/live", http.StatusOK},
		{"version", "/api/version", http.StatusOK},
		{"workbook", "/api/workbook", http.StatusOK},
		{"sheets", "/api/sheets", http.StatusOK},
		{"primary labels", "/api/sheets/" + sheet + "/primary", http.StatusOK},
		{"chart spec", "/api/sheets/" + sheet + "/chart?column=" + url.QueryEscape("华东现货价"), http.StatusOK},
		{"unknown sheet", "/api/sheets/nope/primary", http.StatusNotFound},
		{"unknown export", "/api/exports/nope", http.StatusNotFound},
		{"unknown route", "/api/nope/deeper", http.StatusNotFound},
		{"metrics", "/metrics", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(a, http.MethodGet, tt.path, nil, "")
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestNew_MiddlewareHeaders(t *testing.T) {
	a := loadedApp(t)

	rec := serve(a, http.MethodGet, "/api/health", nil, "")

	assert.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestNew_WithoutWorkbook(t *testing.T) {
	a := newTestApp(t, testConfig(t))
	assert.False(t, a.Dashboard.Loaded())

	rec := serve(a, http.MethodGet, "/api/workbook", nil, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Uploads must still be possible, so the instance reports ready.
	rec = serve(a, http.MethodGet, "/api/health/ready", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var status struct {
		Status   string `json:"status"`
		Services map[string]struct {
			Status string `json:"status"`
		} `json:"services"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ready", status.Status)
	assert.Equal(t, "empty", status.Services["workbook"].Status)
}

func TestNew_UnreadableWorkbookIsSkipped(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dashboard.WorkbookPath = "missing.xlsx"

	logger, logs := testutil.NewTestLogger(t)
	a, err := New(cfg, logger)
	require.NoError(t, err)
	defer a.OTelProviders.Shutdown(context.Background())

	assert.False(t, a.Dashboard.Loaded())
	assert.True(t, logs.ContainsMessage("Configured workbook could not be loaded"))
}

func TestNew_AutoLoadsLatestWorkbook(t *testing.T) {
	cfg := testConfig(t)
	dataDir := filepath.Join(cfg.Paths.BaseDir, config.DefaultDataDir)
	require.NoError(t, os.MkdirAll(dataDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "prices.xlsx"),
		testutil.WorkbookBytes(t, testutil.PriceSheet()), 0644))

	a := newTestApp(t, cfg)
	require.True(t, a.Dashboard.Loaded())

	rec := serve(a, http.MethodGet, "/api/workbooks", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "prices.xlsx")

	rec = serve(a, http.MethodPost, "/api/workbooks/prices.xlsx", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(a, http.MethodPost, "/api/workbooks/missing.xlsx", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNew_AutoLoadDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dashboard.AutoLoadLatest = false
	dataDir := filepath.Join(cfg.Paths.BaseDir, config.DefaultDataDir)
	require.NoError(t, os.MkdirAll(dataDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "prices.xlsx"),
		testutil.WorkbookBytes(t, testutil.PriceSheet()), 0644))

	a := newTestApp(t, cfg)
	assert.False(t, a.Dashboard.Loaded())
}

func TestNew_InvalidDefaultWindow(t *testing.T) {
	cfg := testConfig(t)
	cfg.Dashboard.DefaultWindow = "12y"

	_, err := New(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default window")
}

func TestNew_ExportRoundTrip(t *testing.T) {
	a := loadedApp(t)

	body := []byte(`{"title":"周报","items":[{"sheet":"价格","column":"华东现货价"},{"sheet":"价格","column":"主力月均价","kind":"seasonal"}]}`)
	rec := serve(a, http.MethodPost, "/api/exports", body, "application/json")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Data struct {
			ID          string `json:"id"`
			Succeeded   int    `json:"succeeded"`
			DownloadURL string `json:"download_url"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, 2, created.Data.Succeeded)
	assert.True(t, strings.HasSuffix(created.Data.DownloadURL, created.Data.ID))

	rec = serve(a, http.MethodGet, created.Data.DownloadURL, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, handlers.DeckContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".pptx")
	assert.NotZero(t, rec.Body.Len())
}

func TestNew_UploadReplacesWorkbook(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	body, contentType := testutil.MultipartFile(t, "file", "prices.xlsx", testutil.WorkbookBytes(t, testutil.PriceSheet()))

	rec := serve(a, http.MethodPost, "/api/workbook", body.Bytes(), contentType)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, a.Dashboard.Loaded())

	rec = serve(a, http.MethodGet, "/api/sheets", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "价格")
}

func TestApplication_StartStop(t *testing.T) {
	a := newTestApp(t, testConfig(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, a.Start(ctx, cancel))
	assert.NoError(t, a.Stop(ctx))
}

func TestGenerateBuildID(t *testing.T) {
	id := generateBuildID()
	assert.Len(t, id, 12)
	assert.Equal(t, id, generateBuildID())
}
