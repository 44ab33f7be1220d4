package http

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetpulse/pkg/contracts/domain"
)

func TestPageHandler_BuiltInPage(t *testing.T) {
	h, err := NewPageHandler("", DefaultPageData("v1.2.3", domain.YearWindow8), nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeDashboard(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "<title>SheetPulse</title>")
	assert.Contains(t, body, `<option value="seasonal">季节性图表</option>`)
	assert.Contains(t, body, `<option value="8y" selected>8年</option>`)
	assert.Contains(t, body, "v1.2.3")
}

func TestPageHandler_Override(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<p>{{.Title}} custom</p>"), 0644))

	h, err := NewPageHandler(dir, DefaultPageData("dev", ""), nil)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.ServeDashboard(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "<p>SheetPulse custom</p>", rec.Body.String())
}
