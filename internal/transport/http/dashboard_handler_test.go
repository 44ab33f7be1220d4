package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sheetpulse/internal/charts"
	apierrors "sheetpulse/internal/errors"
	mw "sheetpulse/internal/middleware"
	"sheetpulse/internal/services"
	"sheetpulse/internal/shared/testutil"
	api "sheetpulse/pkg/contracts/api/v1"
	"sheetpulse/pkg/contracts/domain"
)

// MockDashboardService is a mock implementation of DashboardServiceInterface
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Upload(ctx context.Context, r io.Reader, name string) (*api.WorkbookResponse, error) {
	data, _ := io.ReadAll(r)
	args := m.Called(string(data), name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.WorkbookResponse), args.Error(1)
}

func (m *MockDashboardService) Current(ctx context.Context) (*api.WorkbookResponse, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.WorkbookResponse), args.Error(1)
}

func (m *MockDashboardService) SheetNames(ctx context.Context) ([]string, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDashboardService) PrimaryLabels(ctx context.Context, sheet string) ([]string, error) {
	args := m.Called(sheet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDashboardService) SecondaryLabels(ctx context.Context, sheet, primary string) ([]string, error) {
	args := m.Called(sheet, primary)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDashboardService) Columns(ctx context.Context, sheet, primary, secondary string) ([]api.ColumnInfo, error) {
	args := m.Called(sheet, primary, secondary)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]api.ColumnInfo), args.Error(1)
}

func (m *MockDashboardService) ChartSpec(ctx context.Context, sheet, column string, kind domain.ChartKind, window domain.YearWindow) (charts.Spec, error) {
	args := m.Called(sheet, column, kind, window)
	return args.Get(0).(charts.Spec), args.Error(1)
}

func (m *MockDashboardService) RenderChart(ctx context.Context, sheet, column string, kind domain.ChartKind, window domain.YearWindow, format string) (*services.RenderedChart, error) {
	args := m.Called(sheet, column, kind, window, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RenderedChart), args.Error(1)
}

func newDashboardRouter(t *testing.T, svc DashboardServiceInterface, maxUpload int64) http.Handler {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)
	validator := mw.NewValidationMiddleware(logger, errorHandler)

	r := chi.NewRouter()
	r.Mount("/api", NewDashboardHandler(svc, validator, errorHandler, maxUpload, logger).Routes())
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestDashboardHandler_ListSheets(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("SheetNames").Return([]string{"价格", "库存"}, nil)

	rec := httptest.NewRecorder()
	newDashboardRouter(t, svc, 0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sheets", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, []interface{}{"价格", "库存"}, body["data"])
	assert.Equal(t, float64(2), body["count"])
	svc.AssertExpectations(t)
}

func TestDashboardHandler_NoWorkbook(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("SheetNames").Return(nil, services.ErrNoWorkbook)

	rec := httptest.NewRecorder()
	newDashboardRouter(t, svc, 0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sheets", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, apierrors.TypeNoWorkbook, body["type"])
	assert.Equal(t, "NO_WORKBOOK", body["error_code"])
}

func TestDashboardHandler_LabelRoutes(t *testing.T) {
	sheet := "价格"
	escaped := url.PathEscape(sheet)

	tests := []struct {
		name       string
		path       string
		setup      func(*MockDashboardService)
		wantStatus int
		wantData   interface{}
	}{
		{
			name:       "primary labels",
			path:       "/api/sheets/" + escaped + "/primary",
			setup:      func(m *MockDashboardService) { m.On("PrimaryLabels", sheet).Return([]string{"现货", "期货"}, nil) },
			wantStatus: http.StatusOK,
			wantData:   []interface{}{"现货", "期货"},
		},
		{
			name:       "unknown sheet",
			path:       "/api/sheets/missing/primary",
			setup:      func(m *MockDashboardService) { m.On("PrimaryLabels", "missing").Return(nil, fmt.Errorf("%w: %q", services.ErrSheetNotFound, "missing")) },
			wantStatus: http.StatusNotFound,
		},
		{
			name: "secondary labels",
			path: "/api/sheets/" + escaped + "/secondary?primary=" + url.QueryEscape("现货"),
			setup: func(m *MockDashboardService) {
				m.On("SecondaryLabels", sheet, "现货").Return([]string{"华东"}, nil)
			},
			wantStatus: http.StatusOK,
			wantData:   []interface{}{"华东"},
		},
		{
			name:       "secondary without primary",
			path:       "/api/sheets/" + escaped + "/secondary",
			setup:      func(m *MockDashboardService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "columns",
			path: "/api/sheets/" + escaped + "/columns?primary=" + url.QueryEscape("现货") + "&secondary=" + url.QueryEscape("华东"),
			setup: func(m *MockDashboardService) {
				m.On("Columns", sheet, "现货", "华东").Return([]api.ColumnInfo{{ID: "华东现货价", Frequency: "日"}}, nil)
			},
			wantStatus: http.StatusOK,
			wantData: []interface{}{map[string]interface{}{
				"id": "华东现货价", "frequency": "日", "description": "",
			}},
		},
		{
			name:       "columns without secondary",
			path:       "/api/sheets/" + escaped + "/columns?primary=" + url.QueryEscape("现货"),
			setup:      func(m *MockDashboardService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unknown label",
			path: "/api/sheets/" + escaped + "/secondary?primary=x",
			setup: func(m *MockDashboardService) {
				m.On("SecondaryLabels", sheet, "x").Return(nil, fmt.Errorf("%w: primary %q", services.ErrLabelNotFound, "x"))
			},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			tt.setup(svc)

			rec := httptest.NewRecorder()
			newDashboardRouter(t, svc, 0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantData != nil {
				assert.Equal(t, tt.wantData, decodeBody(t, rec)["data"])
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestDashboardHandler_ChartJSON(t *testing.T) {
	svc := new(MockDashboardService)
	spec := charts.Spec{Kind: domain.ChartSeasonal, Column: "主力月均价", Title: "主力月均价 季节性图表"}
	svc.On("ChartSpec", "价格", "主力月均价", domain.ChartSeasonal, domain.YearWindow8).Return(spec, nil)

	path := "/api/sheets/" + url.PathEscape("价格") + "/chart?column=" + url.QueryEscape("主力月均价") + "&kind=seasonal&window=8y"
	rec := httptest.NewRecorder()
	newDashboardRouter(t, svc, 0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "seasonal", data["kind"])
	assert.Equal(t, "主力月均价 季节性图表", data["title"])
	svc.AssertExpectations(t)
}

func TestDashboardHandler_ChartRendered(t *testing.T) {
	tests := []struct {
		format      string
		contentType string
		disposition bool
	}{
		{"html", "text/html; charset=utf-8", false},
		{"png", "image/png", false},
		{"csv", "text/csv; charset=utf-8", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			svc := new(MockDashboardService)
			svc.On("RenderChart", "价格", "a", domain.ChartTimeSeries, domain.YearWindow(""), tt.format).
				Return(&services.RenderedChart{ContentType: tt.contentType, Body: []byte("body")}, nil)

			path := "/api/sheets/" + url.PathEscape("价格") + "/chart?column=a&format=" + tt.format
			rec := httptest.NewRecorder()
			newDashboardRouter(t, svc, 0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Equal(t, "body", rec.Body.String())
			assert.Equal(t, tt.disposition, rec.Header().Get("Content-Disposition") != "")
		})
	}
}

func TestDashboardHandler_ChartValidation(t *testing.T) {
	tests := []struct {
		name  string
		query string
		field string
	}{
		{"missing column", "", "column"},
		{"bad kind", "column=a&kind=pie", "kind"},
		{"bad window", "column=a&kind=seasonal&window=3y", "window"},
		{"bad format", "column=a&format=gif", "format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockDashboardService)
			rec := httptest.NewRecorder()
			newDashboardRouter(t, svc, 0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sheets/s/chart?"+tt.query, nil))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"field":"`+tt.field+`"`)
			svc.AssertNotCalled(t, "ChartSpec", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestDashboardHandler_ChartColumnNotFound(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("ChartSpec", "s", "x", domain.ChartTimeSeries, domain.YearWindow("")).
		Return(charts.Spec{}, fmt.Errorf("%w: %q", services.ErrColumnNotFound, "x"))

	rec := httptest.NewRecorder()
	newDashboardRouter(t, svc, 0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sheets/s/chart?column=x", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apierrors.TypeNotFound, decodeBody(t, rec)["type"])
}

func TestDashboardHandler_UploadWorkbook(t *testing.T) {
	svc := new(MockDashboardService)
	svc.On("Upload", "xlsx-bytes", "book.xlsx").Return(&api.WorkbookResponse{Name: "book.xlsx", Sheets: []string{"价格"}}, nil)

	body, contentType := testutil.MultipartFile(t, "file", "book.xlsx", []byte("xlsx-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/api/workbook", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	newDashboardRouter(t, svc, 0).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	data := decodeBody(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "book.xlsx", data["name"])
	svc.AssertExpectations(t)
}

func TestDashboardHandler_UploadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		body, contentType := testutil.MultipartFile(t, "other", "book.xlsx", []byte("x"))
		req := httptest.NewRequest(http.MethodPost, "/api/workbook", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		newDashboardRouter(t, new(MockDashboardService), 0).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "MISSING_PARAMETER", decodeBody(t, rec)["error_code"])
	})

	t.Run("too large", func(t *testing.T) {
		body, contentType := testutil.MultipartFile(t, "file", "book.xlsx", bytes.Repeat([]byte("x"), 4096))
		req := httptest.NewRequest(http.MethodPost, "/api/workbook", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		newDashboardRouter(t, new(MockDashboardService), 1024).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("unreadable workbook", func(t *testing.T) {
		svc := new(MockDashboardService)
		svc.On("Upload", "junk", "junk.xlsx").Return(nil, apierrors.NewParsingError("cannot read workbook", fmt.Errorf("zip: not a valid zip file")))

		body, contentType := testutil.MultipartFile(t, "file", "junk.xlsx", []byte("junk"))
		req := httptest.NewRequest(http.MethodPost, "/api/workbook", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		newDashboardRouter(t, svc, 0).ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, apierrors.TypeWorkbookFormat, decodeBody(t, rec)["type"])
	})
}

func TestAttachment(t *testing.T) {
	assert.Equal(t, `attachment; filename="report.pptx"; filename*=UTF-8''report.pptx`, attachment("report.pptx"))
	assert.Equal(t, `attachment; filename="download.csv"; filename*=UTF-8''%E4%BB%B7%E6%A0%BC.csv`, attachment("价格.csv"))
}
