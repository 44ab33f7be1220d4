package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetpulse/internal/shared/testutil"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got), rec.Body.String())
	return got
}

func TestErrorHandler_HandleError(t *testing.T) {
	errSheet := NewNotFoundError("sheet")

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantCode   string
		wantDetail string
	}{
		{
			name:       "wrapped not found",
			err:        fmt.Errorf("%w: %q", errSheet, "库存"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
			wantCode:   "NOT_FOUND",
			wantDetail: `[NOT_FOUND] sheet not found: "库存"`,
		},
		{
			name:       "no workbook",
			err:        NewAppError(ErrTypeNoWorkbook, "no workbook is loaded", nil),
			wantStatus: http.StatusConflict,
			wantType:   TypeNoWorkbook,
			wantCode:   "NO_WORKBOOK",
			wantDetail: "no workbook is loaded",
		},
		{
			name:       "unreadable workbook",
			err:        NewParsingError("cannot read workbook", errors.New("bad zip")),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeWorkbookFormat,
			wantCode:   "PARSING",
		},
		{
			name:       "render failure hides internals",
			err:        NewRenderError("png", errors.New("font missing")),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeRenderFailed,
			wantCode:   "RENDER",
			wantDetail: "An unexpected error occurred while processing your request",
		},
		{
			name:       "storage failure",
			err:        NewStorageError("failed to list stored workbooks", errors.New("permission denied")),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeStorage,
			wantCode:   "STORAGE",
			wantDetail: "An unexpected error occurred while processing your request",
		},
		{
			name:       "api error",
			err:        ErrValidation("window", "bad"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantCode:   "VALIDATION_FAILED",
		},
		{
			name:       "api no workbook",
			err:        ErrNoWorkbook,
			wantStatus: http.StatusConflict,
			wantType:   TypeNoWorkbook,
			wantCode:   "NO_WORKBOOK",
		},
		{
			name:       "deadline",
			err:        fmt.Errorf("export: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "unknown error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, false)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/sheets/x/chart", nil)
			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			got := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, got["type"])
			assert.EqualValues(t, tt.wantStatus, got["status"])
			assert.Equal(t, "/api/sheets/x/chart", got["instance"])
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, got["error_code"])
			}
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, got["detail"])
			}
			assert.NotContains(t, got, "stack")
			assert.True(t, logs.ContainsMessage("request failed"))
		})
	}
}

func TestErrorHandler_NilError(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	rec := httptest.NewRecorder()
	NewErrorHandler(logger, false).HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Zero(t, rec.Body.Len())
	assert.Zero(t, logs.Count())
}

func TestErrorHandler_LogLevels(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	h.HandleError(httptest.NewRecorder(), req, NewNotFoundError("column"))
	h.HandleError(httptest.NewRecorder(), req, errors.New("boom"))

	assert.Len(t, logs.GetRecordsByLevel(slog.LevelWarn), 1)
	assert.Len(t, logs.GetRecordsByLevel(slog.LevelError), 1)
}

func TestErrorHandler_ValidatorErrors(t *testing.T) {
	type body struct {
		Title string `validate:"required"`
	}
	err := validator.New().Struct(body{})
	require.Error(t, err)

	logger, _ := testutil.NewTestLogger(t)
	rec := httptest.NewRecorder()
	NewErrorHandler(logger, false).HandleError(rec, httptest.NewRequest(http.MethodPost, "/api/exports", nil), err)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	got := decodeProblem(t, rec)
	errs, ok := got["errors"].([]any)
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "Title", errs[0].(map[string]any)["field"])
}

func TestErrorHandler_StackInDevelopment(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	rec := httptest.NewRecorder()
	NewErrorHandler(logger, true).HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("boom"))

	assert.Contains(t, decodeProblem(t, rec), "stack")
}

func TestErrorHandler_NotFoundAndMethod(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/sheets", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, decodeProblem(t, rec)["detail"], "DELETE")
}

func TestRecoveryMiddleware(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("kaboom") })
	rec := httptest.NewRecorder()
	RecoveryMiddleware(h)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, TypeInternal, decodeProblem(t, rec)["type"])
	testutil.AssertLogContains(t, logs, slog.LevelError, "panic recovered")
}
