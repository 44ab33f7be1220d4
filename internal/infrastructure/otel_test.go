package infrastructure

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"sheetpulse/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestOTelConfigFrom(t *testing.T) {
	cfg := OTelConfigFrom(config.TelemetryConfig{Environment: "prod", TraceExporter: "stdout"}, "1.2.3")
	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, "stdout", cfg.TraceExporter)
	assert.Equal(t, "prometheus", cfg.MetricExporter)
	assert.Equal(t, 1.0, cfg.SampleRatio)
	assert.Equal(t, "1.2.3", cfg.ServiceVersion)
}

func TestInitializeOTelPrometheus(t *testing.T) {
	providers, err := InitializeOTel(DefaultOTelConfig("test"), quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	require.NotNil(t, providers.PrometheusHTTP)
	assert.Nil(t, providers.TracerProvider)

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RecordExport(context.Background(), 3, 1, time.Second, nil)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "export_slides_total")
}

func TestInitializeOTelTwice(t *testing.T) {
	for i := 0; i < 2; i++ {
		providers, err := InitializeOTel(DefaultOTelConfig("test"), quietLogger())
		require.NoError(t, err)
		require.NoError(t, providers.Shutdown(context.Background()))
	}
}

func TestInitializeOTelStdoutTracing(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultOTelConfig("test")
	cfg.TraceExporter = "stdout"
	cfg.MetricExporter = "none"
	cfg.TraceWriter = &buf

	providers, err := InitializeOTel(cfg, quietLogger())
	require.NoError(t, err)
	require.NotNil(t, providers.TracerProvider)
	assert.Nil(t, providers.PrometheusHTTP)

	_, span := providers.Tracer.Start(context.Background(), "export.run")
	span.End()

	require.NoError(t, providers.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "export.run")
}

func TestInitializeOTelUnsupported(t *testing.T) {
	cfg := DefaultOTelConfig("test")
	cfg.TraceExporter = "jaeger"
	_, err := InitializeOTel(cfg, quietLogger())
	assert.Error(t, err)

	cfg = DefaultOTelConfig("test")
	cfg.MetricExporter = "statsd"
	_, err = InitializeOTel(cfg, quietLogger())
	assert.Error(t, err)
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumValue(t *testing.T, m metricdata.Metrics, attr attribute.KeyValue) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "%s is not an int64 sum", m.Name)
	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attr.Key); ok && v == attr.Value {
			total += dp.Value
		}
	}
	return total
}

func TestBusinessMetricsRecording(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := CreateBusinessMetrics(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordWorkbookLoad(ctx, "upload", nil)
	metrics.RecordWorkbookLoad(ctx, "file", assert.AnError)
	metrics.RecordSheetParse(ctx, nil)
	metrics.RecordSheetParse(ctx, nil)
	metrics.RecordChartRender(ctx, "seasonal", "html", 10*time.Millisecond, nil)
	metrics.RecordChartCache(ctx, true)
	metrics.RecordChartCache(ctx, false)
	metrics.RecordExport(ctx, 5, 2, time.Second, nil)
	metrics.RecordSystemError(ctx, "panic", "http")

	got := collect(t, reader)
	assert.EqualValues(t, 1, sumValue(t, got["workbook_loads_total"], attribute.String("status", "failure")))
	assert.EqualValues(t, 1, sumValue(t, got["workbook_loads_total"], attribute.String("source", "upload")))
	assert.EqualValues(t, 2, sumValue(t, got["workbook_sheets_parsed_total"], attribute.String("status", "success")))
	assert.EqualValues(t, 1, sumValue(t, got["chart_renders_total"], attribute.String("kind", "seasonal")))
	assert.EqualValues(t, 1, sumValue(t, got["chart_cache_lookups_total"], attribute.String("result", "hit")))
	assert.EqualValues(t, 5, sumValue(t, got["export_slides_total"], attribute.String("result", "succeeded")))
	assert.EqualValues(t, 2, sumValue(t, got["export_slides_total"], attribute.String("result", "failed")))
	assert.EqualValues(t, 1, sumValue(t, got["system_errors_total"], attribute.String("component", "http")))
}

func TestBusinessMetricsNilSafe(t *testing.T) {
	var m *BusinessMetrics
	assert.NotPanics(t, func() {
		m.RecordExport(context.Background(), 1, 0, time.Second, nil)
		m.RecordChartCache(context.Background(), true)
		m.RecordActiveExportChange(context.Background(), 1)
	})

	noop, err := CreateBusinessMetrics(nil)
	require.NoError(t, err)
	assert.NotNil(t, noop.ExportsTotal)
}

func TestSpanHelpers(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	ctx, span := tp.Tracer("test").Start(context.Background(), "chart")
	assert.Equal(t, span.SpanContext().TraceID().String(), TraceIDFromContext(ctx))

	AddSpanEvent(ctx, "cache.miss", attribute.String("column", "华东现货价"))
	RecordError(ctx, assert.AnError)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	require.Len(t, ended[0].Events(), 2)
	assert.Equal(t, "cache.miss", ended[0].Events()[0].Name)
	assert.Equal(t, "Error", ended[0].Status().Code.String())

	assert.Empty(t, TraceIDFromContext(context.Background()))
}
