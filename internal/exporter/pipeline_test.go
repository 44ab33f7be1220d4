package exporter

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sheetpulse/internal/charts"
	"sheetpulse/internal/shared/testutil"
	"sheetpulse/pkg/contracts/domain"
)

type mockSpecSource struct {
	mock.Mock
}

func (m *mockSpecSource) ChartSpec(ctx context.Context, sheet, column string, kind domain.ChartKind, window domain.YearWindow) (charts.Spec, error) {
	args := m.Called(ctx, sheet, column, kind, window)
	return args.Get(0).(charts.Spec), args.Error(1)
}

type mockImageRenderer struct {
	mock.Mock
	dir string
	t   *testing.T
}

func (m *mockImageRenderer) RenderImage(ctx context.Context, spec charts.Spec, dest string) error {
	args := m.Called(ctx, spec, dest)
	if err := args.Error(0); err != nil {
		return err
	}
	src := writePNG(m.t, m.dir, filepath.Base(dest), 20, 10)
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dest, data, 0644)
}

func TestPipelineRunSkipsFailedItems(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	specs := &mockSpecSource{}
	images := &mockImageRenderer{dir: t.TempDir(), t: t}

	ok1 := Item{Sheet: "价格", Column: "a", Kind: domain.ChartTimeSeries}
	badSpec := Item{Sheet: "价格", Column: "missing", Kind: domain.ChartTimeSeries}
	badImage := Item{Sheet: "价格", Column: "b", Kind: domain.ChartSeasonal, Window: domain.YearWindow5}
	ok2 := Item{Sheet: "库存", Column: "c", Kind: domain.ChartSeasonal, Window: domain.YearWindowAll}

	specFor := func(col string) charts.Spec { return charts.Spec{Title: col + " chart", Description: col} }
	specs.On("ChartSpec", mock.Anything, "价格", "a", domain.ChartTimeSeries, domain.YearWindow("")).Return(specFor("a"), nil)
	specs.On("ChartSpec", mock.Anything, "价格", "missing", domain.ChartTimeSeries, domain.YearWindow("")).Return(charts.Spec{}, errors.New("column not found"))
	specs.On("ChartSpec", mock.Anything, "价格", "b", domain.ChartSeasonal, domain.YearWindow5).Return(specFor("b"), nil)
	specs.On("ChartSpec", mock.Anything, "库存", "c", domain.ChartSeasonal, domain.YearWindowAll).Return(specFor("c"), nil)

	images.On("RenderImage", mock.Anything, specFor("a"), mock.Anything).Return(nil)
	images.On("RenderImage", mock.Anything, specFor("b"), mock.Anything).Return(errors.New("browser crashed"))
	images.On("RenderImage", mock.Anything, specFor("c"), mock.Anything).Return(nil)

	out := filepath.Join(t.TempDir(), "deck.pptx")
	p := NewPipeline(specs, images, t.TempDir(), logger)

	res, err := p.Run(context.Background(), "周报", []Item{ok1, badSpec, badImage, ok2}, out)
	require.NoError(t, err)

	assert.Equal(t, []Item{ok1, ok2}, res.Succeeded)
	require.Len(t, res.Failed, 2)
	assert.Equal(t, badSpec, res.Failed[0].Item)
	assert.ErrorContains(t, res.Failed[0].Err, "column not found")
	assert.Equal(t, badImage, res.Failed[1].Item)
	assert.ErrorContains(t, res.Failed[1].Err, "browser crashed")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	files := readZip(t, data)
	assert.Contains(t, files, "ppt/slides/slide2.xml")
	assert.NotContains(t, files, "ppt/slides/slide3.xml")
	assert.Contains(t, files["ppt/slides/slide2.xml"], "c chart")

	assert.Len(t, handler.GetRecordsByLevel(slog.LevelWarn), 2)
	testutil.AssertLogAttr(t, handler, "column", "missing")
	specs.AssertExpectations(t)
	images.AssertExpectations(t)
}

func TestPipelineRunAllFailedStillWritesDeck(t *testing.T) {
	specs := &mockSpecSource{}
	specs.On("ChartSpec", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(charts.Spec{}, errors.New("no workbook"))

	out := filepath.Join(t.TempDir(), "deck.pptx")
	p := NewPipeline(specs, &mockImageRenderer{}, "", nil)

	res, err := p.Run(context.Background(), "t", []Item{{Sheet: "s", Column: "x"}}, out)
	require.NoError(t, err)
	assert.Empty(t, res.Succeeded)
	assert.Len(t, res.Failed, 1)
	assert.FileExists(t, out)
}

func TestPipelineRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := filepath.Join(t.TempDir(), "deck.pptx")
	p := NewPipeline(&mockSpecSource{}, &mockImageRenderer{}, "", nil)

	res, err := p.Run(ctx, "t", []Item{{Column: "a"}, {Column: "b"}}, out)
	require.NoError(t, err)
	require.Len(t, res.Failed, 2)
	assert.ErrorIs(t, res.Failed[0].Err, context.Canceled)
}

func TestPipelineRunUnwritableDeck(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	p := NewPipeline(&mockSpecSource{}, &mockImageRenderer{}, "", nil)
	_, err := p.Run(context.Background(), "t", nil, filepath.Join(blocker, "deck.pptx"))
	assert.Error(t, err)
}
