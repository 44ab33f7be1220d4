package dataprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetpulse/pkg/contracts/domain"
)

func sampleColumns() []domain.ColumnMeta {
	return []domain.ColumnMeta{
		{ID: "c1", Primary: "价格", Secondary: "华东"},
		{ID: "c2", Primary: "库存", Secondary: "全国"},
		{ID: "c3", Primary: "价格", Secondary: "华南"},
		{ID: "c4", Primary: "价格", Secondary: "华东"},
		{ID: "c5", Primary: "", Secondary: ""},
	}
}

func TestCategoryIndex(t *testing.T) {
	idx := NewCategoryIndex(sampleColumns())

	assert.Equal(t, []string{"价格", "库存", domain.UnlabeledCategory}, idx.PrimaryLabels())
	assert.Equal(t, []string{"华东", "华南"}, idx.SecondaryLabels("价格"))
	assert.Equal(t, []string{"c1", "c4"}, idx.Columns("价格", "华东"))
	assert.Equal(t, []string{"c5"}, idx.Columns(domain.UnlabeledCategory, domain.UnlabeledCategory))

	assert.Empty(t, idx.SecondaryLabels("unknown"))
	assert.Empty(t, idx.Columns("价格", "全国"))

	entry, ok := idx.Entry("c3")
	require.True(t, ok)
	assert.Equal(t, domain.CategoryEntry{Column: "c3", Primary: "价格", Secondary: "华南"}, entry)

	_, ok = idx.Entry("zzz")
	assert.False(t, ok)

	assert.Len(t, idx.Entries(), 5)
}

func TestCategoryIndexDrillDownIsNeverEmpty(t *testing.T) {
	idx := NewCategoryIndex(sampleColumns())

	total := 0
	for _, p := range idx.PrimaryLabels() {
		secondaries := idx.SecondaryLabels(p)
		require.NotEmpty(t, secondaries, "primary %q", p)
		for _, s := range secondaries {
			cols := idx.Columns(p, s)
			require.NotEmpty(t, cols, "pair %q/%q", p, s)
			total += len(cols)
		}
	}
	assert.Equal(t, 5, total, "every column is reachable exactly once")
}

func TestCategoryIndexEmpty(t *testing.T) {
	idx := NewCategoryIndex(nil)
	assert.Empty(t, idx.PrimaryLabels())
	assert.Empty(t, idx.Entries())
}
