package dataprocessing

import (
	"sheetpulse/pkg/contracts/domain"
)

// CategoryIndex answers the primary -> secondary -> column drill-down of a
// sheet. Labels are returned in order of first appearance across columns.
type CategoryIndex struct {
	entries []domain.CategoryEntry
	byID    map[string]int
}

// NewCategoryIndex builds the index from the columns of a parsed sheet.
func NewCategoryIndex(columns []domain.ColumnMeta) *CategoryIndex {
	idx := &CategoryIndex{
		entries: make([]domain.CategoryEntry, 0, len(columns)),
		byID:    make(map[string]int, len(columns)),
	}
	for _, c := range columns {
		if _, dup := idx.byID[c.ID]; dup {
			continue
		}
		idx.byID[c.ID] = len(idx.entries)
		idx.entries = append(idx.entries, domain.CategoryEntry{
			Column:    c.ID,
			Primary:   labelOrUnlabeled(c.Primary),
			Secondary: labelOrUnlabeled(c.Secondary),
		})
	}
	return idx
}

// PrimaryLabels returns the distinct primary labels.
func (c *CategoryIndex) PrimaryLabels() []string {
	return c.distinct(func(e domain.CategoryEntry) (string, bool) {
		return e.Primary, true
	})
}

// SecondaryLabels returns the distinct secondary labels of columns under
// primary. Unknown primaries yield an empty slice.
func (c *CategoryIndex) SecondaryLabels(primary string) []string {
	return c.distinct(func(e domain.CategoryEntry) (string, bool) {
		return e.Secondary, e.Primary == primary
	})
}

// Columns returns the identifiers of columns labelled (primary, secondary),
// in sheet order.
func (c *CategoryIndex) Columns(primary, secondary string) []string {
	out := []string{}
	for _, e := range c.entries {
		if e.Primary == primary && e.Secondary == secondary {
			out = append(out, e.Column)
		}
	}
	return out
}

// Entry returns the labels of one column.
func (c *CategoryIndex) Entry(column string) (domain.CategoryEntry, bool) {
	i, ok := c.byID[column]
	if !ok {
		return domain.CategoryEntry{}, false
	}
	return c.entries[i], true
}

// Entries returns every entry in sheet order.
func (c *CategoryIndex) Entries() []domain.CategoryEntry {
	out := make([]domain.CategoryEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *CategoryIndex) distinct(pick func(domain.CategoryEntry) (string, bool)) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, e := range c.entries {
		label, ok := pick(e)
		if !ok || seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
	}
	return out
}
