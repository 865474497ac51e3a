package form

import "strings"

// ListField is an ordered sequence of single-text value cells backing a
// dynamic form section such as the curriculum or requirement lists. Cells
// can be appended, edited and removed by index; validation and payload
// construction run over the blank-filtered projection, never the raw cells.
type ListField struct {
	items []string
}

// NewListField seeds the field. An empty seed still yields one blank cell so
// the form always shows an input row.
func NewListField(items ...string) *ListField {
	f := &ListField{}
	if len(items) == 0 {
		items = []string{""}
	}
	f.items = append(f.items, items...)
	return f
}

// Append adds a blank cell at the end.
func (f *ListField) Append() {
	f.items = append(f.items, "")
}

// RemoveAt drops the cell at index i; out-of-range indexes are ignored. The
// last remaining cell is cleared instead of removed.
func (f *ListField) RemoveAt(i int) {
	if i < 0 || i >= len(f.items) {
		return
	}
	if len(f.items) == 1 {
		f.items[0] = ""
		return
	}
	f.items = append(f.items[:i], f.items[i+1:]...)
}

// SetAt replaces the text of cell i; out-of-range indexes are ignored.
func (f *ListField) SetAt(i int, text string) {
	if i < 0 || i >= len(f.items) {
		return
	}
	f.items[i] = text
}

// Items returns the raw cells, blanks included, for rendering.
func (f *ListField) Items() []string {
	out := make([]string, len(f.items))
	copy(out, f.items)
	return out
}

// Filtered returns the trimmed non-blank projection used for validation and
// payloads.
func (f *ListField) Filtered() []string {
	out := make([]string, 0, len(f.items))
	for _, item := range f.items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
