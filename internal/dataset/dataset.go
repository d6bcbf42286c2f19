package dataset

import "sort"

// Row is one record keyed by column name. Values are float64, string, bool or nil.
// A missing key means the row does not carry the column; a nil value means null.
type Row map[string]any

// Dataset is the tabular input shared by every dashboard element.
type Dataset struct {
	Name    string   `json:"name,omitempty"`
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Sample returns up to n leading rows.
func (d *Dataset) Sample(n int) []Row {
	if d == nil || n <= 0 {
		return nil
	}
	if n > len(d.Rows) {
		n = len(d.Rows)
	}
	return d.Rows[:n]
}

// Has reports whether the row carries column, even when its value is null.
func (r Row) Has(column string) bool {
	if r == nil {
		return false
	}
	_, ok := r[column]
	return ok
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ColumnsOf derives a stable column list from rows whose source order is
// unknown: keys are collected row by row, each row's new keys sorted.
func ColumnsOf(rows []Row) []string {
	seen := map[string]bool{}
	var cols []string
	for _, r := range rows {
		var fresh []string
		for k := range r {
			if !seen[k] {
				seen[k] = true
				fresh = append(fresh, k)
			}
		}
		sort.Strings(fresh)
		cols = append(cols, fresh...)
	}
	return cols
}

// Filter keeps rows whose column renders to value, mirroring a chart drill-down.
// The input slice is not modified.
func Filter(rows []Row, column, value string) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		v, ok := r[column]
		if !ok {
			continue
		}
		if v == nil {
			if value == "N/A" {
				out = append(out, r)
			}
			continue
		}
		if String(v) == value {
			out = append(out, r)
		}
	}
	return out
}
