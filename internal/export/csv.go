// Package export serializes processed element data to CSV and XLSX files.
package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/KaramelBytes/dashloom-cli/internal/dataset"
	"github.com/KaramelBytes/dashloom-cli/internal/engine"
	"github.com/KaramelBytes/dashloom-cli/internal/utils"
)

// ErrNoData is returned when there are no rows to export.
var ErrNoData = errors.New("no data to export")

// ChartColumns orders columns for a processed chart: dimension first, then
// metrics, then any remaining keys in sorted order.
func ChartColumns(c engine.ChartData) []string {
	var cols []string
	add := func(k string) {
		if k != "" && !slices.Contains(cols, k) {
			cols = append(cols, k)
		}
	}
	add(c.DimensionKey)
	for _, k := range c.MetricKeys {
		add(k)
	}
	var rest []string
	for _, k := range dataset.ColumnsOf(c.Data) {
		if !slices.Contains(cols, k) {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(cols, rest...)
}

// WriteCSV writes rows with a header line. When columns is empty the union
// of row keys is used. Null and missing values become empty fields.
func WriteCSV(w io.Writer, rows []dataset.Row, columns []string) error {
	if countRows(rows) == 0 {
		return ErrNoData
	}
	if len(columns) == 0 {
		columns = dataset.ColumnsOf(rows)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(columns))
	for _, r := range rows {
		if r == nil {
			continue
		}
		for i, c := range columns {
			rec[i] = cell(r[c])
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveCSV writes rows to path atomically, appending ".csv" when the name
// has no extension. It returns the path written.
func SaveCSV(path string, rows []dataset.Row, columns []string) (string, error) {
	if filepath.Ext(path) == "" {
		path += ".csv"
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows, columns); err != nil {
		return "", err
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

// Filename normalizes a user supplied export name.
func Filename(name, ext string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "export"
	}
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	if !strings.EqualFold(filepath.Ext(name), ext) {
		name += ext
	}
	return name
}

func cell(v any) string {
	if v == nil {
		return ""
	}
	return dataset.String(v)
}

func countRows(rows []dataset.Row) int {
	n := 0
	for _, r := range rows {
		if r != nil {
			n++
		}
	}
	return n
}
