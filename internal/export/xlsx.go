package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/dashloom-cli/internal/dataset"
	"github.com/xuri/excelize/v2"
)

// SaveXLSX writes rows to a single worksheet named sheet with a bold header.
// Numbers and booleans keep their cell types.
func SaveXLSX(path, sheet string, rows []dataset.Row, columns []string) (string, error) {
	if countRows(rows) == 0 {
		return "", ErrNoData
	}
	if filepath.Ext(path) == "" {
		path += ".xlsx"
	}
	if len(columns) == 0 {
		columns = dataset.ColumnsOf(rows)
	}
	sheet = sheetName(sheet)

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return "", fmt.Errorf("name sheet: %w", err)
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return "", fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return "", fmt.Errorf("header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return "", err
	}
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return "", fmt.Errorf("apply header style: %w", err)
	}

	line := 2
	for _, r := range rows {
		if r == nil {
			continue
		}
		values := make([]any, len(columns))
		for i, c := range columns {
			values[i] = xlsxValue(r[c])
		}
		start, err := excelize.CoordinatesToCellName(1, line)
		if err != nil {
			return "", err
		}
		if err := f.SetSheetRow(sheet, start, &values); err != nil {
			return "", fmt.Errorf("write row %d: %w", line, err)
		}
		line++
	}
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save xlsx: %w", err)
	}
	return path, nil
}

// sheetName applies Excel's worksheet naming rules.
func sheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" {
		return "Data"
	}
	if r := []rune(s); len(r) > 31 {
		s = string(r[:31])
	}
	return s
}

func xlsxValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string, bool:
		return t
	}
	if f, ok := dataset.AsFloat(v); ok {
		return f
	}
	return dataset.String(v)
}
