package dataset

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

type xlsxLoader struct{}

func (xlsxLoader) CanLoad(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".xlsx" || ext == ".xlsm"
}

// Load reads the first worksheet; its first row is the header and empty
// cells become null.
func (xlsxLoader) Load(path string) (*Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx has no worksheets: %s", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	ds := &Dataset{Columns: []string{}, Rows: []Row{}}
	if len(rows) == 0 {
		return ds, nil
	}
	ds.Columns = append(ds.Columns, rows[0]...)
	for _, rec := range rows[1:] {
		if blankRecord(rec) {
			continue
		}
		row := make(Row, len(ds.Columns))
		for i, name := range ds.Columns {
			if i < len(rec) {
				row[name] = Typed(rec[i])
			} else {
				row[name] = nil
			}
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}
