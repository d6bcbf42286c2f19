package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type csvLoader struct{}

func (csvLoader) CanLoad(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".csv" || ext == ".tsv"
}

func (csvLoader) Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := ','
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		delim = '\t'
	}
	return ReadCSV(f, delim)
}

// ReadCSV parses delimited text with a header row. Cells are typed with Typed;
// lines whose cells are all empty are skipped.
func ReadCSV(r io.Reader, delim rune) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Dataset{Columns: []string{}, Rows: []Row{}}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	ds := &Dataset{Columns: header, Rows: []Row{}}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		if blankRecord(rec) {
			continue
		}
		row := make(Row, len(header))
		for i, name := range header {
			if i >= len(rec) {
				break
			}
			row[name] = Typed(rec[i])
		}
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

func blankRecord(rec []string) bool {
	for _, c := range rec {
		if c != "" {
			return false
		}
	}
	return true
}
