package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
)

type jsonLoader struct{}

func (jsonLoader) CanLoad(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".json")
}

func (jsonLoader) Load(path string) (*Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}
	return ParseJSON(b)
}

// ParseJSON accepts an array of records, an object whose first array-valued
// field holds the records, or a single object treated as one record.
// Columns follow the key order of the first record.
func ParseJSON(b []byte) (*Dataset, error) {
	if !gjson.ValidBytes(b) {
		return nil, fmt.Errorf("parse json: invalid document")
	}
	root := gjson.ParseBytes(b)
	var records []gjson.Result
	switch {
	case root.IsArray():
		records = root.Array()
	case root.IsObject():
		root.ForEach(func(_, v gjson.Result) bool {
			if v.IsArray() {
				records = v.Array()
				return false
			}
			return true
		})
		if records == nil {
			records = []gjson.Result{root}
		}
	default:
		return nil, fmt.Errorf("parse json: expected an array or object, got %s", root.Type)
	}

	ds := &Dataset{Columns: []string{}, Rows: []Row{}}
	for _, rec := range records {
		if !rec.IsObject() {
			continue
		}
		row := Row{}
		first := len(ds.Rows) == 0
		rec.ForEach(func(k, v gjson.Result) bool {
			row[k.String()] = jsonValue(v)
			if first {
				ds.Columns = append(ds.Columns, k.String())
			}
			return true
		})
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

func jsonValue(v gjson.Result) any {
	switch v.Type {
	case gjson.Null:
		return nil
	case gjson.True:
		return true
	case gjson.False:
		return false
	case gjson.Number:
		return v.Float()
	case gjson.String:
		return v.String()
	default:
		return v.Value()
	}
}
