package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadCSVDynamicTyping(t *testing.T) {
	p := writeFile(t, "sales.csv", "Region,Sales,Active,Note\nEast,100,true,\"hello, world\"\n\nWest,200.5,false,\n,,,\nNorth,abc,TRUE,x\n")
	ds, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "sales.csv", ds.Name)
	assert.Equal(t, []string{"Region", "Sales", "Active", "Note"}, ds.Columns)
	require.Len(t, ds.Rows, 3)
	assert.Equal(t, Row{"Region": "East", "Sales": 100.0, "Active": true, "Note": "hello, world"}, ds.Rows[0])
	assert.Equal(t, Row{"Region": "West", "Sales": 200.5, "Active": false, "Note": nil}, ds.Rows[1])
	assert.Equal(t, "abc", ds.Rows[2]["Sales"])
}

func TestLoadTSVShortRecord(t *testing.T) {
	p := writeFile(t, "data.tsv", "a\tb\n1\n")
	ds, err := Load(p)
	require.NoError(t, err)
	require.Len(t, ds.Rows, 1)
	assert.True(t, ds.Rows[0].Has("a"))
	assert.False(t, ds.Rows[0].Has("b"))
}

func TestLoadJSONShapes(t *testing.T) {
	t.Run("array", func(t *testing.T) {
		ds, err := ParseJSON([]byte(`[{"z":1,"a":"x"},{"z":2,"a":null}]`))
		require.NoError(t, err)
		assert.Equal(t, []string{"z", "a"}, ds.Columns)
		require.Len(t, ds.Rows, 2)
		assert.Nil(t, ds.Rows[1]["a"])
		assert.True(t, ds.Rows[1].Has("a"))
	})
	t.Run("wrapped", func(t *testing.T) {
		ds, err := ParseJSON([]byte(`{"meta":{"v":1},"records":[{"k":true}],"other":[1]}`))
		require.NoError(t, err)
		require.Len(t, ds.Rows, 1)
		assert.Equal(t, true, ds.Rows[0]["k"])
	})
	t.Run("single", func(t *testing.T) {
		ds, err := ParseJSON([]byte(`{"name":"solo","n":3}`))
		require.NoError(t, err)
		require.Len(t, ds.Rows, 1)
		assert.Equal(t, []string{"name", "n"}, ds.Columns)
	})
	t.Run("invalid", func(t *testing.T) {
		_, err := ParseJSON([]byte(`{"broken":`))
		assert.Error(t, err)
	})
}

func TestLoadXLSXFirstSheet(t *testing.T) {
	p := filepath.Join(t.TempDir(), "book.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Region", "Sales"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"East", 100}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"West"}))
	require.NoError(t, f.SaveAs(p))
	require.NoError(t, f.Close())

	ds, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, []string{"Region", "Sales"}, ds.Columns)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, 100.0, ds.Rows[0]["Sales"])
	assert.Nil(t, ds.Rows[1]["Sales"])
	assert.True(t, ds.Rows[1].Has("Sales"))
}

func TestLoadUnsupported(t *testing.T) {
	p := writeFile(t, "notes.txt", "hello")
	_, err := Load(p)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFilterDrillDown(t *testing.T) {
	rows := []Row{
		{"Region": "East", "Sales": 1.0},
		{"Region": "West", "Sales": 2.0},
		{"Region": nil, "Sales": 3.0},
		{"Sales": 4.0},
		nil,
	}
	got := Filter(rows, "Region", "East")
	require.Len(t, got, 1)
	assert.Equal(t, 1.0, got[0]["Sales"])

	got = Filter(rows, "Region", "N/A")
	require.Len(t, got, 1)
	assert.Equal(t, 3.0, got[0]["Sales"])
	assert.Len(t, rows, 5)
}

func TestColumnsOfIsStable(t *testing.T) {
	rows := []Row{{"b": 1, "a": 2}, {"c": 3, "a": 1}}
	assert.Equal(t, []string{"a", "b", "c"}, ColumnsOf(rows))
}
