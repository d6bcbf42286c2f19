package project_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/dashloom-cli/internal/dashboard"
	"github.com/KaramelBytes/dashloom-cli/internal/dataset"
	"github.com/KaramelBytes/dashloom-cli/internal/project"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, dir string) string {
	t.Helper()
	p := filepath.Join(dir, "sales.csv")
	require.NoError(t, os.WriteFile(p, []byte("region,sales\nEast,10\nWest,5\n"), 0o644))
	return p
}

func spec(ids ...string) *dashboard.Spec {
	s := &dashboard.Spec{Title: "Sales"}
	for _, id := range ids {
		s.Elements = append(s.Elements, dashboard.ElementSpec{ID: id, Type: dashboard.Table, Title: id})
	}
	return s
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	tdir := t.TempDir()
	proj := project.NewProject("demo", "quarterly", filepath.Join(tdir, "proj"))
	_, err := proj.SetDataset(writeCSV(t, tdir))
	require.NoError(t, err)
	proj.RecordGeneration("show sales by region", "m", spec("e1"), false, false)
	require.NoError(t, proj.Save())

	loaded, err := project.LoadProject(proj.RootDir())
	require.NoError(t, err)
	assert.Equal(t, "demo", loaded.Name)
	assert.Equal(t, []string{"region", "sales"}, loaded.Dataset.Columns)
	assert.Equal(t, 2, loaded.Dataset.Rows)
	require.NotNil(t, loaded.Spec)
	assert.Equal(t, "e1", loaded.Spec.Elements[0].ID)
	assert.Equal(t, []string{"show sales by region"}, loaded.Prompts())
	assert.NotNil(t, loaded.Config)
}

func TestLoadProjectMissing(t *testing.T) {
	_, err := project.LoadProject(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project not found")
}

func TestLoadDatasetRereadsFile(t *testing.T) {
	tdir := t.TempDir()
	proj := project.NewProject("demo", "", filepath.Join(tdir, "proj"))
	_, err := proj.LoadDataset()
	require.ErrorIs(t, err, project.ErrNoDataset)

	_, err = proj.SetDataset(writeCSV(t, tdir))
	require.NoError(t, err)
	ds, err := proj.LoadDataset()
	require.NoError(t, err)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, dataset.Row{"region": "East", "sales": 10.0}, ds.Rows[0])
}

func TestSetDatasetRejectsUnsupported(t *testing.T) {
	tdir := t.TempDir()
	p := filepath.Join(tdir, "notes.txt")
	require.NoError(t, os.WriteFile(p, []byte("hello"), 0o644))
	proj := project.NewProject("demo", "", tdir)
	_, err := proj.SetDataset(p)
	require.ErrorIs(t, err, dataset.ErrUnsupported)
	assert.Nil(t, proj.Dataset)
}

func TestFailedGenerationStaysInHistoryOnly(t *testing.T) {
	proj := project.NewProject("demo", "", t.TempDir())
	proj.RecordGeneration("first", "m", spec("a"), false, false)
	proj.RecordGeneration("broken", "m", spec("error_element_api"), true, true)

	require.Len(t, proj.History, 2)
	assert.True(t, proj.History[1].Failed)
	assert.True(t, proj.History[1].Refinement)
	assert.Equal(t, "a", proj.Spec.Elements[0].ID)
}

func TestRefinementDropsStaleForecasts(t *testing.T) {
	proj := project.NewProject("demo", "", t.TempDir())
	proj.RecordGeneration("first", "m", spec("a", "b"), false, false)
	proj.SetForecast("a", []dataset.Row{{"x": 1.0}}, "up")
	proj.SetForecast("b", nil, "flat")

	proj.RecordGeneration("drop b", "m", spec("a"), true, false)
	assert.Contains(t, proj.Forecasts, "a")
	assert.NotContains(t, proj.Forecasts, "b")
}

func TestRevertAndElementLookup(t *testing.T) {
	proj := project.NewProject("demo", "", t.TempDir())
	_, err := proj.Element("a")
	require.ErrorIs(t, err, project.ErrNoSpec)

	first := proj.RecordGeneration("first", "m", spec("a"), false, false)
	proj.RecordGeneration("second", "m", spec("b"), true, false)
	_, err = proj.Element("a")
	require.Error(t, err)

	require.True(t, proj.Revert(first.ID))
	e, err := proj.Element("a")
	require.NoError(t, err)
	assert.Equal(t, "a", e.Title)
	assert.False(t, proj.Revert("unknown"))
}
