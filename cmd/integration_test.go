package cmd

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/dashloom-cli/internal/project"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag to its default so state from one
// invocation does not leak into the next.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) error {
	t.Helper()
	resetFlags(rootCmd)
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func mustRun(t *testing.T, args ...string) {
	t.Helper()
	require.NoError(t, runCmd(t, args...), "command %v", args)
}

func isolatedHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	cfg = nil
	return home
}

func writeSales(t *testing.T, dir string) string {
	t.Helper()
	p := filepath.Join(dir, "sales.csv")
	body := "month,region,sales\nJan,East,10\nFeb,West,5\nMar,East,7\nApr,West,12\n"
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

const fakeSpec = `{
  "title": "Sales overview",
  "dashboardStory": "Sales by region and month.",
  "themeSuggestion": "ocean_breeze",
  "elements": [
    {"id": "total", "type": "KPI", "title": "Total sales", "metric": {"column": "sales", "operation": "SUM"}},
    {"id": "by_region", "type": "BarChart", "title": "By region",
     "metrics": [{"column": "sales", "operation": "SUM"}], "dimension": {"column": "region"}},
    {"id": "trend", "type": "LineChart", "title": "Trend",
     "metrics": [{"column": "sales", "operation": "NONE"}], "dimension": {"column": "month"}}
  ]
}`

const fakeForecast = `{"forecastedData": [{"month": "May", "sales": 13}, {"month": "Jun", "sales": 14}], "forecastExplanation": "Rising."}`

// fakeOllama answers chat requests with canned dashboard and forecast JSON.
func fakeOllama(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		content := fakeSpec
		if strings.Contains(string(b), "forecastedData") {
			content = fakeForecast
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": "```json\n" + content + "\n```"},
			"done":    true,
		})
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestCLI_InitAddGenerateProcessExport(t *testing.T) {
	home := isolatedHome(t)
	data := writeSales(t, home)
	ollama := fakeOllama(t)
	ai := []string{"--provider", "ollama", "--ollama-host", ollama.URL, "--model", "llama3.1:8b"}

	mustRun(t, "init", "itest", "-d", "integration test")
	mustRun(t, "add", "-p", "itest", data)
	mustRun(t, append([]string{"generate", "-p", "itest", "Compare regions"}, ai...)...)

	dir := filepath.Join(home, ".dashloom", "projects", "itest")
	p, err := project.LoadProject(dir)
	require.NoError(t, err)
	require.NotNil(t, p.Spec)
	assert.Equal(t, "Sales overview", p.Spec.Title)
	require.Len(t, p.History, 1)
	assert.False(t, p.History[0].Failed)

	out := filepath.Join(home, "east.json")
	mustRun(t, "process", "-p", "itest", "--filter", "region=East", "-o", out)
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	var processed struct {
		Theme   string `json:"theme"`
		Results []struct {
			ID  string         `json:"id"`
			KPI map[string]any `json:"kpi"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(b, &processed))
	assert.Equal(t, "ocean_breeze", processed.Theme)
	require.Len(t, processed.Results, 3)
	assert.EqualValues(t, 17, processed.Results[0].KPI["value"])

	csvPath := filepath.Join(home, "by_region.csv")
	mustRun(t, "export", "-p", "itest", "by_region", "-o", csvPath)
	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"region", "sales"}, {"East", "17"}, {"West", "17"}}, records)

	stitched := filepath.Join(home, "trend.json")
	mustRun(t, append([]string{"forecast", "-p", "itest", "trend", "-o", stitched}, ai...)...)
	p, err = project.LoadProject(dir)
	require.NoError(t, err)
	require.Contains(t, p.Forecasts, "trend")
	assert.Len(t, p.Forecasts["trend"].Data, 2)

	mustRun(t, "list", "--history", "-p", "itest")
	mustRun(t, "list", "--projects")
}

func TestCLI_GenerateFailureKeepsHistoryOnly(t *testing.T) {
	home := isolatedHome(t)
	data := writeSales(t, home)
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]string{"role": "assistant", "content": "not json at all"},
			"done":    true,
		})
	}))
	t.Cleanup(broken.Close)

	mustRun(t, "init", "broken", "--data", data)
	err := runCmd(t, "generate", "-p", "broken", "Anything", "--provider", "ollama", "--ollama-host", broken.URL, "--model", "llama3.1:8b")
	require.Error(t, err)

	p, err := project.LoadProject(filepath.Join(home, ".dashloom", "projects", "broken"))
	require.NoError(t, err)
	assert.Nil(t, p.Spec)
	require.Len(t, p.History, 1)
	assert.True(t, p.History[0].Failed)
	assert.Equal(t, "AI Specification Error", p.History[0].Spec.Title)
}

func TestCLI_GenerateDryRunAndBudget(t *testing.T) {
	home := isolatedHome(t)
	data := writeSales(t, home)
	mustRun(t, "init", "dry", "--data", data)
	mustRun(t, "generate", "-p", "dry", "--dry-run", "Sales by region")

	// A paid model with a tiny budget is refused before any request.
	err := runCmd(t, "generate", "-p", "dry", "--dry-run", "--model", "openai/gpt-4o", "--budget-limit", "0.000001", "Sales by region")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds budget limit")

	err = runCmd(t, "generate", "-p", "dry", "--refine", "Tweak it")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to refine")
}

func TestCLI_ProcessFromFiles(t *testing.T) {
	home := isolatedHome(t)
	data := writeSales(t, home)
	specPath := filepath.Join(home, "spec.json")
	require.NoError(t, os.WriteFile(specPath, []byte(fakeSpec), 0o644))
	out := filepath.Join(home, "out.json")

	mustRun(t, "process", "--spec", specPath, "--data", data, "--element", "by_region", "-o", out)
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"dimensionKey": "region"`)

	require.Error(t, runCmd(t, "process", "--spec", specPath))
	require.Error(t, runCmd(t, "process", "--spec", specPath, "--data", data, "--filter", "nocolumn"))
}

func TestCLI_InitRefusesExisting(t *testing.T) {
	isolatedHome(t)
	mustRun(t, "init", "twice")
	require.Error(t, runCmd(t, "init", "twice"))
	require.Error(t, runCmd(t, "list"))
}
