package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	cfgpkg "github.com/KaramelBytes/dashloom-cli/internal/config"
	"github.com/KaramelBytes/dashloom-cli/internal/dashboard"
	"github.com/KaramelBytes/dashloom-cli/internal/dataset"
	"github.com/KaramelBytes/dashloom-cli/internal/engine"
	"github.com/KaramelBytes/dashloom-cli/internal/project"
	"github.com/KaramelBytes/dashloom-cli/internal/utils"
)

func saveConfig() error { return cfgpkg.Save(cfg, cfgFile) }

// missingColumns lists columns referenced by elements but absent from the dataset.
func missingColumns(columns []string, elements []dashboard.ElementSpec) []string {
	have := make(map[string]bool, len(columns))
	for _, c := range columns {
		have[c] = true
	}
	seen := map[string]bool{}
	var out []string
	note := func(c string) {
		if c != "" && !have[c] && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, e := range elements {
		// Query elements may alias columns freely.
		if e.DataSourceQuery != "" {
			continue
		}
		if e.Metric != nil {
			note(e.Metric.Column)
		}
		for _, m := range e.Metrics {
			note(m.Column)
		}
		if e.Dimension != nil {
			note(e.Dimension.Column)
		}
	}
	sort.Strings(out)
	return out
}

// parseFilter splits a --filter "column=value" flag.
func parseFilter(s string) (string, string, error) {
	col, val, ok := strings.Cut(s, "=")
	col = strings.TrimSpace(col)
	if !ok || col == "" {
		return "", "", fmt.Errorf("invalid --filter %q (want column=value)", s)
	}
	return col, val, nil
}

// writeJSON prints v to stdout, or writes it to path atomically.
func writeJSON(path string, v any) error {
	b, err := utils.PrettyJSON(v)
	if err != nil {
		return err
	}
	if path == "" {
		_, err = os.Stdout.Write(append(b, '\n'))
		return err
	}
	if err := utils.SafeWriteFile(path, b); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", path)
	return nil
}

// projectElement loads a project's dataset and processes one of its elements.
func projectElement(ctx context.Context, p *project.Project, id string) (dashboard.ElementSpec, engine.Result, *dataset.Dataset, error) {
	e, err := p.Element(id)
	if err != nil {
		return e, engine.Result{}, nil, err
	}
	ds, err := p.LoadDataset()
	if err != nil {
		return e, engine.Result{}, nil, err
	}
	proc, cleanup, err := newProcessor(ctx, 1)
	if err != nil {
		return e, engine.Result{}, nil, err
	}
	defer cleanup()
	return e, proc.Process(ctx, ds.Rows, e), ds, nil
}

// chartOf returns the chart arm of a result or explains why there is none.
func chartOf(e dashboard.ElementSpec, res engine.Result) (*engine.ChartData, error) {
	switch res.Kind() {
	case engine.KindError:
		return nil, fmt.Errorf("element %s failed: %s", e.ID, res.Err.Message)
	case engine.KindKPI:
		return nil, fmt.Errorf("element %s is a KPI; this needs a chart or table element", e.ID)
	}
	return res.Chart, nil
}
