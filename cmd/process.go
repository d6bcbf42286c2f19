package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/KaramelBytes/dashloom-cli/internal/dashboard"
	"github.com/KaramelBytes/dashloom-cli/internal/dataset"
	"github.com/KaramelBytes/dashloom-cli/internal/engine"
	"github.com/KaramelBytes/dashloom-cli/internal/project"
	"github.com/spf13/cobra"
)

var (
	procProject  string
	procSpecPath string
	procDataPath string
	procFilter   string
	procElement  string
	procOutput   string
	procWorkers  int
)

// processedDashboard is the render-ready output of the process command.
type processedDashboard struct {
	Title     string                       `json:"title"`
	Story     string                       `json:"dashboardStory,omitempty"`
	Theme     string                       `json:"theme"`
	Palette   []string                     `json:"palette"`
	Filter    string                       `json:"filter,omitempty"`
	Results   []engine.Result              `json:"results"`
	Forecasts map[string]*project.Forecast `json:"forecasts,omitempty"`
	Warnings  []dashboard.Issue            `json:"specIssues,omitempty"`
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Compute every dashboard element over the dataset",
	Example: `  dashloom process -p sales
  dashloom process -p sales --filter region=East -o east.json
  dashloom process --spec dashboard.json --data sales.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		spec, ds, theme, forecasts, err := processInputs()
		if err != nil {
			return err
		}
		rows := ds.Rows
		if procFilter != "" {
			col, val, err := parseFilter(procFilter)
			if err != nil {
				return err
			}
			rows = dataset.Filter(rows, col, val)
			fmt.Fprintf(os.Stderr, "Filter %s=%s: %d of %d rows\n", col, val, len(rows), len(ds.Rows))
		}
		elements := spec.Elements
		if procElement != "" {
			e, ok := spec.Element(procElement)
			if !ok {
				return fmt.Errorf("element %q not found", procElement)
			}
			elements = []dashboard.ElementSpec{e}
		}

		ctx := context.Background()
		proc, cleanup, err := newProcessor(ctx, procWorkers)
		if err != nil {
			return err
		}
		defer cleanup()
		filtered := &dataset.Dataset{Name: ds.Name, Columns: ds.Columns, Rows: rows}
		results := proc.ProcessDashboard(ctx, filtered, elements)

		failed, degraded := 0, 0
		for _, r := range results {
			switch {
			case r.Kind() == engine.KindError:
				failed++
			case r.Degraded():
				degraded++
			}
		}
		fmt.Fprintf(os.Stderr, "✓ Processed %d elements (%d degraded, %d failed)\n", len(results), degraded, failed)

		return writeJSON(procOutput, processedDashboard{
			Title:     spec.Title,
			Story:     spec.DashboardStory,
			Theme:     theme,
			Palette:   dashboard.Themes[theme],
			Filter:    procFilter,
			Results:   results,
			Forecasts: forecasts,
			Warnings:  spec.Validate(),
		})
	},
}

// processInputs resolves the spec and dataset from a project or from files.
func processInputs() (*dashboard.Spec, *dataset.Dataset, string, map[string]*project.Forecast, error) {
	if procSpecPath != "" || procDataPath != "" {
		if procSpecPath == "" || procDataPath == "" {
			return nil, nil, "", nil, fmt.Errorf("--spec and --data must be used together")
		}
		spec, err := dashboard.LoadSpec(procSpecPath)
		if err != nil {
			return nil, nil, "", nil, err
		}
		ds, err := dataset.Load(procDataPath)
		if err != nil {
			return nil, nil, "", nil, err
		}
		return spec, ds, dashboard.ResolveTheme(spec.ThemeSuggestion), nil, nil
	}
	p, err := loadProject(procProject)
	if err != nil {
		return nil, nil, "", nil, err
	}
	if p.Spec == nil {
		return nil, nil, "", nil, fmt.Errorf("project %s has no dashboard yet; run 'dashloom generate' first", p.Name)
	}
	ds, err := p.LoadDataset()
	if err != nil {
		return nil, nil, "", nil, err
	}
	theme := p.Spec.ThemeSuggestion
	if p.Config.Theme != "" {
		theme = p.Config.Theme
	}
	// Forecasts were computed on the unfiltered series.
	forecasts := p.Forecasts
	if procFilter != "" {
		forecasts = nil
	}
	return p.Spec, ds, dashboard.ResolveTheme(theme), forecasts, nil
}

func init() {
	rootCmd.AddCommand(processCmd)
	processCmd.Flags().StringVarP(&procProject, "project", "p", "", "project name")
	processCmd.Flags().StringVar(&procSpecPath, "spec", "", "dashboard spec JSON file (with --data, instead of a project)")
	processCmd.Flags().StringVar(&procDataPath, "data", "", "dataset file (with --spec)")
	processCmd.Flags().StringVar(&procFilter, "filter", "", "drill down to rows where column=value")
	processCmd.Flags().StringVar(&procElement, "element", "", "process a single element")
	processCmd.Flags().StringVarP(&procOutput, "output", "o", "", "write JSON to a file instead of stdout")
	processCmd.Flags().IntVar(&procWorkers, "workers", 0, "elements processed concurrently (default from config, else CPU count)")
}
