package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/dashloom-cli/internal/dataset"
	"github.com/KaramelBytes/dashloom-cli/internal/engine"
	"github.com/KaramelBytes/dashloom-cli/internal/export"
	"github.com/spf13/cobra"
)

var (
	expProject string
	expOutput  string
	expFilter  string
)

var exportCmd = &cobra.Command{
	Use:   "export [element-id]",
	Short: "Export an element's processed data (or the dataset) to CSV or XLSX",
	Example: `  dashloom export -p sales by_region -o by_region.csv
  dashloom export -p sales by_region -o by_region.xlsx
  dashloom export -p sales --filter region=East -o east.csv`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if expOutput == "" {
			return fmt.Errorf("--output is required")
		}
		p, err := loadProject(expProject)
		if err != nil {
			return err
		}

		var (
			rows    []dataset.Row
			columns []string
			sheet   = "Data"
		)
		if len(args) == 0 {
			ds, err := p.LoadDataset()
			if err != nil {
				return err
			}
			rows, columns = ds.Rows, ds.Columns
			if expFilter != "" {
				col, val, err := parseFilter(expFilter)
				if err != nil {
					return err
				}
				rows = dataset.Filter(rows, col, val)
			}
		} else {
			if expFilter != "" {
				return fmt.Errorf("--filter applies to dataset exports only")
			}
			e, res, _, err := projectElement(context.Background(), p, args[0])
			if err != nil {
				return err
			}
			sheet = e.Title
			switch res.Kind() {
			case engine.KindError:
				return fmt.Errorf("element %s failed: %s", e.ID, res.Err.Message)
			case engine.KindKPI:
				rows = []dataset.Row{{"title": res.KPI.Title, "value": res.KPI.Value}}
				columns = []string{"title", "value"}
			default:
				rows, columns = res.Chart.Data, export.ChartColumns(*res.Chart)
			}
		}

		var path string
		switch strings.ToLower(filepath.Ext(expOutput)) {
		case ".xlsx":
			path, err = export.SaveXLSX(expOutput, sheet, rows, columns)
		case ".csv", "":
			path, err = export.SaveCSV(expOutput, rows, columns)
		default:
			return fmt.Errorf("unsupported export format %s (use .csv or .xlsx)", filepath.Ext(expOutput))
		}
		if errors.Is(err, export.ErrNoData) {
			fmt.Fprintln(os.Stderr, "⚠ Warning: no data to export")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("✓ Exported %d rows to %s\n", len(rows), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&expProject, "project", "p", "", "project name")
	exportCmd.Flags().StringVarP(&expOutput, "output", "o", "", "output file (.csv or .xlsx)")
	exportCmd.Flags().StringVar(&expFilter, "filter", "", "drill down to rows where column=value (dataset exports)")
}
