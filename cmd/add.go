package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var addProjectName string

var addCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Attach a dataset (CSV, TSV, XLSX or JSON) to a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject(addProjectName)
		if err != nil {
			return err
		}
		replaced := p.Dataset != nil
		ds, err := p.SetDataset(args[0])
		if err != nil {
			return err
		}
		if err := p.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Dataset added: %s (%d rows)\n", ds.Name, len(ds.Rows))
		fmt.Printf("  Columns: %s\n", strings.Join(p.Dataset.Columns, ", "))
		if replaced {
			fmt.Println("⚠ Warning: previous dataset replaced; stored forecasts were cleared")
		}
		if p.Spec != nil {
			missing := missingColumns(p.Dataset.Columns, p.Spec.Elements)
			if len(missing) > 0 {
				fmt.Printf("⚠ Warning: current dashboard references columns not in this dataset: %s\n", strings.Join(missing, ", "))
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().StringVarP(&addProjectName, "project", "p", "", "project name")
}
