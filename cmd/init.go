package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/dashloom-cli/internal/project"
	"github.com/KaramelBytes/dashloom-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	initDescription string
	initData        string
)

var initCmd = &cobra.Command{
	Use:   "init <project-name>",
	Short: "Initialize a new dashboard project",
	Example: `  dashloom init sales -d "Quarterly sales"
  dashloom init sales --data ./sales.csv`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		projDir, err := resolveProjectDirByName(name)
		if err != nil {
			return err
		}
		// Refuse to overwrite an existing project.
		if info, err := os.Stat(projDir); err == nil && info.IsDir() {
			if _, err := os.Stat(filepath.Join(projDir, utils.ProjectFile)); err == nil {
				return fmt.Errorf("project already exists at %s", projDir)
			}
			entries, err := os.ReadDir(projDir)
			if err != nil {
				return fmt.Errorf("inspect project directory: %w", err)
			}
			if len(entries) > 0 {
				return fmt.Errorf("directory %s already exists and is not empty; refusing to initialize project", projDir)
			}
		} else if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("stat project directory: %w", err)
		}
		p := project.NewProject(name, initDescription, projDir)
		if initData != "" {
			ds, err := p.SetDataset(initData)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Dataset attached: %s (%d rows, %d columns)\n", ds.Name, len(ds.Rows), len(p.Dataset.Columns))
		}
		if err := p.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Project initialized: %s\n", projDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initDescription, "desc", "d", "", "project description")
	initCmd.Flags().StringVar(&initData, "data", "", "dataset file to attach (CSV, TSV, XLSX or JSON)")
}
