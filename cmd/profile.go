package cmd

import (
	"fmt"
	"os"

	"github.com/KaramelBytes/dashloom-cli/internal/dataset"
	"github.com/KaramelBytes/dashloom-cli/internal/project"
	"github.com/KaramelBytes/dashloom-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	profProject string
	profAI      bool
	profTopK    int
	profJSON    bool
	profOutput  string
	profAIFlags aiFlags
)

var profileCmd = &cobra.Command{
	Use:   "profile [file]",
	Short: "Profile a dataset: inferred types, missing values, ranges and notes",
	Example: `  dashloom profile ./sales.csv
  dashloom profile -p sales --ai
  dashloom profile ./sales.xlsx --json --output profile.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			ds  *dataset.Dataset
			p   *project.Project
			err error
		)
		if len(args) == 1 {
			ds, err = dataset.Load(args[0])
		} else {
			if p, err = loadProject(profProject); err == nil {
				ds, err = p.LoadDataset()
			}
		}
		if err != nil {
			return err
		}

		if !profAI {
			prof := dataset.ProfileOf(ds, profTopK)
			if profJSON {
				return writeJSON(profOutput, prof)
			}
			return writeText(profOutput, prof.Markdown())
		}

		a, err := profAIFlags.newAssistant(p)
		if err != nil {
			return err
		}
		ctx, cancel := profAIFlags.context()
		defer cancel()
		fmt.Fprintf(os.Stderr, "⚙ Profiling %s with model=%s ...\n", ds.Name, a.Model())
		report, err := a.Profile(ctx, ds)
		if err != nil {
			fmt.Fprintf(os.Stderr, "⚠ Warning: %v\n", profAIFlags.explainAIError(err, a.Model()))
		}
		if profJSON {
			return writeJSON(profOutput, report)
		}
		return writeText(profOutput, report.Markdown())
	},
}

// writeText prints s or writes it to path atomically.
func writeText(path, s string) error {
	if path == "" {
		fmt.Println(s)
		return nil
	}
	if err := utils.SafeWriteFile(path, []byte(s)); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "✓ Wrote %s\n", path)
	return nil
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().StringVarP(&profProject, "project", "p", "", "profile the project's dataset")
	profileCmd.Flags().BoolVar(&profAI, "ai", false, "ask the model for the profile instead of computing it locally")
	profileCmd.Flags().IntVar(&profTopK, "top-k", 5, "top categorical values to list per column")
	profileCmd.Flags().BoolVar(&profJSON, "json", false, "emit JSON instead of Markdown")
	profileCmd.Flags().StringVar(&profOutput, "output", "", "write to a file instead of stdout")
	profAIFlags.register(profileCmd)
}
