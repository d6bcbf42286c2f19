package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	sugProject string
	sugAIFlags aiFlags
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest questions worth asking about a project's dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject(sugProject)
		if err != nil {
			return err
		}
		ds, err := p.LoadDataset()
		if err != nil {
			return err
		}
		a, err := sugAIFlags.newAssistant(p)
		if err != nil {
			return err
		}
		ctx, cancel := sugAIFlags.context()
		defer cancel()
		prompts := a.SuggestPrompts(ctx, ds)
		if len(prompts) == 0 {
			fmt.Fprintln(os.Stderr, "⚠ Warning: no suggestions available (run with --debug for details)")
			return nil
		}
		for _, s := range prompts {
			fmt.Printf("- %s\n", s)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(suggestCmd)
	suggestCmd.Flags().StringVarP(&sugProject, "project", "p", "", "project name")
	sugAIFlags.register(suggestCmd)
}
