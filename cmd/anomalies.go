package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	anoProject string
	anoAIFlags aiFlags
)

var anomaliesCmd = &cobra.Command{
	Use:   "anomalies <element-id>",
	Short: "Stream an AI explanation of outliers in a chart element",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject(anoProject)
		if err != nil {
			return err
		}
		ctx, cancel := anoAIFlags.context()
		defer cancel()
		e, res, ds, err := projectElement(ctx, p, args[0])
		if err != nil {
			return err
		}
		chart, err := chartOf(e, res)
		if err != nil {
			return err
		}
		a, err := anoAIFlags.newAssistant(p)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "⚙ Analyzing %q with model=%s ...\n", e.Title, a.Model())
		err = a.Anomalies(ctx, e, *chart, ds, func(chunk string) {
			fmt.Print(chunk)
		})
		fmt.Println()
		if err != nil {
			return anoAIFlags.explainAIError(err, a.Model())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(anomaliesCmd)
	anomaliesCmd.Flags().StringVarP(&anoProject, "project", "p", "", "project name")
	anoAIFlags.register(anomaliesCmd)
}
