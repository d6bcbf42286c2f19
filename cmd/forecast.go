package cmd

import (
	"fmt"
	"os"

	"github.com/KaramelBytes/dashloom-cli/internal/engine"
	"github.com/spf13/cobra"
)

var (
	fcProject string
	fcOutput  string
	fcAIFlags aiFlags
)

var forecastCmd = &cobra.Command{
	Use:   "forecast <element-id>",
	Short: "Forecast a chart element and stitch the result onto its history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject(fcProject)
		if err != nil {
			return err
		}
		ctx, cancel := fcAIFlags.context()
		defer cancel()
		e, res, _, err := projectElement(ctx, p, args[0])
		if err != nil {
			return err
		}
		chart, err := chartOf(e, res)
		if err != nil {
			return err
		}
		a, err := fcAIFlags.newAssistant(p)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "⚙ Forecasting %q with model=%s ...\n", e.Title, a.Model())
		fc, err := a.Forecast(ctx, e.Title, *chart)
		if err != nil {
			fmt.Fprintf(os.Stderr, "⚠ Warning: %s\n", fc.Explanation)
			return fcAIFlags.explainAIError(err, a.Model())
		}
		if len(fc.Data) == 0 {
			fmt.Fprintf(os.Stderr, "⚠ Warning: %s\n", fc.Explanation)
			return nil
		}
		p.SetForecast(e.ID, fc.Data, fc.Explanation)
		if err := p.Save(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ %d forecast points stored for %s\n", len(fc.Data), e.ID)
		fmt.Fprintln(os.Stderr, fc.Explanation)
		return writeJSON(fcOutput, engine.Stitch(*chart, fc.Data))
	},
}

func init() {
	rootCmd.AddCommand(forecastCmd)
	forecastCmd.Flags().StringVarP(&fcProject, "project", "p", "", "project name")
	forecastCmd.Flags().StringVarP(&fcOutput, "output", "o", "", "write the stitched series to a JSON file")
	fcAIFlags.register(forecastCmd)
}
