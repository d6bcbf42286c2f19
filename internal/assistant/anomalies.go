package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/KaramelBytes/dashloom-cli/internal/ai"
	"github.com/KaramelBytes/dashloom-cli/internal/dashboard"
	"github.com/KaramelBytes/dashloom-cli/internal/dataset"
	"github.com/KaramelBytes/dashloom-cli/internal/engine"
)

const noAnomalies = "no significant anomalies"

// Anomalies streams a markdown narrative of the outliers in chart through
// onChunk. Short answers get an "Analysis Incomplete" note and failures are
// emitted as an "AI Analysis Error" section; the error is also returned.
func (a *Assistant) Anomalies(ctx context.Context, e dashboard.ElementSpec, chart engine.ChartData, ds *dataset.Dataset, onChunk func(string)) error {
	chartRows := chart.Data
	if len(chartRows) > AnomalyChartRows {
		chartRows = chartRows[:AnomalyChartRows]
	}
	var columns []string
	var sample []dataset.Row
	if ds != nil {
		columns = ds.Columns
		sample = ds.Sample(AnomalyDatasetRows)
	}

	var full strings.Builder
	req := a.request(anomalyInstruction, anomalyPrompt(e, chartRows, columns, sample), tempAnomaly, false)
	err := ai.Stream(ctx, a.rt, req, func(d string) {
		if d == "" {
			return
		}
		full.WriteString(d)
		onChunk(d)
	})
	if err != nil {
		onChunk(fmt.Sprintf("\n\n## AI Analysis Error\nAn error occurred: %v. Check your runtime configuration and API key.", err))
		return wrap("anomalies", err)
	}
	text := full.String()
	if len(text) < 10 && !strings.Contains(strings.ToLower(text), noAnomalies) {
		onChunk("\n\n## Analysis Incomplete\nThe AI returned a very short or empty response. Please try again.")
	}
	return nil
}
