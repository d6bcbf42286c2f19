package assistant

import (
	"context"
	"fmt"

	"github.com/KaramelBytes/dashloom-cli/internal/ai"
	"github.com/KaramelBytes/dashloom-cli/internal/dataset"
	"github.com/KaramelBytes/dashloom-cli/internal/engine"
)

// ForecastResult is the model's continuation of a chart series.
type ForecastResult struct {
	Data        []dataset.Row `json:"forecastedData"`
	Explanation string        `json:"forecastExplanation"`
}

// Forecast asks the model to continue chart for the configured number of
// periods using its most recent points. A chart that cannot be forecast
// yields an explanation only. On failure the explanation describes the
// error, which is also returned.
func (a *Assistant) Forecast(ctx context.Context, title string, chart engine.ChartData) (*ForecastResult, error) {
	history := chart.Data
	if len(history) > ForecastHistoryPoints {
		history = history[len(history)-ForecastHistoryPoints:]
	}
	if chart.DimensionKey == "" || len(chart.MetricKeys) == 0 || len(history) < 2 {
		return &ForecastResult{
			Data:        []dataset.Row{},
			Explanation: "Forecasting requires at least two data points with a clear dimension and metric.",
		}, nil
	}

	instruction := forecastInstruction(title, chart.DimensionKey, chart.MetricKeys, history, a.periods)
	user := fmt.Sprintf("Generate a %d-period forecast for the provided time-series data.", a.periods)
	text, err := ai.Complete(ctx, a.rt, a.request(instruction, user, tempForecast, true))
	if err != nil {
		return &ForecastResult{
			Data:        []dataset.Row{},
			Explanation: fmt.Sprintf("An error occurred while contacting the AI service for forecasting: %v", err),
		}, wrap("forecast", err)
	}

	var out ForecastResult
	if err := decodeJSON(text, "forecastedData", &out); err != nil {
		a.logger.Error("unusable forecast", "error", err, "raw", truncate(text, 500))
		return &ForecastResult{
			Data:        []dataset.Row{},
			Explanation: fmt.Sprintf("Error: AI returned unparsable content for forecast. %v", err),
		}, wrap("forecast", err)
	}
	out.Data = keepKeys(out.Data, chart.DimensionKey, chart.MetricKeys)
	return &out, nil
}

// keepKeys drops keys the historical series does not have.
func keepKeys(rows []dataset.Row, dim string, metrics []string) []dataset.Row {
	out := make([]dataset.Row, 0, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		p := dataset.Row{}
		for _, k := range append([]string{dim}, metrics...) {
			if v, ok := r[k]; ok {
				p[k] = v
			}
		}
		out = append(out, p)
	}
	return out
}
