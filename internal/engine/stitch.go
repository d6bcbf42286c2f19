package engine

import "github.com/KaramelBytes/dashloom-cli/internal/dataset"

// ForecastSuffix is appended to a metric key to name its forecast series.
const ForecastSuffix = "_forecast"

// Stitch joins historical chart data with forecast rows into one series.
// Historical points carry key and key_forecast=nil, forecast points carry
// key=nil and key_forecast. The first forecast point takes the last
// historical value for each key so the two segments meet.
func Stitch(historical ChartData, forecast []dataset.Row) []dataset.Row {
	if len(forecast) == 0 || historical.DimensionKey == "" {
		return historical.Data
	}
	dim := historical.DimensionKey
	keys := historical.MetricKeys

	out := make([]dataset.Row, 0, len(historical.Data)+len(forecast))
	for _, d := range historical.Data {
		if d == nil {
			continue
		}
		point := dataset.Row{dim: d[dim]}
		for _, k := range keys {
			point[k] = d[k]
			point[k+ForecastSuffix] = nil
		}
		out = append(out, point)
	}
	histLen := len(out)

	for _, d := range forecast {
		if d == nil {
			continue
		}
		point := dataset.Row{dim: d[dim]}
		for _, k := range keys {
			point[k] = nil
			point[k+ForecastSuffix] = d[k]
		}
		out = append(out, point)
	}

	if histLen > 0 && len(out) > histLen {
		last, first := out[histLen-1], out[histLen]
		for _, k := range keys {
			first[k] = last[k]
		}
	}
	return out
}
