package engine

import (
	"testing"

	"github.com/KaramelBytes/dashloom-cli/internal/dashboard"
	"github.com/KaramelBytes/dashloom-cli/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStitchBridgesSegments(t *testing.T) {
	hist := ChartData{
		Data:         []dataset.Row{{"month": "Jan", "m": 4.0}, {"month": "Feb", "m": 10.0}},
		DimensionKey: "month",
		MetricKeys:   []string{"m"},
		ChartType:    dashboard.LineChart,
	}
	forecast := []dataset.Row{{"month": "Mar", "m": 5.0}, {"month": "Apr", "m": 6.0}}
	out := Stitch(hist, forecast)
	require.Len(t, out, 4)
	assert.Equal(t, dataset.Row{"month": "Jan", "m": 4.0, "m_forecast": nil}, out[0])
	assert.Equal(t, dataset.Row{"month": "Feb", "m": 10.0, "m_forecast": nil}, out[1])
	assert.Equal(t, dataset.Row{"month": "Mar", "m": 10.0, "m_forecast": 5.0}, out[2])
	assert.Equal(t, dataset.Row{"month": "Apr", "m": nil, "m_forecast": 6.0}, out[3])

	assert.Equal(t, 5.0, forecast[0]["m"])
	assert.NotContains(t, hist.Data[0], "m_forecast")
}

func TestStitchWithoutForecastOrDimension(t *testing.T) {
	hist := ChartData{Data: []dataset.Row{{"m": 1.0}}, MetricKeys: []string{"m"}}
	assert.Equal(t, hist.Data, Stitch(hist, []dataset.Row{{"m": 2.0}}))

	hist.DimensionKey = "d"
	assert.Equal(t, hist.Data, Stitch(hist, nil))
}

func TestStitchEmptyHistory(t *testing.T) {
	hist := ChartData{Data: []dataset.Row{}, DimensionKey: "d", MetricKeys: []string{"m"}}
	out := Stitch(hist, []dataset.Row{{"d": "x", "m": 3.0}})
	assert.Equal(t, []dataset.Row{{"d": "x", "m": nil, "m_forecast": 3.0}}, out)
}
