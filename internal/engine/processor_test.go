package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/KaramelBytes/dashloom-cli/internal/dashboard"
	"github.com/KaramelBytes/dashloom-cli/internal/dataset"
	"github.com/KaramelBytes/dashloom-cli/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func salesRows() []dataset.Row {
	return []dataset.Row{
		{"Region": "East", "Sales": 100.0},
		{"Region": "West", "Sales": 200.0},
		{"Region": "East", "Sales": 50.0},
	}
}

func quietProcessor(opts ...Option) *Processor {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return New(append([]Option{WithLogger(logger)}, opts...)...)
}

func TestProcessBarChartGroupsAndSums(t *testing.T) {
	spec := dashboard.ElementSpec{
		ID: "bar", Type: dashboard.BarChart, Title: "Sales",
		Dimension: &dashboard.DimensionDefinition{Column: "Region"},
		Metrics:   []dashboard.MetricDefinition{metric("Sales", dashboard.OpSum)},
	}
	res := quietProcessor().Process(context.Background(), salesRows(), spec)
	require.Equal(t, KindChart, res.Kind())
	assert.Equal(t, []dataset.Row{
		{"Region": "East", "Sales": 150.0},
		{"Region": "West", "Sales": 200.0},
	}, res.Chart.Data)
	assert.Equal(t, "Region", res.Chart.DimensionKey)
	assert.Equal(t, []string{"Sales"}, res.Chart.MetricKeys)
	assert.Empty(t, res.Warnings)
}

func TestGroupingKeepsFirstSeenOrder(t *testing.T) {
	rows := column("k", "b", "a", "b", "c")
	rows = append(rows, dataset.Row{"k": nil}, dataset.Row{"other": 1.0}, nil)
	spec := dashboard.ElementSpec{
		ID: "line", Type: dashboard.LineChart,
		Dimension: &dashboard.DimensionDefinition{Column: "k", DisplayName: "Key"},
		Metrics:   []dashboard.MetricDefinition{{Column: "k", Operation: dashboard.OpCount, DisplayName: "n"}},
	}
	res := quietProcessor().Process(context.Background(), rows, spec)
	require.NotNil(t, res.Chart)
	var keys []any
	for _, r := range res.Chart.Data {
		keys = append(keys, r["Key"])
	}
	assert.Equal(t, []any{"b", "a", "c", "N/A"}, keys)
	assert.Equal(t, 2.0, res.Chart.Data[0]["n"])
	assert.Equal(t, 0.0, res.Chart.Data[3]["n"])
}

func TestGroupKeysStringifyNumbers(t *testing.T) {
	rows := []dataset.Row{{"y": 2024.0, "v": 1.0}, {"y": 2025.0, "v": 2.0}, {"y": 2024.0, "v": 3.0}}
	spec := dashboard.ElementSpec{
		ID: "area", Type: dashboard.AreaChart,
		Dimension: &dashboard.DimensionDefinition{Column: "y"},
		Metrics:   []dashboard.MetricDefinition{metric("v", dashboard.OpAvg)},
	}
	res := quietProcessor().Process(context.Background(), rows, spec)
	assert.Equal(t, []dataset.Row{{"y": "2024", "v": 2.0}, {"y": "2025", "v": 2.0}}, res.Chart.Data)
}

func TestCategoricalPassThroughWhenAllNone(t *testing.T) {
	rows := []dataset.Row{
		{"Month": "Jan", "Sales": 1.0, "Extra": "x"},
		{"Sales": 2.0},
		{"Month": "Feb"},
	}
	spec := dashboard.ElementSpec{
		ID: "line", Type: dashboard.LineChart,
		Dimension: &dashboard.DimensionDefinition{Column: "Month"},
		Metrics:   []dashboard.MetricDefinition{{Column: "Sales", Operation: dashboard.OpNone, DisplayName: "Revenue"}},
	}
	res := quietProcessor().Process(context.Background(), rows, spec)
	assert.Equal(t, []dataset.Row{
		{"Month": "Jan", "Revenue": 1.0},
		{"Month": "Feb", "Revenue": nil},
	}, res.Chart.Data)
	assert.Equal(t, []string{"Revenue"}, res.Chart.MetricKeys)
}

func TestChartWithoutDimensionPassesRowsThrough(t *testing.T) {
	rows := salesRows()
	spec := dashboard.ElementSpec{ID: "bar", Type: dashboard.BarChart, Metrics: []dashboard.MetricDefinition{metric("Sales", dashboard.OpSum)}}
	res := quietProcessor().Process(context.Background(), rows, spec)
	require.NotNil(t, res.Chart)
	assert.Equal(t, rows, res.Chart.Data)
	assert.Equal(t, DefaultDimensionKey, res.Chart.DimensionKey)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnMissingDimension, res.Warnings[0].Code)

	res.Chart.Data[0]["Sales"] = -1.0
	assert.Equal(t, 100.0, rows[0]["Sales"])
}

func TestTableCopiesRawValues(t *testing.T) {
	spec := dashboard.ElementSpec{
		ID: "tbl", Type: dashboard.Table,
		Metrics: []dashboard.MetricDefinition{
			{Column: "Region", Operation: dashboard.OpNone, DisplayName: "Area"},
			{Column: "Sales", Operation: dashboard.OpSum},
			{Column: "Missing", Operation: dashboard.OpNone},
		},
	}
	rows := append(salesRows(), nil)
	res := quietProcessor().Process(context.Background(), rows, spec)
	require.Len(t, res.Chart.Data, 3)
	assert.Equal(t, dataset.Row{"Area": "East", "Sales": 100.0, "Missing": nil}, res.Chart.Data[0])
	assert.Equal(t, []string{"Area", "Sales", "Missing"}, res.Chart.MetricKeys)
	assert.Equal(t, DefaultDimensionKey, res.Chart.DimensionKey)
}

func TestScatterPlot(t *testing.T) {
	rows := []dataset.Row{
		{"x": 1.0, "y": 2.0, "g": "a"},
		{"x": 3.0, "y": 4.0},
		nil,
	}
	t.Run("category from third metric", func(t *testing.T) {
		spec := dashboard.ElementSpec{ID: "sc", Type: dashboard.ScatterPlot, Metrics: []dashboard.MetricDefinition{
			metric("x", dashboard.OpNone), metric("y", dashboard.OpNone), {Column: "g", Operation: dashboard.OpNone, DisplayName: "Group"},
		}}
		res := quietProcessor().Process(context.Background(), rows, spec)
		require.NotNil(t, res.Chart)
		assert.Equal(t, "Group", res.Chart.DimensionKey)
		assert.Equal(t, []string{"x", "y"}, res.Chart.MetricKeys)
		assert.Equal(t, []dataset.Row{{"x": 1.0, "y": 2.0, "Group": "a"}, {"x": 3.0, "y": 4.0}}, res.Chart.Data)
	})
	t.Run("dimension wins", func(t *testing.T) {
		spec := dashboard.ElementSpec{ID: "sc", Type: dashboard.ScatterPlot,
			Dimension: &dashboard.DimensionDefinition{Column: "g"},
			Metrics:   []dashboard.MetricDefinition{metric("x", dashboard.OpNone), metric("y", dashboard.OpNone)}}
		res := quietProcessor().Process(context.Background(), rows, spec)
		assert.Equal(t, "g", res.Chart.DimensionKey)
		assert.Equal(t, "a", res.Chart.Data[0]["g"])
	})
	t.Run("too few metrics degrades", func(t *testing.T) {
		spec := dashboard.ElementSpec{ID: "sc", Type: dashboard.ScatterPlot, Metrics: []dashboard.MetricDefinition{metric("x", dashboard.OpNone)}}
		res := quietProcessor().Process(context.Background(), rows, spec)
		require.Equal(t, KindChart, res.Kind())
		assert.Empty(t, res.Chart.Data)
		require.Len(t, res.Warnings, 1)
		assert.Equal(t, WarnTooFewMetrics, res.Warnings[0].Code)
	})
}

func TestHistogramElement(t *testing.T) {
	spec := dashboard.ElementSpec{ID: "h", Type: dashboard.Histogram, Metrics: []dashboard.MetricDefinition{{Column: "Sales", Operation: dashboard.OpNone, DisplayName: "Value"}}}
	res := quietProcessor().Process(context.Background(), salesRows(), spec)
	require.NotNil(t, res.Chart)
	assert.Equal(t, []string{CountKey}, res.Chart.MetricKeys)
	assert.Equal(t, 3.0, totalCount(*res.Chart))

	spec.Metrics = nil
	res = quietProcessor().Process(context.Background(), salesRows(), spec)
	require.NotNil(t, res.Chart)
	assert.Empty(t, res.Chart.Data)
	assert.Equal(t, BinRangeKey, res.Chart.DimensionKey)
	assert.Equal(t, WarnMissingMetrics, res.Warnings[0].Code)
}

func TestPieDropsNonPositiveSlices(t *testing.T) {
	rows := []dataset.Row{
		{"Cat": "A", "V": 10.123},
		{"Cat": "B", "V": -5.0},
		{"Cat": "C", "V": 0.0},
		{"Cat": "A", "V": 5.0},
	}
	spec := dashboard.ElementSpec{
		ID: "pie", Type: dashboard.PieChart,
		Dimension: &dashboard.DimensionDefinition{Column: "Cat"},
		Metrics:   []dashboard.MetricDefinition{metric("V", dashboard.OpSum)},
	}
	res := quietProcessor().Process(context.Background(), rows, spec)
	require.NotNil(t, res.Chart)
	assert.Equal(t, []dataset.Row{{"name": "A", "value": 15.12}}, res.Chart.Data)
	assert.Equal(t, PieNameKey, res.Chart.DimensionKey)
	assert.Equal(t, []string{PieValueKey}, res.Chart.MetricKeys)
}

func TestPiePassThroughDropsTextValues(t *testing.T) {
	rows := []dataset.Row{{"Cat": "A", "V": 3.0}, {"Cat": "B", "V": "7"}}
	spec := dashboard.ElementSpec{
		ID: "pie", Type: dashboard.PieChart,
		Dimension: &dashboard.DimensionDefinition{Column: "Cat", DisplayName: "Category"},
		Metrics:   []dashboard.MetricDefinition{metric("V", dashboard.OpNone)},
	}
	res := quietProcessor().Process(context.Background(), rows, spec)
	assert.Equal(t, []dataset.Row{{"name": "A", "value": 3.0}}, res.Chart.Data)
}

func TestKPI(t *testing.T) {
	spec := dashboard.ElementSpec{
		ID: "kpi", Type: dashboard.KPI, Title: "Avg",
		Metric:      &dashboard.MetricDefinition{Column: "Sales", Operation: dashboard.OpAvg},
		ValuePrefix: "$", ValueSuffix: "k",
	}
	res := quietProcessor().Process(context.Background(), salesRows(), spec)
	require.Equal(t, KindKPI, res.Kind())
	assert.Equal(t, &KPIData{Value: 116.67, Title: "Avg", Prefix: "$", Suffix: "k"}, res.KPI)

	spec.Metric = &dashboard.MetricDefinition{Column: "Sales", Operation: dashboard.OpNone}
	res = quietProcessor().Process(context.Background(), nil, spec)
	assert.Equal(t, NoData, res.KPI.Value)

	spec.Metric = nil
	res = quietProcessor().Process(context.Background(), salesRows(), spec)
	assert.Equal(t, NoMetric, res.KPI.Value)
	assert.Equal(t, WarnMissingMetric, res.Warnings[0].Code)
}

func TestQueryExecutorPaths(t *testing.T) {
	spec := dashboard.ElementSpec{
		ID: "bar", Type: dashboard.BarChart, Title: "By region",
		DataSourceQuery: "SELECT Region, Sales FROM ? WHERE Sales > 75",
		Dimension:       &dashboard.DimensionDefinition{Column: "Region"},
		Metrics:         []dashboard.MetricDefinition{metric("Sales", dashboard.OpSum)},
	}

	t.Run("filtered rows feed the chart", func(t *testing.T) {
		var got string
		exec := query.ExecutorFunc(func(_ context.Context, q string, rows []dataset.Row) ([]dataset.Row, error) {
			got = q
			return []dataset.Row{rows[1]}, nil
		})
		res := quietProcessor(WithExecutor(exec)).Process(context.Background(), salesRows(), spec)
		assert.Equal(t, spec.DataSourceQuery, got)
		assert.Equal(t, []dataset.Row{{"Region": "West", "Sales": 200.0}}, res.Chart.Data)
	})

	t.Run("executor error becomes processing error", func(t *testing.T) {
		exec := query.ExecutorFunc(func(context.Context, string, []dataset.Row) ([]dataset.Row, error) {
			return nil, errors.New(`column "nope" does not exist`)
		})
		res := quietProcessor(WithExecutor(exec)).Process(context.Background(), salesRows(), spec)
		require.Equal(t, KindError, res.Kind())
		assert.Equal(t, `SQL Error: column "nope" does not exist. Query: `+spec.DataSourceQuery, res.Err.Message)
		assert.Equal(t, "By region", res.Err.Title)
	})

	t.Run("nil result short-circuits to empty chart", func(t *testing.T) {
		exec := query.ExecutorFunc(func(context.Context, string, []dataset.Row) ([]dataset.Row, error) { return nil, nil })
		res := quietProcessor(WithExecutor(exec)).Process(context.Background(), salesRows(), spec)
		require.Equal(t, KindChart, res.Kind())
		assert.Equal(t, &ChartData{Data: []dataset.Row{}, DimensionKey: "Region", MetricKeys: []string{"Sales"}, ChartType: dashboard.BarChart}, res.Chart)
		assert.Equal(t, WarnEmptyQueryResult, res.Warnings[0].Code)
	})

	t.Run("count query skips the short-circuit", func(t *testing.T) {
		s := spec
		s.DataSourceQuery = "SELECT count( * ) AS n FROM ?"
		exec := query.ExecutorFunc(func(context.Context, string, []dataset.Row) ([]dataset.Row, error) { return []dataset.Row{}, nil })
		res := quietProcessor(WithExecutor(exec)).Process(context.Background(), salesRows(), s)
		require.NotNil(t, res.Chart)
		assert.Empty(t, res.Chart.Data)
		assert.Empty(t, res.Warnings)
	})

	t.Run("missing executor", func(t *testing.T) {
		res := quietProcessor().Process(context.Background(), salesRows(), spec)
		require.Equal(t, KindError, res.Kind())
		assert.Contains(t, res.Err.Message, "no query executor configured")
	})

	t.Run("panic is contained", func(t *testing.T) {
		exec := query.ExecutorFunc(func(context.Context, string, []dataset.Row) ([]dataset.Row, error) { panic("driver exploded") })
		res := quietProcessor(WithExecutor(exec)).Process(context.Background(), salesRows(), spec)
		require.Equal(t, KindError, res.Kind())
		assert.Contains(t, res.Err.Message, "driver exploded")
	})
}

func TestEmptyRowsShortCircuitShapes(t *testing.T) {
	hist := dashboard.ElementSpec{ID: "h", Type: dashboard.Histogram, Metrics: []dashboard.MetricDefinition{metric("v", dashboard.OpNone)}}
	res := quietProcessor().Process(context.Background(), []dataset.Row{}, hist)
	assert.Equal(t, BinRangeKey, res.Chart.DimensionKey)
	assert.Equal(t, []string{"v"}, res.Chart.MetricKeys)

	mapChart := dashboard.ElementSpec{ID: "m", Type: dashboard.MapChart, Metrics: []dashboard.MetricDefinition{{Column: "v", Operation: dashboard.OpSum, DisplayName: "V"}}}
	res = quietProcessor().Process(context.Background(), nil, mapChart)
	assert.Equal(t, DefaultDimensionKey, res.Chart.DimensionKey)
	assert.Equal(t, []string{"v"}, res.Chart.MetricKeys)
	assert.Equal(t, dashboard.MapChart, res.Chart.ChartType)
}

func TestUnsupportedTypeDegrades(t *testing.T) {
	spec := dashboard.ElementSpec{ID: "s", Type: "Sankey", Metrics: []dashboard.MetricDefinition{metric("Sales", dashboard.OpSum)}}
	res := quietProcessor().Process(context.Background(), salesRows(), spec)
	require.Equal(t, KindChart, res.Kind())
	assert.Empty(t, res.Chart.Data)
	assert.Equal(t, WarnUnsupportedType, res.Warnings[0].Code)
}

func TestProcessDoesNotMutateInput(t *testing.T) {
	rows := salesRows()
	before, err := json.Marshal(rows)
	require.NoError(t, err)
	p := quietProcessor()
	for _, typ := range dashboard.ElementTypes {
		spec := dashboard.ElementSpec{
			ID: string(typ), Type: typ,
			Metric:    &dashboard.MetricDefinition{Column: "Sales", Operation: dashboard.OpSum},
			Dimension: &dashboard.DimensionDefinition{Column: "Region", DisplayName: "Region"},
			Metrics:   []dashboard.MetricDefinition{{Column: "Sales", Operation: dashboard.OpSum, DisplayName: "Sales"}, metric("Sales", dashboard.OpMax)},
		}
		res := p.Process(context.Background(), rows, spec)
		require.Nil(t, res.Err, typ)
	}
	after, err := json.Marshal(rows)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

type recordingObserver struct {
	mu    sync.Mutex
	kinds map[dashboard.ElementType]Kind
}

func (o *recordingObserver) ElementProcessed(t dashboard.ElementType, k Kind, _ bool, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.kinds[t] = k
}

func TestProcessDashboardIsolatesFailures(t *testing.T) {
	exec := query.ExecutorFunc(func(_ context.Context, q string, rows []dataset.Row) ([]dataset.Row, error) {
		if q == "bad" {
			return nil, errors.New("syntax error")
		}
		return rows, nil
	})
	obs := &recordingObserver{kinds: map[dashboard.ElementType]Kind{}}
	p := quietProcessor(WithExecutor(exec), WithWorkers(2), WithObserver(obs))
	elements := []dashboard.ElementSpec{
		{ID: "kpi", Type: dashboard.KPI, Metric: &dashboard.MetricDefinition{Column: "Sales", Operation: dashboard.OpSum}},
		{ID: "broken", Type: dashboard.Table, DataSourceQuery: "bad", Metrics: []dashboard.MetricDefinition{metric("Sales", dashboard.OpNone)}},
		{ID: "bar", Type: dashboard.BarChart, DataSourceQuery: "SELECT * FROM ?", Dimension: &dashboard.DimensionDefinition{Column: "Region"}, Metrics: []dashboard.MetricDefinition{metric("Sales", dashboard.OpSum)}},
	}
	ds := &dataset.Dataset{Columns: []string{"Region", "Sales"}, Rows: salesRows()}
	results := p.ProcessDashboard(context.Background(), ds, elements)
	require.Len(t, results, 3)
	assert.Equal(t, "kpi", results[0].ElementID)
	assert.Equal(t, 350.0, results[0].KPI.Value)
	assert.Equal(t, KindError, results[1].Kind())
	assert.Equal(t, KindChart, results[2].Kind())
	assert.Len(t, results[2].Chart.Data, 2)
	assert.Equal(t, KindError, obs.kinds[dashboard.Table])

	byID := ByID(results)
	assert.Equal(t, KindError, byID["broken"].Kind())
}

func TestProcessDashboardWithoutData(t *testing.T) {
	results := quietProcessor().ProcessDashboard(context.Background(), nil, []dashboard.ElementSpec{{ID: "a", Title: "Revenue", Type: dashboard.KPI}})
	require.Len(t, results, 1)
	assert.Equal(t, "Data not available for element: Revenue", results[0].Err.Message)
}

func TestResultJSONShape(t *testing.T) {
	r := Result{ElementID: "e", Err: &ProcessingError{Message: "boom", Title: "T"}}
	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"e","kind":"error","error":{"error":true,"message":"boom","title":"T"}}`, string(b))
}
