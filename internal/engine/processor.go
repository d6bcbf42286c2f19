package engine

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"runtime"
	"time"

	"github.com/KaramelBytes/dashloom-cli/internal/dashboard"
	"github.com/KaramelBytes/dashloom-cli/internal/dataset"
	"github.com/KaramelBytes/dashloom-cli/internal/query"
)

// Output keys shared by chart arms.
const (
	DefaultDimensionKey = "_dimension"
	PieNameKey          = "name"
	PieValueKey         = "value"
	naGroup             = "N/A"
)

var countQuery = regexp.MustCompile(`(?i)COUNT\s*\(\s*(\*|\w+)\s*\)`)

// Observer is notified after each element is processed.
type Observer interface {
	ElementProcessed(t dashboard.ElementType, kind Kind, degraded bool, elapsed time.Duration)
}

// Processor turns element specifications into render-ready data. It holds
// no per-call state and is safe for concurrent use.
type Processor struct {
	exec     query.Executor
	logger   *slog.Logger
	observer Observer
	workers  int
}

// Option configures a Processor.
type Option func(*Processor)

// WithExecutor sets the executor used for elements that carry a query.
func WithExecutor(e query.Executor) Option {
	return func(p *Processor) { p.exec = e }
}

// WithLogger sets the logger for degradation and failure diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithObserver registers an observer, typically a metrics recorder.
func WithObserver(o Observer) Option {
	return func(p *Processor) { p.observer = o }
}

// WithWorkers bounds how many elements ProcessDashboard runs at once.
func WithWorkers(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.workers = n
		}
	}
}

// New builds a Processor.
func New(opts ...Option) *Processor {
	p := &Processor{
		logger:  slog.Default(),
		workers: runtime.GOMAXPROCS(0),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Process runs one element against rows. Failures come back as a Result
// with Err set; nothing panics out of this call. rows is never modified.
func (p *Processor) Process(ctx context.Context, rows []dataset.Row, spec dashboard.ElementSpec) (res Result) {
	start := time.Now()
	log := p.logger.With("element_id", spec.ID, "type", string(spec.Type))
	defer func() {
		if r := recover(); r != nil {
			log.Error("element processing panicked", "panic", r)
			res = failed(spec, fmt.Sprintf("Processing failed: %v", r))
		}
		for _, w := range res.Warnings {
			log.Warn("element degraded", "code", string(w.Code), "detail", w.Message)
		}
		if res.Err != nil {
			log.Warn("element failed", "error", res.Err.Message)
		}
		if p.observer != nil {
			p.observer.ElementProcessed(spec.Type, res.Kind(), res.Degraded(), time.Since(start))
		}
	}()

	data := rows
	if q := spec.DataSourceQuery; q != "" {
		if p.exec == nil {
			return failed(spec, fmt.Sprintf("SQL Error: no query executor configured. Query: %s", q))
		}
		qStart := time.Now()
		out, err := p.exec.Execute(ctx, q, rows)
		if err != nil {
			return failed(spec, fmt.Sprintf("SQL Error: %s. Query: %s", err.Error(), q))
		}
		log.Debug("query executed", "rows", len(out), "elapsed", time.Since(qStart))
		data = out
		if data == nil {
			data = []dataset.Row{}
		}
	}

	if len(data) == 0 && spec.Type != dashboard.KPI && !countQuery.MatchString(spec.DataSourceQuery) {
		res = Result{ElementID: spec.ID, Chart: emptyChart(spec)}
		if spec.DataSourceQuery != "" {
			res.Warnings = append(res.Warnings, ElementWarning{Code: WarnEmptyQueryResult, Message: "query returned no rows"})
		}
		return res
	}

	if spec.Type == dashboard.KPI {
		kpi, warns := processKPI(data, spec)
		return Result{ElementID: spec.ID, KPI: kpi, Warnings: warns}
	}
	chart, warns := processChart(data, spec)
	return Result{ElementID: spec.ID, Chart: chart, Warnings: warns}
}

func failed(spec dashboard.ElementSpec, msg string) Result {
	return Result{ElementID: spec.ID, Err: &ProcessingError{Message: msg, Title: spec.Title}}
}

func emptyChart(spec dashboard.ElementSpec) *ChartData {
	dim := DefaultDimensionKey
	switch {
	case spec.Dimension != nil && spec.Dimension.Column != "":
		dim = spec.Dimension.Column
	case spec.Type == dashboard.Histogram:
		dim = BinRangeKey
	}
	keys := make([]string, 0, len(spec.Metrics))
	for _, m := range spec.Metrics {
		keys = append(keys, m.Column)
	}
	return &ChartData{Data: []dataset.Row{}, DimensionKey: dim, MetricKeys: keys, ChartType: spec.Type}
}

func processKPI(rows []dataset.Row, spec dashboard.ElementSpec) (*KPIData, []ElementWarning) {
	kpi := &KPIData{Title: spec.Title, Prefix: spec.ValuePrefix, Suffix: spec.ValueSuffix}
	if spec.Metric == nil {
		kpi.Value = NoMetric
		return kpi, []ElementWarning{{Code: WarnMissingMetric, Message: "KPI declares no metric"}}
	}
	v := Aggregate(rows, *spec.Metric)
	if f, ok := dataset.AsFloat(v); ok {
		v = dataset.Round2(f)
	}
	kpi.Value = v
	return kpi, nil
}

func dimensionKey(d *dashboard.DimensionDefinition) string {
	switch {
	case d == nil:
		return DefaultDimensionKey
	case d.DisplayName != "":
		return d.DisplayName
	case d.Column != "":
		return d.Column
	}
	return DefaultDimensionKey
}

func metricKeys(ms []dashboard.MetricDefinition) []string {
	keys := make([]string, 0, len(ms))
	for _, m := range ms {
		keys = append(keys, m.Key())
	}
	return keys
}

// processChart dispatches on the element type; each arm checks its own
// input contract and degrades to an empty shape with a warning.
func processChart(rows []dataset.Row, spec dashboard.ElementSpec) (*ChartData, []ElementWarning) {
	switch {
	case spec.Type == dashboard.Table:
		return tableChart(rows, spec), nil
	case spec.Type == dashboard.ScatterPlot:
		return scatterChart(rows, spec)
	case spec.Type == dashboard.Histogram:
		return histogramChart(rows, spec)
	case spec.Type.Categorical():
		chart, warns := categoricalChart(rows, spec)
		if spec.Type == dashboard.PieChart {
			warns = append(warns, reshapePie(chart, spec)...)
		}
		return chart, warns
	}
	return &ChartData{
		Data:         []dataset.Row{},
		DimensionKey: dimensionKey(spec.Dimension),
		MetricKeys:   metricKeys(spec.Metrics),
		ChartType:    spec.Type,
	}, []ElementWarning{{Code: WarnUnsupportedType, Message: fmt.Sprintf("unsupported element type %q", spec.Type)}}
}

func tableChart(rows []dataset.Row, spec dashboard.ElementSpec) *ChartData {
	out := make([]dataset.Row, 0, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		item := make(dataset.Row, len(spec.Metrics))
		for _, m := range spec.Metrics {
			item[m.Key()] = r[m.Column]
		}
		out = append(out, item)
	}
	return &ChartData{
		Data:         out,
		DimensionKey: dimensionKey(spec.Dimension),
		MetricKeys:   metricKeys(spec.Metrics),
		ChartType:    spec.Type,
	}
}

func scatterChart(rows []dataset.Row, spec dashboard.ElementSpec) (*ChartData, []ElementWarning) {
	chart := &ChartData{Data: []dataset.Row{}, MetricKeys: metricKeys(spec.Metrics), ChartType: spec.Type}
	if len(spec.Metrics) < 2 {
		return chart, []ElementWarning{{Code: WarnTooFewMetrics, Message: "scatter plot needs an X and a Y metric"}}
	}
	x, y := spec.Metrics[0], spec.Metrics[1]
	chart.MetricKeys = []string{x.Key(), y.Key()}

	var category *dashboard.MetricDefinition
	if len(spec.Metrics) > 2 {
		category = &spec.Metrics[2]
	}
	switch {
	case spec.Dimension != nil:
		chart.DimensionKey = dimensionKey(spec.Dimension)
	case category != nil:
		chart.DimensionKey = category.Key()
	}

	for _, r := range rows {
		if r == nil {
			continue
		}
		item := dataset.Row{x.Key(): r[x.Column], y.Key(): r[y.Column]}
		switch {
		case spec.Dimension != nil && r.Has(spec.Dimension.Column):
			item[chart.DimensionKey] = r[spec.Dimension.Column]
		case category != nil && r.Has(category.Column):
			item[chart.DimensionKey] = r[category.Column]
		}
		chart.Data = append(chart.Data, item)
	}
	return chart, nil
}

func histogramChart(rows []dataset.Row, spec dashboard.ElementSpec) (*ChartData, []ElementWarning) {
	if len(spec.Metrics) == 0 || spec.Metrics[0].Column == "" {
		empty := Bin(nil, "")
		return &empty, []ElementWarning{{Code: WarnMissingMetrics, Message: "histogram declares no metric column"}}
	}
	chart := Bin(rows, spec.Metrics[0].Column)
	if len(chart.Data) == 0 {
		return &chart, []ElementWarning{{Code: WarnNoNumericValues, Message: fmt.Sprintf("column %q has no numeric values", spec.Metrics[0].Column)}}
	}
	return &chart, nil
}

func categoricalChart(rows []dataset.Row, spec dashboard.ElementSpec) (*ChartData, []ElementWarning) {
	chart := &ChartData{
		DimensionKey: dimensionKey(spec.Dimension),
		MetricKeys:   metricKeys(spec.Metrics),
		ChartType:    spec.Type,
	}
	var warns []ElementWarning
	if len(spec.Metrics) == 0 {
		warns = append(warns, ElementWarning{Code: WarnMissingMetrics, Message: "chart declares no metrics"})
	}
	if spec.Dimension == nil || spec.Dimension.Column == "" {
		chart.Data = make([]dataset.Row, 0, len(rows))
		for _, r := range rows {
			if r != nil {
				chart.Data = append(chart.Data, r.Clone())
			}
		}
		warns = append(warns, ElementWarning{Code: WarnMissingDimension, Message: fmt.Sprintf("%s has no dimension; assuming data is prepared", spec.Type)})
		return chart, warns
	}

	if aggregated(spec.Metrics) {
		chart.Data = groupRows(rows, spec.Dimension.Column, chart.DimensionKey, spec.Metrics)
	} else {
		chart.Data = projectRows(rows, spec.Dimension.Column, chart.DimensionKey, spec.Metrics)
	}
	return chart, warns
}

func aggregated(ms []dashboard.MetricDefinition) bool {
	for _, m := range ms {
		if m.Operation != dashboard.OpNone {
			return true
		}
	}
	return false
}

// groupRows groups by the dimension's text form in first-seen order and
// aggregates every metric per group.
func groupRows(rows []dataset.Row, column, dimKey string, ms []dashboard.MetricDefinition) []dataset.Row {
	var order []string
	groups := map[string][]dataset.Row{}
	for _, r := range rows {
		if r == nil {
			continue
		}
		v, ok := r[column]
		if !ok {
			continue
		}
		key := naGroup
		if v != nil {
			key = dataset.String(v)
		}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], r)
	}
	out := make([]dataset.Row, 0, len(order))
	for _, key := range order {
		item := dataset.Row{dimKey: key}
		for _, m := range ms {
			item[m.Key()] = Aggregate(groups[key], m)
		}
		out = append(out, item)
	}
	return out
}

func projectRows(rows []dataset.Row, column, dimKey string, ms []dashboard.MetricDefinition) []dataset.Row {
	out := make([]dataset.Row, 0, len(rows))
	for _, r := range rows {
		if !r.Has(column) {
			continue
		}
		item := dataset.Row{dimKey: r[column]}
		for _, m := range ms {
			item[m.Key()] = r[m.Column]
		}
		out = append(out, item)
	}
	return out
}

// reshapePie rewrites categorical output to {name, value}, dropping
// non-positive slices.
func reshapePie(chart *ChartData, spec dashboard.ElementSpec) []ElementWarning {
	if len(chart.Data) == 0 || len(spec.Metrics) == 0 {
		return nil
	}
	if spec.Dimension == nil || (spec.Dimension.DisplayName == "" && spec.Dimension.Column == "") {
		return []ElementWarning{{Code: WarnMissingDimension, Message: "pie chart needs a dimension for slice names"}}
	}
	nameKey := chart.DimensionKey
	valueKey := spec.Metrics[0].Key()
	out := make([]dataset.Row, 0, len(chart.Data))
	for _, item := range chart.Data {
		if item == nil || !item.Has(nameKey) || !item.Has(valueKey) {
			continue
		}
		value := 0.0
		if f, ok := dataset.AsFloat(item[valueKey]); ok {
			value = dataset.Round2(f)
		}
		if value <= 0 {
			continue
		}
		out = append(out, dataset.Row{PieNameKey: item[nameKey], PieValueKey: value})
	}
	chart.Data = out
	chart.DimensionKey = PieNameKey
	chart.MetricKeys = []string{PieValueKey}
	return nil
}
