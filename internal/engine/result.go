package engine

import (
	"encoding/json"

	"github.com/KaramelBytes/dashloom-cli/internal/dashboard"
	"github.com/KaramelBytes/dashloom-cli/internal/dataset"
)

// KPIData is the processed form of a KPI element.
type KPIData struct {
	Value  any    `json:"value"`
	Title  string `json:"title"`
	Prefix string `json:"prefix,omitempty"`
	Suffix string `json:"suffix,omitempty"`
}

// ChartData is the render-ready shape every chart element converges to.
// DimensionKey is empty when no dimension concept applies.
type ChartData struct {
	Data         []dataset.Row         `json:"data"`
	DimensionKey string                `json:"dimensionKey,omitempty"`
	MetricKeys   []string              `json:"metricKeys"`
	ChartType    dashboard.ElementType `json:"chartType"`
}

// ProcessingError is a recoverable failure scoped to one element.
type ProcessingError struct {
	Message string
	Title   string
}

func (e *ProcessingError) Error() string { return e.Message }

func (e *ProcessingError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Error   bool   `json:"error"`
		Message string `json:"message"`
		Title   string `json:"title,omitempty"`
	}{true, e.Message, e.Title})
}

// WarningCode classifies a non-fatal degradation.
type WarningCode string

const (
	WarnMissingMetric    WarningCode = "missing_metric"
	WarnMissingMetrics   WarningCode = "missing_metrics"
	WarnMissingDimension WarningCode = "missing_dimension"
	WarnTooFewMetrics    WarningCode = "too_few_metrics"
	WarnNoNumericValues  WarningCode = "no_numeric_values"
	WarnUnsupportedType  WarningCode = "unsupported_type"
	WarnEmptyQueryResult WarningCode = "empty_query_result"
)

// ElementWarning reports a degraded but usable result.
type ElementWarning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
}

// Kind tags which arm of a Result is populated.
type Kind string

const (
	KindKPI   Kind = "kpi"
	KindChart Kind = "chart"
	KindError Kind = "error"
)

// Result is the outcome of processing one element: exactly one of KPI,
// Chart or Err is set.
type Result struct {
	ElementID string           `json:"id"`
	KPI       *KPIData         `json:"kpi,omitempty"`
	Chart     *ChartData       `json:"chart,omitempty"`
	Err       *ProcessingError `json:"error,omitempty"`
	Warnings  []ElementWarning `json:"warnings,omitempty"`
}

// Kind reports the populated arm.
func (r Result) Kind() Kind {
	switch {
	case r.Err != nil:
		return KindError
	case r.KPI != nil:
		return KindKPI
	default:
		return KindChart
	}
}

// Degraded reports whether the result carries warnings.
func (r Result) Degraded() bool { return len(r.Warnings) > 0 }

func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		plain
	}{r.Kind(), plain(r)})
}
