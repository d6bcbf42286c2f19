package dashboard

import (
	"encoding/json"
	"fmt"
	"os"
)

// ElementType names the visual unit an element renders as.
type ElementType string

const (
	KPI         ElementType = "KPI"
	BarChart    ElementType = "BarChart"
	LineChart   ElementType = "LineChart"
	AreaChart   ElementType = "AreaChart"
	PieChart    ElementType = "PieChart"
	ScatterPlot ElementType = "ScatterPlot"
	Histogram   ElementType = "Histogram"
	Table       ElementType = "Table"
	MapChart    ElementType = "MapChart"
)

// ElementTypes lists every supported element type.
var ElementTypes = []ElementType{KPI, BarChart, LineChart, AreaChart, PieChart, ScatterPlot, Histogram, Table, MapChart}

// Categorical reports whether the type groups rows by a dimension.
func (t ElementType) Categorical() bool {
	switch t {
	case BarChart, LineChart, AreaChart, PieChart, MapChart:
		return true
	}
	return false
}

// Operation is the aggregation applied to a metric's values.
type Operation string

const (
	OpNone          Operation = "NONE"
	OpSum           Operation = "SUM"
	OpCount         Operation = "COUNT"
	OpAvg           Operation = "AVG"
	OpMin           Operation = "MIN"
	OpMax           Operation = "MAX"
	OpCountDistinct Operation = "COUNT_DISTINCT"
)

// MetricDefinition names a column and how to aggregate it.
type MetricDefinition struct {
	Column      string    `json:"column" validate:"required"`
	Operation   Operation `json:"operation" validate:"required,oneof=NONE SUM COUNT AVG MIN MAX COUNT_DISTINCT"`
	DisplayName string    `json:"displayName,omitempty"`
}

// Key is the output field the metric's value is stored under.
func (m MetricDefinition) Key() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.Column
}

// DimensionDefinition is the grouping or x-axis column of a chart.
type DimensionDefinition struct {
	Column      string `json:"column" validate:"required"`
	DisplayName string `json:"displayName,omitempty"`
}

// ElementSpec declares one dashboard element.
type ElementSpec struct {
	ID              string               `json:"id" validate:"required"`
	Type            ElementType          `json:"type" validate:"required,oneof=KPI BarChart LineChart AreaChart PieChart ScatterPlot Histogram Table MapChart"`
	Title           string               `json:"title"`
	Interpretation  string               `json:"interpretation,omitempty"`
	DataSourceQuery string               `json:"dataSourceQuery,omitempty"`
	Metric          *MetricDefinition    `json:"metric,omitempty" validate:"required_if=Type KPI"`
	Metrics         []MetricDefinition   `json:"metrics,omitempty" validate:"dive"`
	Dimension       *DimensionDefinition `json:"dimension,omitempty"`
	ValuePrefix     string               `json:"valuePrefix,omitempty"`
	ValueSuffix     string               `json:"valueSuffix,omitempty"`
}

// Spec is a complete dashboard as produced by the LLM.
type Spec struct {
	Title           string        `json:"title"`
	DashboardStory  string        `json:"dashboardStory,omitempty"`
	ThemeSuggestion string        `json:"themeSuggestion,omitempty"`
	GeneratedQuery  string        `json:"generatedQuery,omitempty"`
	Elements        []ElementSpec `json:"elements"`
}

// Element returns the element with the given id.
func (s *Spec) Element(id string) (ElementSpec, bool) {
	if s == nil {
		return ElementSpec{}, false
	}
	for _, e := range s.Elements {
		if e.ID == id {
			return e, true
		}
	}
	return ElementSpec{}, false
}

// LoadSpec reads a dashboard specification from a JSON file.
func LoadSpec(path string) (*Spec, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec: %w", err)
	}
	var s Spec
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse spec: %w", err)
	}
	return &s, nil
}
