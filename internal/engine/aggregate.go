package engine

import (
	"math"

	"github.com/KaramelBytes/dashloom-cli/internal/dashboard"
	"github.com/KaramelBytes/dashloom-cli/internal/dataset"
)

// Sentinel values produced by a NONE aggregation.
const (
	NoData      = "N/A (No data)"
	ColNotFound = "N/A (Col not found)"
	NoMetric    = "N/A (No metric)"
)

// Aggregate reduces rows to one value for the metric. It never fails:
// empty inputs resolve to 0 or an "N/A" string and unknown operations to 0.
func Aggregate(rows []dataset.Row, m dashboard.MetricDefinition) any {
	if m.Operation == dashboard.OpNone {
		return firstValue(rows, m.Column)
	}

	var present []any
	for _, r := range rows {
		if r == nil {
			continue
		}
		v, ok := r[m.Column]
		if !ok || dataset.IsBlank(v) {
			continue
		}
		present = append(present, v)
	}
	nums := make([]float64, 0, len(present))
	for _, v := range present {
		if f, ok := dataset.ToNumber(v); ok {
			nums = append(nums, f)
		}
	}

	switch m.Operation {
	case dashboard.OpSum:
		return sum(nums)
	case dashboard.OpCount:
		return float64(len(present))
	case dashboard.OpAvg:
		if len(nums) == 0 {
			return 0.0
		}
		return dataset.Round2(sum(nums) / float64(len(nums)))
	case dashboard.OpMin:
		if len(nums) == 0 {
			return 0.0
		}
		lo := math.Inf(1)
		for _, f := range nums {
			lo = math.Min(lo, f)
		}
		return lo
	case dashboard.OpMax:
		if len(nums) == 0 {
			return 0.0
		}
		hi := math.Inf(-1)
		for _, f := range nums {
			hi = math.Max(hi, f)
		}
		return hi
	case dashboard.OpCountDistinct:
		seen := make(map[any]struct{}, len(present))
		for _, v := range present {
			seen[distinctKey(v)] = struct{}{}
		}
		return float64(len(seen))
	}
	return 0.0
}

func firstValue(rows []dataset.Row, column string) any {
	if len(rows) == 0 {
		return NoData
	}
	first := rows[0]
	v, ok := first[column]
	if first == nil || !ok {
		return ColNotFound
	}
	if f, ok := dataset.AsFloat(v); ok {
		return dataset.Round2(f)
	}
	return v
}

func sum(nums []float64) float64 {
	var s float64
	for _, f := range nums {
		s += f
	}
	return s
}

type nanKey struct{}

// distinctKey makes raw values usable as set members. Numeric kinds collapse
// to float64 and NaN compares equal to itself; text and numbers never collide.
func distinctKey(v any) any {
	if f, ok := dataset.AsFloat(v); ok {
		if math.IsNaN(f) {
			return nanKey{}
		}
		return f
	}
	switch v.(type) {
	case string, bool:
		return v
	}
	return dataset.String(v)
}
