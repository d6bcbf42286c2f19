package engine

import (
	"math"

	"github.com/KaramelBytes/dashloom-cli/internal/dashboard"
	"github.com/KaramelBytes/dashloom-cli/internal/dataset"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Histogram output keys.
const (
	BinRangeKey = "binRange"
	CountKey    = "count"
)

const (
	minBins = 5
	maxBins = 20
)

// Bin computes the distribution of a numeric column. The bin count follows
// Sturges' rule clamped to [5, 20]; a constant column gets a single bin.
func Bin(rows []dataset.Row, column string) ChartData {
	out := ChartData{
		Data:         []dataset.Row{},
		DimensionKey: BinRangeKey,
		MetricKeys:   []string{CountKey},
		ChartType:    dashboard.Histogram,
	}
	var values []float64
	for _, r := range rows {
		if r == nil {
			continue
		}
		if f, ok := dataset.LeadingFloat(r[column]); ok {
			values = append(values, f)
		}
	}
	if len(values) == 0 {
		return out
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	k := int(math.Ceil(1 + math.Log2(float64(len(values)))))
	k = max(minBins, min(maxBins, k))
	if lo == hi {
		k = 1
	}
	width := (hi - lo) / float64(k)
	if width <= 0 {
		width = 1
	}

	p := message.NewPrinter(language.English)
	label := func(v float64) string {
		return p.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
	}
	counts := make([]float64, k)
	for _, v := range values {
		idx := int(math.Floor((v - lo) / width))
		if v == hi {
			idx = k - 1
		}
		idx = max(0, min(k-1, idx))
		counts[idx]++
	}
	for i := 0; i < k; i++ {
		start := lo + float64(i)*width
		end := start + width
		if i == k-1 && k > 1 {
			end = hi
		}
		out.Data = append(out.Data, dataset.Row{
			BinRangeKey: label(start) + " - " + label(end),
			CountKey:    counts[i],
		})
	}
	return out
}
