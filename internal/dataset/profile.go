package dataset

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/montanaflynn/stats"
)

// Inferred column kinds.
const (
	KindNumerical   = "Numerical"
	KindCategorical = "Categorical"
	KindText        = "Text"
	KindBoolean     = "Boolean"
	KindMixed       = "Mixed"
	KindUnknown     = "Unknown"
)

// ColumnProfile captures the inferred type and statistics of one column.
type ColumnProfile struct {
	Name       string          `json:"columnName"`
	Kind       string          `json:"inferredType"`
	NonNull    int             `json:"nonNull"`
	Missing    int             `json:"missing"`
	MissingPct float64         `json:"missingPercentage"`
	Unique     int             `json:"uniqueValues,omitempty"`
	Range      []any           `json:"valueRange,omitempty"`
	Mean       float64         `json:"mean,omitempty"`
	Std        float64         `json:"std,omitempty"`
	Median     float64         `json:"median,omitempty"`
	Outliers   int             `json:"outliers,omitempty"`
	TopValues  []CategoryCount `json:"topValues,omitempty"`
	Notes      []string        `json:"notes,omitempty"`
}

type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Profile is a markdown-friendly description of a dataset.
type Profile struct {
	Name    string          `json:"name,omitempty"`
	Rows    int             `json:"rows"`
	Columns []ColumnProfile `json:"columns"`
	Summary string          `json:"overallSummary"`
}

// ProfileOf profiles every declared column. topK bounds the categorical
// top-value list.
func ProfileOf(ds *Dataset, topK int) *Profile {
	if topK <= 0 {
		topK = 5
	}
	p := &Profile{Name: ds.Name, Rows: len(ds.Rows)}
	cols := ds.Columns
	if len(cols) == 0 {
		cols = ColumnsOf(ds.Rows)
	}
	for _, c := range cols {
		p.Columns = append(p.Columns, profileColumn(ds.Rows, c, topK))
	}
	p.Summary = summarize(p)
	return p
}

func profileColumn(rows []Row, name string, topK int) ColumnProfile {
	cp := ColumnProfile{Name: name}
	var nums []float64
	var texts, bools int
	counts := map[string]int{}
	for _, r := range rows {
		v, ok := r[name]
		if !ok || IsBlank(v) {
			cp.Missing++
			continue
		}
		cp.NonNull++
		counts[String(v)]++
		switch t := v.(type) {
		case bool:
			bools++
		case string:
			texts++
		default:
			if f, ok := AsFloat(t); ok {
				nums = append(nums, f)
			} else {
				texts++
			}
		}
	}
	total := cp.NonNull + cp.Missing
	if total > 0 {
		cp.MissingPct = Round1(float64(cp.Missing) * 100 / float64(total))
	}
	cp.Unique = len(counts)

	switch {
	case cp.NonNull == 0:
		cp.Kind = KindUnknown
		cp.Notes = append(cp.Notes, "Entirely null")
	case len(nums) == cp.NonNull:
		cp.Kind = KindNumerical
		lo, _ := stats.Min(nums)
		hi, _ := stats.Max(nums)
		cp.Range = []any{lo, hi}
		cp.Mean, _ = stats.Mean(nums)
		cp.Median, _ = stats.Median(nums)
		if len(nums) > 1 {
			cp.Std, _ = stats.StandardDeviationSample(nums)
		}
		if cp.Outliers = robustOutliers(nums, cp.Median); cp.Outliers > 0 {
			cp.Notes = append(cp.Notes, fmt.Sprintf("%d outliers above |z|>%.1f", cp.Outliers, outlierZ))
		}
		if cp.Unique == cp.NonNull && cp.NonNull > 10 {
			cp.Notes = append(cp.Notes, "Likely ID column")
		}
	case bools == cp.NonNull:
		cp.Kind = KindBoolean
	case texts == cp.NonNull:
		if cp.Unique <= 20 || cp.Unique*2 <= cp.NonNull {
			cp.Kind = KindCategorical
			cp.TopValues = topValues(counts, topK)
		} else {
			cp.Kind = KindText
			cp.Notes = append(cp.Notes, "High cardinality")
		}
	default:
		cp.Kind = KindMixed
		cp.Notes = append(cp.Notes, "Potential mixed types observed")
	}
	if cp.MissingPct >= 50 {
		cp.Notes = append(cp.Notes, "Predominantly null")
	}
	return cp
}

// outlierZ is the modified z-score cutoff for robustOutliers.
const outlierZ = 3.5

// robustOutliers counts values whose modified z-score (median/MAD based)
// exceeds outlierZ. Columns with fewer than 8 values are not scored.
func robustOutliers(nums []float64, median float64) int {
	if len(nums) < 8 {
		return 0
	}
	mad, err := stats.MedianAbsoluteDeviation(nums)
	if err != nil || mad == 0 {
		return 0
	}
	n := 0
	for _, v := range nums {
		if math.Abs(0.6745*(v-median)/mad) > outlierZ {
			n++
		}
	}
	return n
}

func topValues(counts map[string]int, k int) []CategoryCount {
	out := make([]CategoryCount, 0, len(counts))
	for v, c := range counts {
		out = append(out, CategoryCount{Value: v, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

func summarize(p *Profile) string {
	var sparse, mixed []string
	for _, c := range p.Columns {
		if c.MissingPct >= 50 {
			sparse = append(sparse, c.Name)
		}
		if c.Kind == KindMixed {
			mixed = append(mixed, c.Name)
		}
	}
	s := fmt.Sprintf("%d rows across %d columns.", p.Rows, len(p.Columns))
	if len(sparse) > 0 {
		s += fmt.Sprintf(" Mostly missing: %s.", strings.Join(sparse, ", "))
	}
	if len(mixed) > 0 {
		s += fmt.Sprintf(" Mixed types in: %s.", strings.Join(mixed, ", "))
	}
	if len(sparse) == 0 && len(mixed) == 0 {
		s += " No widespread quality issues detected."
	}
	return s
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Markdown renders a compact profile suitable for prompts or standalone docs.
func (p *Profile) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET PROFILE]\n")
	if p.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", p.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", p.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(p.Columns)))
	b.WriteString(p.Summary)
	b.WriteString("\n\n[SCHEMA]\n")
	for _, c := range p.Columns {
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%)", safeCell(c.Name), c.Kind, c.NonNull, c.MissingPct))
		switch c.Kind {
		case KindNumerical:
			b.WriteString(fmt.Sprintf(" | min %.4g, max %.4g, mean %.4g, median %.4g, std %.4g", c.Range[0], c.Range[1], c.Mean, c.Median, c.Std))
		case KindCategorical:
			if len(c.TopValues) > 0 {
				b.WriteString(" | top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeCell(kv.Value), kv.Count))
				}
				if c.Unique > len(c.TopValues) {
					b.WriteString(fmt.Sprintf("; unique=%d", c.Unique))
				}
			}
		}
		if len(c.Notes) > 0 {
			b.WriteString(" | ")
			b.WriteString(strings.Join(c.Notes, "; "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func safeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/")
}
