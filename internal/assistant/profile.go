package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/KaramelBytes/dashloom-cli/internal/ai"
	"github.com/KaramelBytes/dashloom-cli/internal/dataset"
)

// ColumnInsight is the model's reading of one column.
type ColumnInsight struct {
	Name       string  `json:"columnName"`
	Kind       string  `json:"inferredType"`
	MissingPct float64 `json:"missingPercentage"`
	Unique     *int    `json:"uniqueValues,omitempty"`
	Range      []any   `json:"valueRange,omitempty"`
	Notes      string  `json:"notes,omitempty"`
}

// ProfileReport is the AI data profile.
type ProfileReport struct {
	Summary string          `json:"overallSummary"`
	Columns []ColumnInsight `json:"columns"`
}

// Profile asks the model to profile ds from a row sample. On failure every
// column is reported with type "Error" and the summary carries the cause.
func (a *Assistant) Profile(ctx context.Context, ds *dataset.Dataset) (*ProfileReport, error) {
	columns := ds.Columns
	sample := ds.Sample(a.sampleRows)
	req := a.request(profileInstruction(columns, sample), fmt.Sprintf("Generate a data profile for the dataset with columns: %s.", strings.Join(columns, ", ")), tempProfile, true)
	text, err := ai.Complete(ctx, a.rt, req)
	if err != nil {
		return errorProfile(columns, fmt.Sprintf("AI Profiling Error: %v.", err), "API call failed."), wrap("profile", err)
	}
	var out struct {
		Profile ProfileReport `json:"profile"`
	}
	if err := decodeJSON(text, "profile.columns", &out); err != nil {
		a.logger.Error("unusable profile", "error", err, "raw", truncate(text, 500))
		return errorProfile(columns, fmt.Sprintf("Error: AI returned unparsable content for data profile. %v", err), "Parsing failed."), wrap("profile", err)
	}
	return &out.Profile, nil
}

func errorProfile(columns []string, summary, note string) *ProfileReport {
	p := &ProfileReport{Summary: summary}
	for _, c := range columns {
		p.Columns = append(p.Columns, ColumnInsight{Name: c, Kind: "Error", Notes: note})
	}
	return p
}

// Markdown renders the report as a table.
func (p *ProfileReport) Markdown() string {
	var b strings.Builder
	b.WriteString("[AI DATA PROFILE]\n")
	if p.Summary != "" {
		b.WriteString(p.Summary + "\n")
	}
	b.WriteString("\n| Column | Type | Missing % | Unique | Range | Notes |\n|---|---|---|---|---|---|\n")
	for _, c := range p.Columns {
		unique := ""
		if c.Unique != nil {
			unique = fmt.Sprint(*c.Unique)
		}
		rng := make([]string, len(c.Range))
		for i, v := range c.Range {
			rng[i] = dataset.String(v)
		}
		fmt.Fprintf(&b, "| %s | %s | %.1f | %s | %s | %s |\n", c.Name, c.Kind, c.MissingPct, unique, strings.Join(rng, " to "), strings.ReplaceAll(c.Notes, "|", "/"))
	}
	return b.String()
}
