package assistant

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/dashloom-cli/internal/dashboard"
	"github.com/KaramelBytes/dashloom-cli/internal/dataset"
)

func elementTypeList() string {
	names := make([]string, len(dashboard.ElementTypes))
	for i, t := range dashboard.ElementTypes {
		names[i] = "'" + string(t) + "'"
	}
	return strings.Join(names, ", ")
}

func themeList() string {
	return `"` + strings.Join(dashboard.ThemeNames, `", "`) + `"`
}

const sqlRules = `SQL rules (mandatory):
- Every query reads the dataset as the single table "?": always write FROM ?. Never use another table name.
- Enclose EVERY column name in backticks, e.g. SELECT ` + "`Store`, SUM(`Sales`) AS TotalSales FROM ? GROUP BY `Store`" + `.
  This applies to SELECT, WHERE, GROUP BY, ORDER BY and function arguments alike. Column names are case-sensitive.
- Queries run on PostgreSQL. Numeric columns are DOUBLE PRECISION, true/false columns are BOOLEAN, everything else is TEXT.
- Dates arrive as TEXT: cast before using date functions, e.g. to_char(CAST(` + "`OrderDate`" + ` AS date), 'YYYY-MM') AS SalesMonth,
  EXTRACT(YEAR FROM CAST(` + "`OrderDate`" + ` AS date)). Window functions, CTEs and CASE are available.
- Alias every aggregate and use those aliases as metric and dimension columns with operation NONE.`

const schemaDoc = `JSON output structure:
{
  "title": "Dashboard title",
  "dashboardStory": "Overall narrative or key insight (optional)",
  "themeSuggestion": "one of the listed themes",
  "generatedQuery": "SELECT ... FROM ? (the primary SQL, when SQL was involved)",
  "elements": [
    {
      "id": "unique_descriptive_id",
      "type": "KPI | BarChart | PieChart | LineChart | Table | ScatterPlot | AreaChart | Histogram | MapChart",
      "title": "Element title",
      "interpretation": "Why this element matters (optional)",
      "dataSourceQuery": "SELECT ... FROM ? (optional)",
      "metric": {"column": "alias", "operation": "NONE|SUM|COUNT|AVG|MIN|MAX|COUNT_DISTINCT", "displayName": "Name"},
      "valuePrefix": "$", "valueSuffix": "M",
      "dimension": {"column": "alias", "displayName": "Axis name"},
      "metrics": [{"column": "alias", "operation": "NONE", "displayName": "Series name"}]
    }
  ]
}
KPI elements use "metric"; every other type uses "metrics" and usually "dimension".`

const chartGuide = `Chart selection:
- Trends over time: LineChart (AreaChart for stacked trends). A single current value: KPI.
- Part-to-whole: PieChart for fewer than 5 categories, BarChart for 5 or more.
- Relationship between two numeric columns: ScatterPlot; metrics[0] is X, metrics[1] is Y, an optional third metric or a dimension colors the points.
- Comparisons across categories: BarChart, several metrics make grouped bars.
- Distribution of one numeric column: Histogram with exactly one metric (operation NONE) and no dimension; binning is automatic.
- Raw rows, rankings or detailed breakdowns: Table.
- Latitude/longitude or place columns: MapChart with metrics latitude, longitude, value. Without coordinates fall back to BarChart or Table and say so in the interpretation.
- Unavailable types (treemap, funnel, heatmap, sankey, gauge): pick the closest available type and explain the substitution in the interpretation.
- Targets: show the actual value as a KPI and compare it to the target in the interpretation.
- Currency conversion requests: keep the source currency, say in the interpretation that no live exchange rate was applied.`

const jsonRules = `Formatting rules:
- Respond with ONLY the JSON object: no prose, no comments, no markdown fences.
- Double-quote every key and string; numbers unquoted; no trailing commas.
- Element ids must be unique.`

func dashboardInstruction(prompt string, columns []string, sample []dataset.Row, existing *dashboard.Spec) string {
	var b strings.Builder
	b.WriteString("You are an assistant that designs or refines insightful dashboard specifications from a user request and a dataset.\n")
	b.WriteString("Your SOLE output MUST be a single valid JSON object following the structure below.\n\n")
	fmt.Fprintf(&b, "Dataset columns: %s.\n", strings.Join(columns, ", "))
	if len(sample) > 0 {
		fmt.Fprintf(&b, "Sample rows (column names are case-sensitive):\n%s", jsonLines(sample))
	}
	b.WriteString("\n")
	if existing != nil {
		b.WriteString("Refinement task:\n")
		b.WriteString("- Start from the current specification below and change it only as far as the new request requires.\n")
		b.WriteString("- Touch only the elements the request concerns; regenerate everything only if the request starts over.\n")
		b.WriteString("- Filters (\"only electronics\") become WHERE clauses in the relevant dataSourceQuery.\n")
		b.WriteString("- Keep element ids stable.\n")
		fmt.Fprintf(&b, "- The refinement request is: %q\n\n", prompt)
		fmt.Fprintf(&b, "Current specification:\n```json\n%s\n```\n\n", prettyJSON(existing))
	} else {
		b.WriteString("Task:\n")
		b.WriteString("1. Study the columns and sample rows before designing anything.\n")
		b.WriteString("2. Interpret the request, whether natural language, SQL or pandas-style Python; translate Python to SQL.\n")
		b.WriteString("3. Design a dashboard that answers the request and tells a story about trends, outliers and segments.\n")
		b.WriteString("4. Put the overall narrative in dashboardStory and a short interpretation on each element.\n")
		fmt.Fprintf(&b, "5. Suggest themeSuggestion from: %s.\n", themeList())
		b.WriteString("6. Put the primary SQL in generatedQuery and element-specific SQL in dataSourceQuery.\n")
		b.WriteString("7. If the request is ambiguous or the data cannot answer it, give the best interpretation and explain in the interpretation fields.\n\n")
	}
	fmt.Fprintf(&b, "Available element types: %s.\n\n", elementTypeList())
	b.WriteString(sqlRules + "\n\n" + chartGuide + "\n\n" + schemaDoc + "\n\n" + jsonRules + "\n")
	return b.String()
}

const anomalyInstruction = `You are an expert data analyst. Analyze the chart data, identify significant anomalies or outliers, and suggest explanations using the other columns of the original dataset.
Answer in well-formatted MARKDOWN: a heading per anomaly, bullet points for explanations. Be concise.`

func anomalyPrompt(e dashboard.ElementSpec, chartRows []dataset.Row, columns []string, datasetRows []dataset.Row) string {
	dim := "N/A"
	if e.Dimension != nil {
		dim = e.Dimension.DisplayName
		if dim == "" {
			dim = e.Dimension.Column
		}
	}
	metrics := make([]string, len(e.Metrics))
	for i, m := range e.Metrics {
		metrics[i] = m.Key()
	}
	var b strings.Builder
	b.WriteString("Analyze the following chart data for anomalies.\n\n")
	fmt.Fprintf(&b, "Chart title: %s\nChart type: %s\nDimension: %s\nMetrics: %s\n\n", e.Title, e.Type, dim, strings.Join(metrics, ", "))
	fmt.Fprintf(&b, "Chart data (sample):\n```json\n%s\n```\n\n", prettyJSON(chartRows))
	fmt.Fprintf(&b, "The original dataset has the columns: %s.\n", strings.Join(columns, ", "))
	fmt.Fprintf(&b, "First %d rows of the original dataset:\n```json\n%s```\n\n", len(datasetRows), jsonLines(datasetRows))
	b.WriteString(`Task:
1. Identify the one or two most significant anomalies, outliers or unexpected patterns in the chart data, i.e. points far from the trend, mean or typical range.
2. For each: describe it, give 1-3 plausible causes linked to other dataset columns where possible, and name the data point where it is most visible.
3. Use headings such as "## Anomaly in <metric>". If nothing stands out, say "No significant anomalies were detected in the provided sample."
Output Markdown only, never JSON.
`)
	return b.String()
}

func profileInstruction(columns []string, sample []dataset.Row) string {
	var b strings.Builder
	b.WriteString("You are a data profiling assistant. Analyze the columns and sample rows and produce a concise data profile.\n")
	b.WriteString("Your SOLE output MUST be a single valid JSON object.\n\n")
	fmt.Fprintf(&b, "Columns: %s\n", strings.Join(columns, ", "))
	if len(sample) > 0 {
		fmt.Fprintf(&b, "First %d rows:\n%s\n", len(sample), jsonLines(sample))
	} else {
		b.WriteString("No sample data provided.\n\n")
	}
	b.WriteString(`JSON structure:
{
  "profile": {
    "overallSummary": "1-2 sentences on the data, mentioning widespread issues",
    "columns": [
      {
        "columnName": "string",
        "inferredType": "Numerical | Categorical | Text | Date | Boolean | Mixed | Unknown",
        "missingPercentage": 0.0,
        "uniqueValues": 0,
        "valueRange": ["min", "max"],
        "notes": "short observation"
      }
    ]
  }
}
Guidelines:
- One entry per listed column, in order.
- missingPercentage counts null and empty values in the sample, 0-100, one decimal.
- uniqueValues only for Categorical or Text columns with at most 10 distinct sample values.
- valueRange is [min, max] for Numerical and Date, up to two example values for small Categorical columns, omitted otherwise.
- notes flag problems first: high cardinality, mixed types, likely ID column, mostly null.
`)
	b.WriteString(jsonRules + "\n")
	return b.String()
}

func suggestInstruction(columns []string, sample []dataset.Row) string {
	var b strings.Builder
	b.WriteString("You suggest interesting questions to ask about a dataset.\n")
	b.WriteString("From the columns and sample rows, propose 3 to 5 questions that would produce insightful dashboards: trends, comparisons, distributions, correlations.\n")
	b.WriteString(`Your SOLE output MUST be a JSON object: {"suggestedPrompts": ["question", ...]}` + "\n\n")
	fmt.Fprintf(&b, "Columns: %s\n", strings.Join(columns, ", "))
	if len(sample) > 0 {
		fmt.Fprintf(&b, "First %d rows:\n%s", len(sample), jsonLines(sample))
	}
	b.WriteString("\n" + jsonRules + "\n")
	return b.String()
}

func forecastInstruction(title, dimKey string, metricKeys []string, history []dataset.Row, periods int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a forecasting specialist. Analyze the historical series and forecast the next %d periods.\n", periods)
	b.WriteString("Your SOLE output MUST be a single valid JSON object:\n")
	fmt.Fprintf(&b, `{"forecastedData": [ {"%s": "next label", "%s": 123.45}, ... ], "forecastExplanation": "1-2 sentences on the trend"}`, dimKey, metricKeys[0])
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Chart title: %s\nDimension: %s\nMetrics: %s\n", title, dimKey, strings.Join(metricKeys, ", "))
	fmt.Fprintf(&b, "Last %d historical points:\n```json\n%s\n```\n\n", len(history), prettyJSON(history))
	fmt.Fprintf(&b, `Task:
1. Look for trend and seasonality in the history.
2. Forecast exactly %d points for each metric: %s.
3. Continue the dimension %q logically: next month for YYYY-MM, next year for YYYY, next number, next quarter for "Q1 2023", next day for dates; otherwise "Forecast Period 1", "Forecast Period 2" and so on.
4. Each forecast object uses exactly the keys %q and %s, nothing else.
`, periods, strings.Join(metricKeys, ", "), dimKey, dimKey, quoteAll(metricKeys))
	b.WriteString(jsonRules + "\n")
	return b.String()
}

func quoteAll(ss []string) string {
	q := make([]string, len(ss))
	for i, s := range ss {
		q[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(q, ", ")
}
