// Package assistant builds LLM prompts for dashboard generation, refinement,
// forecasting, anomaly narratives, data profiling and prompt suggestions,
// and decodes the responses into the dashboard and engine types.
package assistant

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/KaramelBytes/dashloom-cli/internal/ai"
	"github.com/KaramelBytes/dashloom-cli/internal/dataset"
)

// Sampling limits sent to the model.
const (
	DashboardSampleRows   = 3
	AnomalyChartRows      = 15
	AnomalyDatasetRows    = 3
	ForecastHistoryPoints = 20
	DefaultForecastPeriod = 5
	DefaultProfileRows    = 10
)

// Temperatures per task; structured output runs cooler.
const (
	tempDashboard = 0.15
	tempAnomaly   = 0.3
	tempProfile   = 0.1
	tempSuggest   = 0.5
	tempForecast  = 0.2
)

// Assistant issues LLM requests against one runtime and model.
type Assistant struct {
	rt         ai.Runtime
	model      string
	logger     *slog.Logger
	sampleRows int
	periods    int
	maxTokens  int
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithLogger sets the logger used for raw-response diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(a *Assistant) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithSampleRows bounds the rows sent for profiling and suggestions.
func WithSampleRows(n int) Option {
	return func(a *Assistant) {
		if n > 0 {
			a.sampleRows = n
		}
	}
}

// WithForecastPeriods sets how many future periods a forecast asks for.
func WithForecastPeriods(n int) Option {
	return func(a *Assistant) {
		if n > 0 {
			a.periods = n
		}
	}
}

// WithMaxTokens caps completion length; zero leaves it to the runtime.
func WithMaxTokens(n int) Option {
	return func(a *Assistant) { a.maxTokens = n }
}

// New builds an Assistant. An empty model selects ai.DefaultModel.
func New(rt ai.Runtime, model string, opts ...Option) *Assistant {
	if model == "" {
		model = ai.DefaultModel
	}
	a := &Assistant{
		rt:         rt,
		model:      model,
		logger:     slog.Default(),
		sampleRows: DefaultProfileRows,
		periods:    DefaultForecastPeriod,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Model reports the model requests are sent to.
func (a *Assistant) Model() string { return a.model }

func (a *Assistant) request(instruction, user string, temperature float64, structured bool) ai.GenerateRequest {
	req := ai.System(a.model, instruction, user)
	req.Temperature = temperature
	req.JSON = structured
	req.MaxTokens = a.maxTokens
	return req
}

// jsonLines renders rows one compact JSON object per line.
func jsonLines(rows []dataset.Row) string {
	var b strings.Builder
	for _, r := range rows {
		if r == nil {
			continue
		}
		line, err := json.Marshal(r)
		if err != nil {
			continue
		}
		b.Write(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func prettyJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "null"
	}
	return string(b)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
