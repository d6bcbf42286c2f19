package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/KaramelBytes/dashloom-cli/internal/ai"
	"github.com/KaramelBytes/dashloom-cli/internal/dashboard"
	"github.com/KaramelBytes/dashloom-cli/internal/dataset"
)

// FallbackTitle heads the spec returned when the model output is unusable.
const FallbackTitle = "AI Specification Error"

// GenerateDashboard asks the model for a dashboard spec answering prompt.
// With existing set it refines that spec instead of starting over.
//
// The returned spec is never nil. When generation fails it is a one-table
// fallback describing the problem and the error is a *Error carrying the
// ErrorCode.
func (a *Assistant) GenerateDashboard(ctx context.Context, prompt string, ds *dataset.Dataset, existing *dashboard.Spec) (*dashboard.Spec, error) {
	req := a.DashboardRequest(prompt, ds, existing)
	text, err := ai.Complete(ctx, a.rt, req)
	if err != nil {
		a.logger.Error("dashboard generation failed", "error", err)
		return transportFallback(err), wrap("generate dashboard", err)
	}

	var spec dashboard.Spec
	if err := decodeJSON(text, "elements", &spec); err != nil {
		a.logger.Error("unusable dashboard spec", "error", err, "raw", truncate(text, 500))
		return parseFallback(err, text), wrap("generate dashboard", err)
	}
	spec.ThemeSuggestion = strings.TrimSpace(spec.ThemeSuggestion)
	for _, issue := range spec.Validate() {
		a.logger.Warn("spec issue", "element_id", issue.ElementID, "field", issue.Field, "detail", issue.Message)
	}
	return &spec, nil
}

// DashboardRequest builds the request GenerateDashboard sends, for dry runs
// and token estimates.
func (a *Assistant) DashboardRequest(prompt string, ds *dataset.Dataset, existing *dashboard.Spec) ai.GenerateRequest {
	var columns []string
	var sample []dataset.Row
	if ds != nil {
		columns = ds.Columns
		sample = ds.Sample(DashboardSampleRows)
	}
	return a.request(dashboardInstruction(prompt, columns, sample, existing), prompt, tempDashboard, true)
}

func errorElement(id, title, interpretation string) dashboard.ElementSpec {
	return dashboard.ElementSpec{
		ID:             id,
		Type:           dashboard.Table,
		Title:          title,
		Interpretation: interpretation,
		Metrics:        []dashboard.MetricDefinition{{Column: "message", Operation: dashboard.OpNone, DisplayName: "Error Details"}},
	}
}

func parseFallback(err error, raw string) *dashboard.Spec {
	el := errorElement("error_element_spec_parse",
		fmt.Sprintf("Error: AI returned unparsable content. Details: %v.", err),
		fmt.Sprintf("The model's response was not a valid dashboard specification. Try simplifying the request. (Raw: %s...)", truncate(raw, 100)))
	if strings.Contains(err.Error(), "not an array") {
		el.ID = "error_element_spec_structure"
		el.Title = "Error: AI response did not match expected dashboard structure."
	}
	return &dashboard.Spec{Title: FallbackTitle, Elements: []dashboard.ElementSpec{el}}
}

func transportFallback(err error) *dashboard.Spec {
	title, hint := "AI Service Error", "The AI service encountered an issue. Try rephrasing or simplifying the request."
	switch Code(err) {
	case CodeModelNotFound:
		title, hint = "AI Model Not Found (404)", "The requested model was not found. Check the model name in your config."
	case CodeServer:
		title, hint = "AI Service Internal Error (500)", "The AI service returned an internal error. This is often temporary or caused by request size."
	case CodeBadRequest:
		title, hint = "AI Service Bad Request (400)", "The AI service did not understand the request."
	case CodeAuth:
		title, hint = "AI Service Authentication/Permission Error", "Verify your API key."
	case CodeRateLimited:
		title, hint = "AI Service Rate Limited (429)", "The AI service is throttling requests or the quota is spent. Wait and retry."
	case CodeUnreachable:
		title, hint = "AI Service Unreachable", "The AI runtime could not be reached. Check the host and your network."
	case CodeInvalidResponse:
		title, hint = FallbackTitle, "The model returned an empty response."
	}
	interpretation := fmt.Sprintf("%s Original error: %s", hint, truncate(err.Error(), 150))
	return &dashboard.Spec{Title: title, Elements: []dashboard.ElementSpec{errorElement("error_element_api", title, interpretation)}}
}
