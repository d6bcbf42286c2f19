package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/KaramelBytes/dashloom-cli/internal/ai"
	"github.com/KaramelBytes/dashloom-cli/internal/dataset"
)

// SuggestPrompts returns 3 to 5 starter questions for ds. Any failure
// yields an empty list.
func (a *Assistant) SuggestPrompts(ctx context.Context, ds *dataset.Dataset) []string {
	columns := ds.Columns
	req := a.request(suggestInstruction(columns, ds.Sample(a.sampleRows)),
		fmt.Sprintf("Generate suggested prompts for the dataset with columns: %s.", strings.Join(columns, ", ")), tempSuggest, true)
	text, err := ai.Complete(ctx, a.rt, req)
	if err != nil {
		a.logger.Warn("prompt suggestions unavailable", "code", string(Code(err)), "error", err)
		return []string{}
	}
	var out struct {
		Prompts []string `json:"suggestedPrompts"`
	}
	if err := decodeJSON(text, "suggestedPrompts", &out); err != nil {
		a.logger.Warn("unusable prompt suggestions", "error", err)
		return []string{}
	}
	prompts := make([]string, 0, len(out.Prompts))
	for _, p := range out.Prompts {
		if p = strings.TrimSpace(p); p != "" {
			prompts = append(prompts, p)
		}
	}
	return prompts
}
