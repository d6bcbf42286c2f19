package project

import (
	"time"

	"github.com/KaramelBytes/dashloom-cli/internal/dashboard"
	"github.com/KaramelBytes/dashloom-cli/internal/dataset"
	"github.com/google/uuid"
)

// HistoryEntry records one prompt and the dashboard it produced.
type HistoryEntry struct {
	ID         string          `json:"id"`
	Prompt     string          `json:"prompt"`
	Refinement bool            `json:"refinement,omitempty"`
	Model      string          `json:"model,omitempty"`
	Failed     bool            `json:"failed,omitempty"`
	Spec       *dashboard.Spec `json:"spec"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Forecast is a stored forecast for one chart element.
type Forecast struct {
	ElementID   string        `json:"element_id"`
	Data        []dataset.Row `json:"data"`
	Explanation string        `json:"explanation"`
	CreatedAt   time.Time     `json:"created_at"`
}

// RecordGeneration appends a history entry. A successful generation also
// becomes the current dashboard and drops forecasts of elements that no
// longer exist; a failed one (the fallback spec) is kept only in history.
func (p *Project) RecordGeneration(prompt, model string, spec *dashboard.Spec, refinement, failed bool) HistoryEntry {
	e := HistoryEntry{
		ID:         uuid.NewString(),
		Prompt:     prompt,
		Refinement: refinement,
		Model:      model,
		Failed:     failed,
		Spec:       spec,
		CreatedAt:  time.Now(),
	}
	p.History = append(p.History, e)
	if !failed && spec != nil {
		p.Spec = spec
		for id := range p.Forecasts {
			if _, ok := spec.Element(id); !ok {
				delete(p.Forecasts, id)
			}
		}
	}
	p.UpdatedAt = time.Now()
	return e
}

// Prompts returns the issued prompts, oldest first.
func (p *Project) Prompts() []string {
	out := make([]string, 0, len(p.History))
	for _, h := range p.History {
		out = append(out, h.Prompt)
	}
	return out
}

// Revert makes the spec of a previous successful history entry current again.
func (p *Project) Revert(id string) bool {
	for _, h := range p.History {
		if h.ID == id && !h.Failed && h.Spec != nil {
			p.Spec = h.Spec
			p.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// SetForecast stores a forecast for an element, replacing any earlier one.
func (p *Project) SetForecast(elementID string, data []dataset.Row, explanation string) *Forecast {
	if p.Forecasts == nil {
		p.Forecasts = make(map[string]*Forecast)
	}
	f := &Forecast{
		ElementID:   elementID,
		Data:        data,
		Explanation: explanation,
		CreatedAt:   time.Now(),
	}
	p.Forecasts[elementID] = f
	p.UpdatedAt = time.Now()
	return f
}
