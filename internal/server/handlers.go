package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/KaramelBytes/dashloom-cli/internal/dashboard"
	"github.com/KaramelBytes/dashloom-cli/internal/dataset"
	"github.com/KaramelBytes/dashloom-cli/internal/engine"
	"github.com/KaramelBytes/dashloom-cli/internal/export"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// ProcessRequest carries a dataset and the elements to compute over it.
type ProcessRequest struct {
	Rows     []dataset.Row           `json:"rows"`
	Columns  []string                `json:"columns,omitempty"`
	Elements []dashboard.ElementSpec `json:"elements" validate:"required,min=1"`
}

// Bind implements render.Binder.
func (p *ProcessRequest) Bind(r *http.Request) error {
	for i, e := range p.Elements {
		if e.ID == "" {
			return fmt.Errorf("elements[%d]: id is required", i)
		}
	}
	return nil
}

// ProcessResponse lists one result per element, in request order.
type ProcessResponse struct {
	Results []engine.Result `json:"results"`
}

// StitchRequest joins a processed chart with forecast rows.
type StitchRequest struct {
	Chart    *engine.ChartData `json:"chart" validate:"required"`
	Forecast []dataset.Row     `json:"forecast"`
}

func (s *StitchRequest) Bind(r *http.Request) error { return nil }

// StitchResponse holds the combined series.
type StitchResponse struct {
	Data []dataset.Row `json:"data"`
}

// ExportRequest selects rows to download as CSV.
type ExportRequest struct {
	Rows     []dataset.Row `json:"rows"`
	Columns  []string      `json:"columns,omitempty"`
	Filename string        `json:"filename,omitempty" validate:"omitempty,max=200"`
}

func (e *ExportRequest) Bind(r *http.Request) error { return nil }

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"status": "ok"})
}

// bind decodes and validates a request body, rendering a 400 on failure.
func (s *Server) bind(w http.ResponseWriter, r *http.Request, v render.Binder) bool {
	if err := render.Bind(r, v); err != nil {
		_ = render.Render(w, r, errBadRequest(err))
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			details := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				details = append(details, fmt.Sprintf("%s: %s", fe.Namespace(), fe.Tag()))
			}
			_ = render.Render(w, r, errBadRequest(errors.New("invalid request body"), details...))
			return false
		}
		_ = render.Render(w, r, errBadRequest(err))
		return false
	}
	return true
}

func (s *Server) process(w http.ResponseWriter, r *http.Request) {
	var req ProcessRequest
	if !s.bind(w, r, &req) {
		return
	}
	spec := dashboard.Spec{Elements: req.Elements}
	for _, issue := range spec.Validate() {
		s.logger.WarnContext(r.Context(), "spec issue",
			"element_id", issue.ElementID, "field", issue.Field, "detail", issue.Message)
	}
	cols := req.Columns
	if len(cols) == 0 {
		cols = dataset.ColumnsOf(req.Rows)
	}
	ds := &dataset.Dataset{Columns: cols, Rows: req.Rows}
	results := s.proc.ProcessDashboard(r.Context(), ds, req.Elements)
	render.JSON(w, r, ProcessResponse{Results: results})
}

func (s *Server) stitch(w http.ResponseWriter, r *http.Request) {
	var req StitchRequest
	if !s.bind(w, r, &req) {
		return
	}
	data := engine.Stitch(*req.Chart, req.Forecast)
	if data == nil {
		data = []dataset.Row{}
	}
	render.JSON(w, r, StitchResponse{Data: data})
}

func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if !s.bind(w, r, &req) {
		return
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, req.Rows, req.Columns); err != nil {
		if errors.Is(err, export.ErrNoData) {
			s.logger.WarnContext(r.Context(), "csv export without data")
			_ = render.Render(w, r, errUnprocessable("No data to export."))
			return
		}
		_ = render.Render(w, r, errInternal(err))
		return
	}
	name := export.Filename(req.Filename, ".csv")
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
