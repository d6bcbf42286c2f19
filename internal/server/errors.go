package server

import (
	"net/http"

	"github.com/go-chi/render"
)

// ErrResponse is the JSON body of every non-2xx answer.
type ErrResponse struct {
	HTTPStatusCode int      `json:"-"`
	Code           string   `json:"code"`
	Message        string   `json:"message"`
	Details        []string `json:"details,omitempty"`
}

// Render implements render.Renderer.
func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func errBadRequest(err error, details ...string) render.Renderer {
	return &ErrResponse{HTTPStatusCode: http.StatusBadRequest, Code: "bad_request", Message: err.Error(), Details: details}
}

func errUnprocessable(msg string) render.Renderer {
	return &ErrResponse{HTTPStatusCode: http.StatusUnprocessableEntity, Code: "no_data", Message: msg}
}

func errInternal(err error) render.Renderer {
	return &ErrResponse{HTTPStatusCode: http.StatusInternalServerError, Code: "internal", Message: err.Error()}
}

func errTooManyRequests() render.Renderer {
	return &ErrResponse{HTTPStatusCode: http.StatusTooManyRequests, Code: "rate_limited", Message: "rate limit exceeded"}
}
