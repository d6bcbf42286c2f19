package ai

import (
	"errors"
	"strings"
)

// ErrEmptyResponse is returned when a runtime answers without any content.
var ErrEmptyResponse = errors.New("model returned an empty response")

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateRequest is the runtime-neutral chat request. JSON asks the
// runtime to constrain output to a single JSON object where supported.
type GenerateRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	JSON        bool      `json:"-"`
}

// System builds a request from a system instruction and one user turn.
func System(model, instruction, user string) GenerateRequest {
	return GenerateRequest{
		Model: model,
		Messages: []Message{
			{Role: "system", Content: instruction},
			{Role: "user", Content: user},
		},
	}
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Choice struct {
	Message Message `json:"message"`
}

type GenerateResponse struct {
	ID        string   `json:"id"`
	Choices   []Choice `json:"choices"`
	Usage     Usage    `json:"usage"`
	RequestID string   `json:"-"`
}

// Text returns the trimmed content of the first choice.
func (r *GenerateResponse) Text() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return strings.TrimSpace(r.Choices[0].Message.Content)
}
