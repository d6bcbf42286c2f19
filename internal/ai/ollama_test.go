package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaGenerate(t *testing.T) {
	var captured ollamaChatRequest
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]any{"role": "assistant", "content": "hello from ollama"},
		})
	}))

	req := System("llama3.1:8b", "be brief", "hi")
	req.JSON = true
	req.Temperature = 0.2
	resp, err := NewOllama(srv.URL, 2*time.Second, 1, 0, 0).Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "hello from ollama", resp.Text())
	assert.NotEmpty(t, resp.RequestID)
	assert.Equal(t, req.Messages, captured.Messages)
	assert.Equal(t, "json", captured.Format)
	assert.Equal(t, 0.2, captured.Options["temperature"])
}

func TestOllamaErrors(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "model 'x' not found, try pulling it first"})
	}))
	_, err := NewOllama(srv.URL, time.Second, 1, 0, 0).Generate(context.Background(), userRequest("x"))
	var nf *ModelNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Contains(t, nf.Message, "try pulling")

	c := NewOllama("http://127.0.0.1:1", 500*time.Millisecond, 1, 0, 0)
	_, err = c.Generate(context.Background(), userRequest("x"))
	var ue *UnreachableError
	assert.ErrorAs(t, err, &ue)

	_, err = c.Generate(context.Background(), GenerateRequest{Model: "x"})
	assert.EqualError(t, err, "messages cannot be empty")
	err = c.GenerateStream(context.Background(), GenerateRequest{Model: "x"}, func(string) {})
	assert.EqualError(t, err, "messages cannot be empty")
}

func TestOllamaStream(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":"## Anomaly"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":" found"},"done":false}`)
		fmt.Fprintln(w, `{"message":{"role":"assistant","content":""},"done":true}`)
	}))
	var out string
	err := NewOllama(srv.URL, time.Second, 1, 0, 0).GenerateStream(context.Background(), userRequest("x"), func(d string) { out += d })
	require.NoError(t, err)
	assert.Equal(t, "## Anomaly found", out)
}
