package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cannedRuntime struct{ text string }

func (c cannedRuntime) Generate(context.Context, GenerateRequest) (*GenerateResponse, error) {
	return &GenerateResponse{Choices: []Choice{{Message: Message{Content: c.text}}}}, nil
}

func TestCompleteRejectsEmpty(t *testing.T) {
	_, err := Complete(context.Background(), cannedRuntime{text: "  \n"}, userRequest("m"))
	assert.ErrorIs(t, err, ErrEmptyResponse)

	text, err := Complete(context.Background(), cannedRuntime{text: " ok "}, userRequest("m"))
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
}

func TestStreamFallsBackToGenerate(t *testing.T) {
	var chunks []string
	err := Stream(context.Background(), cannedRuntime{text: "whole"}, userRequest("m"), func(d string) { chunks = append(chunks, d) })
	require.NoError(t, err)
	assert.Equal(t, []string{"whole"}, chunks)
}

func TestNewRuntime(t *testing.T) {
	rt, err := NewRuntime(ProviderOllama, RuntimeConfig{})
	require.NoError(t, err)
	assert.IsType(t, &Ollama{}, rt)

	_, err = NewRuntime("gemini", RuntimeConfig{})
	assert.ErrorContains(t, err, "unknown provider")
	assert.Equal(t, []string{ProviderOllama, ProviderOpenRouter}, Providers())
}

func TestCatalogAndRecommendations(t *testing.T) {
	mi, ok := LookupModel(DefaultModel)
	require.True(t, ok)
	assert.Greater(t, mi.ContextTokens, 100000)

	cost, ok := EstimateCostUSD("openai/gpt-4o", 1000, 1000)
	require.True(t, ok)
	assert.InDelta(t, 0.0125, cost, 1e-9)

	name, ok := RecommendModel("", "balanced")
	assert.True(t, ok)
	assert.Equal(t, DefaultModel, name)
	name, _ = RecommendModel(ProviderOllama, "cheap")
	assert.Equal(t, "llama3.1:8b", name)
	_, ok = RecommendModel("", "unknown")
	assert.False(t, ok)

	cat := Catalog()
	for i := 1; i < len(cat); i++ {
		assert.Less(t, cat[i-1].Name, cat[i].Name)
	}
}
