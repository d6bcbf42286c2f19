package ai

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// DefaultModel is used when neither flags nor config name one.
const DefaultModel = "google/gemini-2.5-flash"

// ModelInfo holds context size and illustrative pricing for cost hints.
type ModelInfo struct {
	Name          string
	ContextTokens int     // approximate context window
	InputPerK     float64 // USD per 1K input tokens
	OutputPerK    float64 // USD per 1K output tokens
}

var models = map[string]ModelInfo{
	"google/gemini-2.5-flash":          {Name: "google/gemini-2.5-flash", ContextTokens: 1048576, InputPerK: 0.0003, OutputPerK: 0.0025},
	"google/gemini-2.5-pro":            {Name: "google/gemini-2.5-pro", ContextTokens: 1048576, InputPerK: 0.00125, OutputPerK: 0.01},
	"openai/gpt-4o-mini":               {Name: "openai/gpt-4o-mini", ContextTokens: 128000, InputPerK: 0.00015, OutputPerK: 0.0006},
	"openai/gpt-4o":                    {Name: "openai/gpt-4o", ContextTokens: 128000, InputPerK: 0.0025, OutputPerK: 0.01},
	"anthropic/claude-3.5-sonnet":      {Name: "anthropic/claude-3.5-sonnet", ContextTokens: 200000, InputPerK: 0.003, OutputPerK: 0.015},
	"deepseek/deepseek-r1:free":        {Name: "deepseek/deepseek-r1:free", ContextTokens: 128000},
	"meta-llama/llama-3.1-8b-instruct": {Name: "meta-llama/llama-3.1-8b-instruct", ContextTokens: 131072},
	// Local (Ollama) tags
	"llama3.1:8b":         {Name: "llama3.1:8b", ContextTokens: 8192},
	"qwen2.5:7b-instruct": {Name: "qwen2.5:7b-instruct", ContextTokens: 32768},
	"mistral-nemo:latest": {Name: "mistral-nemo:latest", ContextTokens: 8192},
}

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[name]
	return mi, ok
}

// EstimateCostUSD estimates total cost in USD for given tokens using model pricing.
// If the model is unknown, returns 0 and ok=false.
func EstimateCostUSD(model string, promptTokens, completionTokens int) (float64, bool) {
	mi, ok := LookupModel(model)
	if !ok {
		return 0, false
	}
	return float64(promptTokens)/1000*mi.InputPerK + float64(completionTokens)/1000*mi.OutputPerK, true
}

// LoadCatalogFromJSON reads a JSON object of name -> ModelInfo.
func LoadCatalogFromJSON(path string) (map[string]ModelInfo, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m map[string]ModelInfo
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	return m, nil
}

// MergeCatalog merges/overrides entries in the in-memory catalog.
func MergeCatalog(m map[string]ModelInfo) {
	for k, v := range m {
		if v.Name == "" {
			v.Name = k
		}
		models[k] = v
	}
}

// Catalog returns the catalog sorted by name.
func Catalog() []ModelInfo {
	out := make([]ModelInfo, 0, len(models))
	for _, v := range models {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RecommendModel suggests a model for a provider and tier
// (cheap|balanced|high-context). An empty provider means openrouter.
func RecommendModel(provider, tier string) (string, bool) {
	if provider == "" {
		provider = ProviderOpenRouter
	}
	if provider == ProviderOllama {
		switch tier {
		case "cheap":
			return "llama3.1:8b", true
		case "balanced", "high-context":
			return "qwen2.5:7b-instruct", true
		}
		return "", false
	}
	switch tier {
	case "cheap":
		return "deepseek/deepseek-r1:free", true
	case "balanced":
		return DefaultModel, true
	case "high-context":
		return "google/gemini-2.5-pro", true
	}
	return "", false
}
