package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/dashloom-cli/internal/ai"
	"github.com/KaramelBytes/dashloom-cli/internal/assistant"
	"github.com/KaramelBytes/dashloom-cli/internal/engine"
	"github.com/KaramelBytes/dashloom-cli/internal/project"
	"github.com/KaramelBytes/dashloom-cli/internal/query"
	"github.com/KaramelBytes/dashloom-cli/internal/utils"
	"github.com/spf13/cobra"
)

// aiFlags are shared by every command that talks to a model.
type aiFlags struct {
	provider   string
	model      string
	preset     string
	ollamaHost string
	timeoutSec int
}

func (f *aiFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.provider, "provider", "", "LLM provider: openrouter|ollama (default from config)")
	cmd.Flags().StringVar(&f.model, "model", "", "override model (default from project or config)")
	cmd.Flags().StringVar(&f.preset, "model-preset", "", "pick a model by tier: cheap|balanced|high-context")
	cmd.Flags().StringVar(&f.ollamaHost, "ollama-host", "", "override Ollama host (e.g., http://127.0.0.1:11434)")
	cmd.Flags().IntVar(&f.timeoutSec, "timeout-sec", 180, "request timeout in seconds")
}

func (f *aiFlags) providerName() string {
	p := f.provider
	if p == "" && cfg != nil {
		p = cfg.DefaultProvider
	}
	switch strings.ToLower(p) {
	case "", ai.ProviderOpenRouter:
		return ai.ProviderOpenRouter
	case "local", ai.ProviderOllama:
		return ai.ProviderOllama
	}
	return strings.ToLower(p)
}

// selectModel resolves the model: flag, then tier preset, then project,
// then config, then the built-in default.
func (f *aiFlags) selectModel(p *project.Project) (string, error) {
	if f.model != "" {
		return f.model, nil
	}
	if f.preset != "" {
		name, ok := ai.RecommendModel(f.providerName(), f.preset)
		if !ok {
			return "", fmt.Errorf("unknown --model-preset: %s (use cheap|balanced|high-context)", f.preset)
		}
		return name, nil
	}
	if p != nil && p.Config != nil && p.Config.Model != "" {
		return p.Config.Model, nil
	}
	if cfg != nil && cfg.DefaultModel != "" {
		return cfg.DefaultModel, nil
	}
	return ai.DefaultModel, nil
}

// buildRuntime creates the configured LLM runtime.
func (f *aiFlags) buildRuntime() (ai.Runtime, error) {
	rc := ai.RuntimeConfig{}
	if cfg != nil {
		rc.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSec) * time.Second
		rc.RetryMax = cfg.RetryMaxAttempts
		rc.BaseDelay = time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond
		rc.MaxDelay = time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond
		rc.APIKey = cfg.APIKey
		rc.Host = cfg.OllamaHost
	}
	provider := f.providerName()
	switch provider {
	case ai.ProviderOpenRouter:
		if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
			rc.APIKey = k
		}
	case ai.ProviderOllama:
		if f.ollamaHost != "" {
			rc.Host = f.ollamaHost
		}
		if cfg != nil && cfg.OllamaTimeoutSec > 0 {
			rc.HTTPTimeout = time.Duration(cfg.OllamaTimeoutSec) * time.Second
		}
	}
	return ai.NewRuntime(provider, rc)
}

// newAssistant wires runtime, model and config knobs together.
func (f *aiFlags) newAssistant(p *project.Project) (*assistant.Assistant, error) {
	rt, err := f.buildRuntime()
	if err != nil {
		return nil, err
	}
	model, err := f.selectModel(p)
	if err != nil {
		return nil, err
	}
	opts := []assistant.Option{assistant.WithLogger(logger)}
	if cfg != nil {
		opts = append(opts,
			assistant.WithSampleRows(cfg.SampleRows),
			assistant.WithForecastPeriods(cfg.ForecastPeriods),
			assistant.WithMaxTokens(cfg.MaxTokens),
		)
	}
	if p != nil && p.Config != nil && p.Config.MaxTokens > 0 {
		opts = append(opts, assistant.WithMaxTokens(p.Config.MaxTokens))
	}
	return assistant.New(rt, model, opts...), nil
}

func (f *aiFlags) context() (context.Context, context.CancelFunc) {
	sec := f.timeoutSec
	if sec <= 0 {
		sec = 180
	}
	return context.WithTimeout(context.Background(), time.Duration(sec)*time.Second)
}

// explainAIError turns an assistant failure into an actionable message.
func (f *aiFlags) explainAIError(err error, model string) error {
	switch assistant.Code(err) {
	case assistant.CodeUnreachable:
		var unreach *ai.UnreachableError
		if f.providerName() == ai.ProviderOllama && errors.As(err, &unreach) {
			return fmt.Errorf("Ollama not reachable at %s. Ensure Ollama is running and the host is correct (DASHLOOM_OLLAMA_HOST or config 'ollama_host'): %w", unreach.Host, err)
		}
		return fmt.Errorf("endpoint unreachable or timed out. Check your network and provider settings: %w", err)
	case assistant.CodeAuth:
		return fmt.Errorf("authentication failed: set OPENROUTER_API_KEY or add api_key in config (~/.dashloom/config.yaml): %w", err)
	case assistant.CodeRateLimited:
		var rl *ai.RateLimitError
		if errors.As(err, &rl) && rl.RetryAfter > 0 {
			return fmt.Errorf("rate limited, try again in ~%ds: %w", int(rl.RetryAfter.Seconds()), err)
		}
		return fmt.Errorf("rate limited or out of quota, check your provider account: %w", err)
	case assistant.CodeModelNotFound:
		if f.providerName() == ai.ProviderOllama {
			return fmt.Errorf("local model not available (%s). Install it with 'ollama pull %s' or choose another model: %w", model, model, err)
		}
		return fmt.Errorf("model not found (%s). Check 'dashloom models show': %w", model, err)
	case assistant.CodeBadRequest:
		return fmt.Errorf("request rejected. Try a smaller --sample-rows or another model: %w", err)
	case assistant.CodeServer:
		return fmt.Errorf("provider appears unavailable (server error). Please retry later: %w", err)
	}
	return err
}

// newProcessor builds the engine, opening the PostgreSQL executor when a
// query DSN is configured. The returned func releases it.
func newProcessor(ctx context.Context, workers int) (*engine.Processor, func(), error) {
	opts := []engine.Option{engine.WithLogger(logger)}
	if workers <= 0 && cfg != nil {
		workers = cfg.Workers
	}
	if workers > 0 {
		opts = append(opts, engine.WithWorkers(workers))
	}
	cleanup := func() {}
	if cfg != nil && cfg.QueryDSN != "" {
		pg, err := query.OpenPostgres(ctx, cfg.QueryDSN, 30*time.Second, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("query executor: %w", err)
		}
		opts = append(opts, engine.WithExecutor(pg))
		cleanup = func() { _ = pg.Close() }
	}
	return engine.New(opts...), cleanup, nil
}

func defaultProjectsDir() (string, error) {
	var dir string
	if cfg != nil && cfg.ProjectsDir != "" {
		dir = utils.ExpandHome(cfg.ProjectsDir)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".dashloom", "projects")
	}
	if err := utils.EnsureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

func resolveProjectDirByName(name string) (string, error) {
	if name == "" {
		return "", errors.New("project name is required")
	}
	root, err := defaultProjectsDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, name), nil
}

// loadProject opens a project by name, or the project enclosing the
// working directory when name is empty.
func loadProject(name string) (*project.Project, error) {
	if name == "" {
		dir, err := utils.FindProjectRoot("")
		if err != nil {
			return nil, fmt.Errorf("--project is required (or run inside a project directory)")
		}
		return project.LoadProject(dir)
	}
	dir, err := resolveProjectDirByName(name)
	if err != nil {
		return nil, err
	}
	return project.LoadProject(dir)
}
