package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Set assigns one configuration key from its string form.
func (c *Global) Set(key, val string) error {
	switch key {
	case "api_key":
		c.APIKey = val
	case "default_model":
		c.DefaultModel = val
	case "default_provider":
		p, err := normalizeProvider(val)
		if err != nil {
			return err
		}
		c.DefaultProvider = p
	case "max_tokens":
		return setInt(&c.MaxTokens, key, val, 1)
	case "temperature":
		f, err := strconv.ParseFloat(val, 64)
		if err != nil || f < 0 || f > 2 {
			return fmt.Errorf("invalid float for temperature: %s (want 0..2)", val)
		}
		c.Temperature = f
	case "projects_dir":
		c.ProjectsDir = val
	case "models_catalog":
		c.ModelsCatalog = val
	case "query_dsn":
		c.QueryDSN = val
	case "workers":
		return setInt(&c.Workers, key, val, 0)
	case "forecast_periods":
		return setInt(&c.ForecastPeriods, key, val, 1)
	case "sample_rows":
		return setInt(&c.SampleRows, key, val, 1)
	case "log_level":
		switch strings.ToLower(val) {
		case "debug", "info", "warn", "warning", "error":
			c.LogLevel = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
		}
	case "log_format":
		switch strings.ToLower(val) {
		case "text", "json":
			c.LogFormat = strings.ToLower(val)
		default:
			return fmt.Errorf("invalid log_format: %s (use text or json)", val)
		}
	case "server_addr":
		c.ServerAddr = val
	case "http_timeout_sec":
		return setInt(&c.HTTPTimeoutSec, key, val, 1)
	case "retry_max_attempts":
		return setInt(&c.RetryMaxAttempts, key, val, 0)
	case "retry_base_delay_ms":
		return setInt(&c.RetryBaseDelayMs, key, val, 0)
	case "retry_max_delay_ms":
		return setInt(&c.RetryMaxDelayMs, key, val, 0)
	case "ollama_host":
		c.OllamaHost = val
	case "ollama_timeout_sec":
		return setInt(&c.OllamaTimeoutSec, key, val, 1)
	default:
		return fmt.Errorf("unknown key: %s", key)
	}
	return nil
}

// Get renders one key for display. Secrets are masked.
func (c *Global) Get(key string) (string, bool) {
	switch key {
	case "api_key":
		return Mask(c.APIKey), true
	case "default_model":
		return c.DefaultModel, true
	case "default_provider":
		return c.DefaultProvider, true
	case "max_tokens":
		return strconv.Itoa(c.MaxTokens), true
	case "temperature":
		return strconv.FormatFloat(c.Temperature, 'f', 3, 64), true
	case "projects_dir":
		return c.ProjectsDir, true
	case "models_catalog":
		return c.ModelsCatalog, true
	case "query_dsn":
		return maskDSN(c.QueryDSN), true
	case "workers":
		return strconv.Itoa(c.Workers), true
	case "forecast_periods":
		return strconv.Itoa(c.ForecastPeriods), true
	case "sample_rows":
		return strconv.Itoa(c.SampleRows), true
	case "log_level":
		return c.LogLevel, true
	case "log_format":
		return c.LogFormat, true
	case "server_addr":
		return c.ServerAddr, true
	case "http_timeout_sec":
		return strconv.Itoa(c.HTTPTimeoutSec), true
	case "retry_max_attempts":
		return strconv.Itoa(c.RetryMaxAttempts), true
	case "retry_base_delay_ms":
		return strconv.Itoa(c.RetryBaseDelayMs), true
	case "retry_max_delay_ms":
		return strconv.Itoa(c.RetryMaxDelayMs), true
	case "ollama_host":
		return c.OllamaHost, true
	case "ollama_timeout_sec":
		return strconv.Itoa(c.OllamaTimeoutSec), true
	}
	return "", false
}

func setInt(dst *int, key, val string, min int) error {
	i, err := strconv.Atoi(val)
	if err != nil || i < min {
		return fmt.Errorf("invalid int for %s: %s (min %d)", key, val, min)
	}
	*dst = i
	return nil
}

func normalizeProvider(val string) (string, error) {
	switch strings.ToLower(val) {
	case "openrouter":
		return "openrouter", nil
	case "ollama", "local":
		return "ollama", nil
	}
	return "", fmt.Errorf("invalid default_provider: %s (use openrouter or ollama)", val)
}

// Mask hides all but the ends of a secret.
func Mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}

// maskDSN hides the password of a postgres URL or key=value DSN.
func maskDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	if at := strings.LastIndex(dsn, "@"); at > 0 {
		if colon := strings.LastIndex(dsn[:at], ":"); colon > strings.Index(dsn, "://")+2 {
			return dsn[:colon+1] + "****" + dsn[at:]
		}
		return dsn
	}
	fields := strings.Fields(dsn)
	for i, f := range fields {
		if strings.HasPrefix(f, "password=") {
			fields[i] = "password=****"
		}
	}
	return strings.Join(fields, " ")
}
