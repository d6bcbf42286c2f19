package dashboard

// DefaultTheme is used when a spec names no theme or an unknown one.
const DefaultTheme = "default"

// Themes maps theme names to their chart color palettes.
var Themes = map[string][]string{
	DefaultTheme:              {"#3b82f6", "#10b981", "#f59e0b", "#ef4444", "#8b5cf6", "#ec4899"},
	"ocean_breeze":            {"#0ea5e9", "#06b6d4", "#14b8a6", "#3b82f6", "#6366f1", "#22d3ee"},
	"executive_dark":          {"#60a5fa", "#a78bfa", "#f472b6", "#fbbf24", "#34d399", "#f87171"},
	"autumn_analytics":        {"#d97706", "#b45309", "#dc2626", "#ca8a04", "#92400e", "#ea580c"},
	"vibrant_growth":          {"#22c55e", "#84cc16", "#eab308", "#10b981", "#14b8a6", "#65a30d"},
	"monochrome_professional": {"#f8fafc", "#cbd5e1", "#94a3b8", "#64748b", "#475569", "#e2e8f0"},
	"sunset_glow":             {"#f97316", "#fb7185", "#f43f5e", "#facc15", "#e11d48", "#fdba74"},
	"forest_depth":            {"#166534", "#15803d", "#4d7c0f", "#3f6212", "#065f46", "#84cc16"},
	"tech_circuitry":          {"#22d3ee", "#a3e635", "#38bdf8", "#4ade80", "#2dd4bf", "#818cf8"},
	"futuristic_dark":         {"#c084fc", "#22d3ee", "#f472b6", "#a3e635", "#818cf8", "#fde047"},
}

// ThemeNames lists the themes an LLM may suggest, in prompt order.
var ThemeNames = []string{
	"ocean_breeze", "executive_dark", "autumn_analytics", "vibrant_growth",
	"monochrome_professional", "sunset_glow", "forest_depth", "tech_circuitry", "futuristic_dark",
}

// ResolveTheme returns a known theme name, falling back to DefaultTheme.
func ResolveTheme(name string) string {
	if _, ok := Themes[name]; ok {
		return name
	}
	return DefaultTheme
}
