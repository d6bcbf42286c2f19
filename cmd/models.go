package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/KaramelBytes/dashloom-cli/internal/ai"
	"github.com/KaramelBytes/dashloom-cli/internal/utils"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect the model catalog and pricing",
	Example: `  dashloom models show
  dashloom models recommend --tier cheap --provider ollama
  dashloom models sync --file ./models.json --save`,
}

var modelsJSON bool

var modelsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current model catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat := ai.Catalog()
		if modelsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(cat)
		}
		for _, m := range cat {
			price := "free/local"
			if m.InputPerK > 0 || m.OutputPerK > 0 {
				price = fmt.Sprintf("$%.5f in / $%.5f out per 1K", m.InputPerK, m.OutputPerK)
			}
			fmt.Printf("- %s (context ~%d tokens, %s)\n", m.Name, m.ContextTokens, price)
		}
		return nil
	},
}

var (
	recTier     string
	recProvider string
)

var modelsRecommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Suggest a model for a provider and tier",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, ok := ai.RecommendModel(recProvider, recTier)
		if !ok {
			return fmt.Errorf("unknown tier: %s (use cheap|balanced|high-context)", recTier)
		}
		fmt.Println(name)
		return nil
	},
}

var (
	syncPath string
	syncSave bool
)

var modelsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Merge model catalog/pricing from a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncPath == "" {
			return fmt.Errorf("--file is required")
		}
		m, err := ai.LoadCatalogFromJSON(syncPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		ai.MergeCatalog(m)
		fmt.Printf("✓ Merged %d models from %s\n", len(m), syncPath)
		if syncSave {
			if cfg == nil {
				return fmt.Errorf("no config loaded; cannot persist models_catalog")
			}
			if err := cfg.Set("models_catalog", utils.ExpandHome(syncPath)); err != nil {
				return err
			}
			if err := saveConfig(); err != nil {
				return err
			}
			fmt.Println("✓ Catalog will be loaded on every run (models_catalog)")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.AddCommand(modelsShowCmd, modelsRecommendCmd, modelsSyncCmd)

	modelsShowCmd.Flags().BoolVar(&modelsJSON, "json", false, "print the catalog as JSON")
	modelsRecommendCmd.Flags().StringVar(&recTier, "tier", "balanced", "cheap|balanced|high-context")
	modelsRecommendCmd.Flags().StringVar(&recProvider, "provider", "", "openrouter|ollama")
	modelsSyncCmd.Flags().StringVar(&syncPath, "file", "", "path to JSON catalog file")
	modelsSyncCmd.Flags().BoolVar(&syncSave, "save", false, "remember the file in config so it loads on every run")
}
