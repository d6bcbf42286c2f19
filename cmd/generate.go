package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/KaramelBytes/dashloom-cli/internal/ai"
	"github.com/KaramelBytes/dashloom-cli/internal/dashboard"
	"github.com/KaramelBytes/dashloom-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	genProjectName string
	genRefine      bool
	genDryRun      bool
	genBudgetLimit float64
	genQuiet       bool
	genAIFlags     aiFlags
)

var generateCmd = &cobra.Command{
	Use:   "generate <prompt>",
	Short: "Ask the model for a dashboard answering a question about the dataset",
	Example: `  dashloom generate -p sales "How do sales compare across regions?"
  dashloom generate -p sales --refine "Make the bar chart a pie chart"
  dashloom generate -p sales --dry-run "Revenue trend by month"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt := strings.TrimSpace(args[0])
		if prompt == "" {
			return fmt.Errorf("prompt is empty")
		}
		p, err := loadProject(genProjectName)
		if err != nil {
			return err
		}
		ds, err := p.LoadDataset()
		if err != nil {
			return err
		}
		var existing *dashboard.Spec
		if genRefine {
			if p.Spec == nil {
				return fmt.Errorf("nothing to refine: generate a dashboard first")
			}
			existing = p.Spec
		}

		a, err := genAIFlags.newAssistant(p)
		if err != nil {
			return err
		}
		model := a.Model()
		req := a.DashboardRequest(prompt, ds, existing)
		sections := make([]utils.Section, 0, len(req.Messages))
		for _, m := range req.Messages {
			sections = append(sections, utils.Section{Label: m.Role, Text: m.Content})
		}
		parts, tokens := utils.TokenBreakdown(sections...)
		if !genQuiet {
			labels := make([]string, 0, len(parts))
			for _, s := range parts {
				labels = append(labels, fmt.Sprintf("%s≈%d", s.Label, s.Tokens))
			}
			fmt.Printf("Tokens: total≈%d (%s)\n", tokens, strings.Join(labels, ", "))
		}

		reserve := req.MaxTokens
		if reserve <= 0 {
			reserve = 4096
		}
		var estCost float64
		if mi, ok := ai.LookupModel(model); ok {
			if !utils.FitsContext(tokens, reserve, mi.ContextTokens) {
				fmt.Printf("⚠ Warning: prompt (%d tokens) + completion (%d) exceeds %s context window (~%d tokens)\n",
					tokens, reserve, mi.Name, mi.ContextTokens)
			}
			if cost, ok := ai.EstimateCostUSD(model, tokens, reserve); ok {
				estCost = cost
				if !genQuiet && cost > 0 {
					fmt.Printf("Estimated max cost: ~$%.4f\n", cost)
				}
			}
		}
		if err := enforceBudget(estCost, genBudgetLimit); err != nil {
			return err
		}

		if genDryRun {
			fmt.Println("\n--dry-run: no API call will be made. Request preview below --")
			for _, m := range req.Messages {
				fmt.Printf("[%s]\n%s\n\n", strings.ToUpper(m.Role), m.Content)
			}
			return nil
		}

		ctx, cancel := genAIFlags.context()
		defer cancel()
		if !genQuiet {
			verb := "Generating"
			if genRefine {
				verb = "Refining"
			}
			fmt.Printf("⚙ %s dashboard with model=%s ...\n", verb, model)
		}
		spec, genErr := a.GenerateDashboard(ctx, prompt, ds, existing)
		entry := p.RecordGeneration(prompt, model, spec, genRefine, genErr != nil)
		if err := p.Save(); err != nil {
			return err
		}
		if genErr != nil {
			if len(spec.Elements) > 0 {
				fmt.Fprintf(os.Stderr, "⚠ %s: %s\n", spec.Title, spec.Elements[0].Interpretation)
			}
			return genAIFlags.explainAIError(genErr, model)
		}

		fmt.Printf("✓ Dashboard: %s (%d elements, history %s)\n", spec.Title, len(spec.Elements), entry.ID)
		if spec.DashboardStory != "" && !genQuiet {
			fmt.Printf("  %s\n", spec.DashboardStory)
		}
		for _, e := range spec.Elements {
			fmt.Printf("  - %s [%s] %s\n", e.ID, e.Type, e.Title)
		}
		if theme := dashboard.ResolveTheme(spec.ThemeSuggestion); theme != spec.ThemeSuggestion && spec.ThemeSuggestion != "" {
			fmt.Printf("⚠ Warning: unknown theme %q suggested, using %q\n", spec.ThemeSuggestion, theme)
		}
		if missing := missingColumns(p.Dataset.Columns, spec.Elements); len(missing) > 0 {
			fmt.Printf("⚠ Warning: elements reference unknown columns: %s\n", strings.Join(missing, ", "))
		}
		for _, issue := range spec.Validate() {
			fmt.Printf("⚠ Warning: %s\n", issue)
		}
		return nil
	},
}

// enforceBudget fails when an estimated cost exceeds a positive limit.
func enforceBudget(cost, limit float64) error {
	if limit > 0 && cost > limit {
		return fmt.Errorf("estimated cost $%.4f exceeds budget limit $%.4f", cost, limit)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVarP(&genProjectName, "project", "p", "", "project name")
	generateCmd.Flags().BoolVar(&genRefine, "refine", false, "modify the current dashboard instead of starting over")
	generateCmd.Flags().BoolVar(&genDryRun, "dry-run", false, "print the request and token estimate without calling the API")
	generateCmd.Flags().Float64Var(&genBudgetLimit, "budget-limit", 0, "fail if estimated max cost (USD) exceeds this budget")
	generateCmd.Flags().BoolVar(&genQuiet, "quiet", false, "suppress non-essential output")
	genAIFlags.register(generateCmd)
}
