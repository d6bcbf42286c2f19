package cmd

import (
	"fmt"

	"github.com/KaramelBytes/dashloom-cli/internal/dashboard"
	"github.com/spf13/cobra"
)

var (
	pmProject string
	pmClear   bool
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage per-project settings",
}

var projectSetModelCmd = &cobra.Command{
	Use:   "set-model <model>",
	Short: "Set or clear a project's default model",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject(pmProject)
		if err != nil {
			return err
		}
		if pmClear {
			p.Config.Model = ""
		} else {
			if len(args) == 0 || args[0] == "" {
				return fmt.Errorf("model is required unless --clear is set")
			}
			p.Config.Model = args[0]
		}
		if err := p.Save(); err != nil {
			return err
		}
		if pmClear {
			fmt.Printf("✓ Cleared project model for %s\n", p.Name)
		} else {
			fmt.Printf("✓ Set project model for %s: %s\n", p.Name, p.Config.Model)
		}
		return nil
	},
}

var projectSetThemeCmd = &cobra.Command{
	Use:   "set-theme <theme>",
	Short: "Override the theme the model suggested",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject(pmProject)
		if err != nil {
			return err
		}
		theme := dashboard.ResolveTheme(args[0])
		if theme != args[0] {
			fmt.Printf("⚠ Warning: unknown theme %q, using %q\n", args[0], theme)
		}
		p.Config.Theme = theme
		if err := p.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Theme for %s: %s\n", p.Name, theme)
		return nil
	},
}

var projectRevertCmd = &cobra.Command{
	Use:   "revert <history-id>",
	Short: "Make the dashboard of an earlier prompt current again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject(pmProject)
		if err != nil {
			return err
		}
		if !p.Revert(args[0]) {
			return fmt.Errorf("no successful generation with id %s (see 'dashloom list --history')", args[0])
		}
		if err := p.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Reverted %s to %q\n", p.Name, p.Spec.Title)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectSetModelCmd, projectSetThemeCmd, projectRevertCmd)

	projectCmd.PersistentFlags().StringVarP(&pmProject, "project", "p", "", "project name")
	projectSetModelCmd.Flags().BoolVar(&pmClear, "clear", false, "clear the project's model override")
}
