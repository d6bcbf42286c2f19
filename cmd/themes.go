package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/dashloom-cli/internal/dashboard"
	"github.com/spf13/cobra"
)

var themesCmd = &cobra.Command{
	Use:   "themes",
	Short: "List dashboard themes and their palettes",
	RunE: func(cmd *cobra.Command, args []string) error {
		names := append([]string{dashboard.DefaultTheme}, dashboard.ThemeNames...)
		for _, n := range names {
			fmt.Printf("%-24s %s\n", n, strings.Join(dashboard.Themes[n], " "))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(themesCmd)
}
