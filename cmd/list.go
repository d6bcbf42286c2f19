package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/dashloom-cli/internal/project"
	"github.com/KaramelBytes/dashloom-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	listProjects bool
	listHistory  bool
	listProjName string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects or a project's prompt history",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listProjects == listHistory { // either both true or both false
			return fmt.Errorf("specify exactly one of --projects or --history")
		}
		if listProjects {
			return listAllProjects()
		}
		p, err := loadProject(listProjName)
		if err != nil {
			return err
		}
		if len(p.History) == 0 {
			fmt.Println("(no prompts yet)")
			return nil
		}
		for _, h := range p.History {
			mark := "✓"
			if h.Failed {
				mark = "✗"
			}
			kind := "new"
			if h.Refinement {
				kind = "refine"
			}
			elements := 0
			if h.Spec != nil {
				elements = len(h.Spec.Elements)
			}
			fmt.Printf("%s %s [%s] %s %q (%d elements)\n",
				mark, h.ID, kind, h.CreatedAt.Format("2006-01-02 15:04"), h.Prompt, elements)
		}
		return nil
	},
}

func listAllProjects() error {
	root, err := defaultProjectsDir()
	if err != nil {
		return err
	}
	dirs, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	found := false
	for _, e := range dirs {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		if _, err := os.Stat(filepath.Join(dir, utils.ProjectFile)); err != nil {
			continue
		}
		found = true
		p, err := project.LoadProject(dir)
		if err != nil {
			fmt.Printf("- %s (unreadable: %v)\n", e.Name(), err)
			continue
		}
		data := "no dataset"
		if p.Dataset != nil {
			data = p.Dataset.Name
		}
		title := "no dashboard"
		if p.Spec != nil {
			title = p.Spec.Title
		}
		fmt.Printf("- %s: %s, %s\n", e.Name(), data, title)
	}
	if !found {
		fmt.Println("(no projects)")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listProjects, "projects", false, "list projects")
	listCmd.Flags().BoolVar(&listHistory, "history", false, "list the prompts issued in a project")
	listCmd.Flags().StringVarP(&listProjName, "project", "p", "", "project name for --history")
}
