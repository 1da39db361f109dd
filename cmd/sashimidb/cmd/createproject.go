package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yaroslaff/sashimidb/internal/registry"
)

var createProjectCmd = &cobra.Command{
	Use:   "create-project NAME",
	Short: "Create a project directory under the projects root and print its token",
	Args:  cobra.ExactArgs(1),
	RunE:  runCreateProject,
}

func init() {
	rootCmd.AddCommand(createProjectCmd)
}

func runCreateProject(cmd *cobra.Command, args []string) error {
	master, err := loadMasterConfig()
	if err != nil {
		return err
	}

	projectsRoot := viper.GetString("projects_root")
	if projectsRoot == "" {
		projectsRoot, _ = master.String("projects")
	}
	if projectsRoot == "" {
		return fmt.Errorf("a projects root is required: pass --projects-root or set `projects` in --config")
	}

	reg := registry.New(master, projectsRoot, version)
	if err := reg.Discover(); err != nil {
		return err
	}

	proj, token, err := reg.CreateProject(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("project %q created at %s\ntoken: %s\n", proj.Name, proj.Path, token)
	return nil
}
