package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is overridden at build time via -ldflags "-X .../cmd.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "sashimidb",
	Short: "A multi-tenant in-memory search and mutation service for JSON-like records",
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to the master config YAML file")
	rootCmd.PersistentFlags().String("projects-root", "", "filesystem path scanned for project subdirectories")
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("projects_root", rootCmd.PersistentFlags().Lookup("projects-root"))
}
