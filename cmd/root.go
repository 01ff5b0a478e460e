package cmd

import (
	"fmt"
	"os"

	"github.com/ZhaoShanGeng/antigravity2api/cmd/serve"
	"github.com/ZhaoShanGeng/antigravity2api/cmd/token"
	"github.com/spf13/cobra"
)

const (
	Version = "0.4.2"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "a2a",
		Short: "token record store and admin API",
		Long: fmt.Sprintf(`a2a (v%s)

A crash-consistent token record store persisting to a single JSON file,
with a bearer-protected admin API and a local management CLI.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of a2a",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("a2a v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(token.TokenCommands)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
