package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "resource",
	Short: "Fluent HTTP requests from the command line",
	Long: `resource dispatches single HTTP requests described by YAML
profiles: method, URL, auth, headers, query and form parameters, and
binary attachments. Responses are classified and decoded the same way
every time, so scripts only ever deal with one result shape.`,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
