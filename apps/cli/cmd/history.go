package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/rajeshsegu/resource-go/packages/history"
)

var historyCmd = &cobra.Command{
	Use:   "history <file.db>",
	Short: "List recorded exchanges",
	Long: `List exchanges recorded with send --record, newest first.

Examples:
  resource history exchanges.db
  resource history exchanges.db --limit 50`,
	Args: cobra.ExactArgs(1),
	RunE: historyCommand,
}

var (
	historyLimitFlag   int
	historyNoColorFlag bool
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimitFlag, "limit", "l", 20, "Maximum number of exchanges to list")
	historyCmd.Flags().BoolVar(&historyNoColorFlag, "no-color", false, "Disable colored output")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	log, err := history.Open(args[0])
	if err != nil {
		return err
	}
	defer log.Close()

	entries, err := log.Recent(historyLimitFlag)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No exchanges recorded.")
		return nil
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	if historyNoColorFlag {
		green.DisableColor()
		red.DisableColor()
	}

	out := cmd.OutOrStdout()
	for _, e := range entries {
		if e.Success {
			green.Fprintf(out, "OK  ")
		} else {
			red.Fprintf(out, "FAIL")
		}
		fmt.Fprintf(out, " %-6s %s", e.Method, e.URL)
		if e.Status != 0 {
			fmt.Fprintf(out, " %d", e.Status)
		}
		fmt.Fprintf(out, " (%dms)", e.Duration.Milliseconds())
		if e.Message != "" {
			fmt.Fprintf(out, " %s", e.Message)
		}
		fmt.Fprintln(out)
	}
	return nil
}
