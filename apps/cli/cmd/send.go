package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/rajeshsegu/resource-go/packages/history"
	"github.com/rajeshsegu/resource-go/packages/profile"
	"github.com/rajeshsegu/resource-go/packages/resource"
	"github.com/rajeshsegu/resource-go/packages/schema"
	"github.com/rajeshsegu/resource-go/packages/transport"
)

var sendCmd = &cobra.Command{
	Use:   "send <profile.yaml>",
	Short: "Dispatch the request described by a profile",
	Long: `Dispatch a single HTTP request described by a YAML profile and
print the classified outcome.

Examples:
  resource send api.yaml
  resource send api.yaml --extract user.id
  resource send api.yaml --schema response.schema.json
  resource send api.yaml --record exchanges.db
  resource send api.yaml --watch`,
	Args: cobra.ExactArgs(1),
	RunE: sendCommand,
}

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	extractFlag      string
	schemaFlag       string
	recordFlag       string
	watchFlag        bool
	sendTimeoutFlag  string
	sendPriorityFlag string
	sendProxyFlag    string
	sendInsecureFlag bool
	sendVerboseFlag  bool
	sendNoColorFlag  bool
)

func init() {
	sendCmd.Flags().StringVar(&extractFlag, "extract", "", "Print only the given path of the success body (gjson syntax)")
	sendCmd.Flags().StringVar(&schemaFlag, "schema", "", "Validate the success body against a JSON Schema file")
	sendCmd.Flags().StringVar(&recordFlag, "record", "", "Append the exchange to a SQLite history database")
	sendCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch the profile for changes and re-send")
	sendCmd.Flags().StringVar(&sendTimeoutFlag, "timeout", "", "Override the profile timeout (e.g. 5s)")
	sendCmd.Flags().StringVar(&sendPriorityFlag, "priority", "", "Override the profile priority: low, normal, high")
	sendCmd.Flags().StringVar(&sendProxyFlag, "proxy", "", "Proxy URL for the request")
	sendCmd.Flags().BoolVarP(&sendInsecureFlag, "insecure", "k", false, "Disable SSL certificate validation")
	sendCmd.Flags().BoolVarP(&sendVerboseFlag, "verbose", "v", false, "Verbose diagnostic logging")
	sendCmd.Flags().BoolVar(&sendNoColorFlag, "no-color", false, "Disable colored output")
}

func sendCommand(cmd *cobra.Command, args []string) error {
	profilePath := args[0]

	var log *history.Log
	if recordFlag != "" {
		var err error
		log, err = history.Open(recordFlag)
		if err != nil {
			return err
		}
		defer log.Close()
	}

	code := dispatchOnce(cmd, profilePath, log)

	if !watchFlag {
		if code != ExitSuccess {
			os.Exit(code)
		}
		return nil
	}

	return watchProfile(cmd, profilePath, log)
}

// dispatchOnce loads the profile, sends the request, waits for the
// outcome, and prints it. The returned value is the process exit code
// for one-shot mode.
func dispatchOnce(cmd *cobra.Command, profilePath string, log *history.Log) int {
	out := cmd.OutOrStdout()
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	if sendNoColorFlag {
		red.DisableColor()
		green.DisableColor()
	}

	res, err := buildResource(profilePath)
	if err != nil {
		red.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return ExitProfileError
	}

	type outcome struct {
		success bool
		body    map[string]any
	}
	done := make(chan outcome, 1)

	start := time.Now()
	res.Response(func(success bool, body map[string]any) {
		done <- outcome{success: success, body: body}
	}).Send()
	result := <-done
	elapsed := time.Since(start)

	if log != nil {
		message := ""
		if !result.success {
			message, _ = result.body["ErrorMessage"].(string)
		}
		if err := log.Record(history.Entry{
			Method:   res.Method(),
			URL:      res.URL(),
			Status:   res.StatusCode(),
			Success:  result.success,
			Duration: elapsed,
			Message:  message,
		}); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to record exchange: %v\n", err)
		}
	}

	if !result.success {
		message, _ := result.body["ErrorMessage"].(string)
		red.Fprintf(out, "FAIL")
		fmt.Fprintf(out, " %s %s (%s)\n%s\n", res.Method(), res.URL(), formatElapsed(elapsed), message)
		return ExitRequestFailure
	}

	green.Fprintf(out, "OK")
	fmt.Fprintf(out, " %s %s (%s)\n", res.Method(), res.URL(), formatElapsed(elapsed))

	raw, err := json.MarshalIndent(result.body, "", "  ")
	if err != nil {
		red.Fprintf(cmd.ErrOrStderr(), "Error: render response: %v\n", err)
		return ExitRequestFailure
	}

	if extractFlag != "" {
		value := gjson.GetBytes(raw, extractFlag)
		if !value.Exists() {
			red.Fprintf(cmd.ErrOrStderr(), "Error: path %q not found in response\n", extractFlag)
			return ExitRequestFailure
		}
		fmt.Fprintln(out, value.String())
	} else {
		fmt.Fprintf(out, "%s\n", raw)
	}

	if schemaFlag != "" {
		if err := schema.Validate(result.body, schemaFlag); err != nil {
			red.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			return ExitSchemaError
		}
		green.Fprintf(out, "schema ok\n")
	}

	return ExitSuccess
}

// buildResource turns the profile into a configured resource with the
// command-line overrides applied.
func buildResource(profilePath string) (*resource.Resource, error) {
	prof, err := profile.Load(profilePath)
	if err != nil {
		return nil, err
	}

	res, err := prof.Build()
	if err != nil {
		return nil, err
	}

	var opts []transport.Option
	if sendInsecureFlag {
		opts = append(opts, transport.WithValidateSSL(false))
	}
	if sendProxyFlag != "" {
		opts = append(opts, transport.WithProxy(sendProxyFlag))
	}
	if len(opts) > 0 {
		res.Client(transport.New(opts...))
	}

	if sendTimeoutFlag != "" {
		d, err := time.ParseDuration(sendTimeoutFlag)
		if err != nil {
			return nil, fmt.Errorf("parse timeout: %w", err)
		}
		res.Timeout(d)
	}
	if sendPriorityFlag != "" {
		p, err := profile.ParsePriority(sendPriorityFlag)
		if err != nil {
			return nil, err
		}
		res.Priority(p)
	}

	if sendVerboseFlag {
		logger, err := zap.NewDevelopment()
		if err == nil {
			res.Logger(logger)
		}
	}

	return res, nil
}

// watchProfile re-dispatches whenever the profile file is written to,
// debounced so editors that fire several events per save trigger one
// send. Ctrl+C stops watching.
func watchProfile(cmd *cobra.Command, profilePath string, log *history.Log) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(profilePath)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", profilePath, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching %s for changes... (press Ctrl+C to stop)\n", profilePath)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	var debounceTimer *time.Timer

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) || filepath.Clean(event.Name) != filepath.Clean(profilePath) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "\nProfile changed, re-sending...\n")
				dispatchOnce(cmd, profilePath, log)
				fmt.Fprintf(cmd.OutOrStdout(), "\nWatching %s for changes... (press Ctrl+C to stop)\n", profilePath)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watcher error: %v\n", err)

		case <-sigs:
			fmt.Fprintln(cmd.OutOrStdout(), "\nStopped watching.")
			return nil
		}
	}
}

func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
