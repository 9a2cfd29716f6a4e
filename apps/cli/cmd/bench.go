package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rajeshsegu/resource-go/packages/bench"
	"github.com/rajeshsegu/resource-go/packages/profile"
	"github.com/rajeshsegu/resource-go/packages/resource"
	"github.com/rajeshsegu/resource-go/packages/transport"
)

var benchCmd = &cobra.Command{
	Use:   "bench <profile.yaml>",
	Short: "Dispatch a profile repeatedly and report latency statistics",
	Long: `Dispatch the request described by a profile many times and report
success counts and latency percentiles.

Examples:
  resource bench api.yaml --requests 500 --concurrency 20
  resource bench api.yaml -n 1000 -c 50 --rate 100`,
	Args: cobra.ExactArgs(1),
	RunE: benchCommand,
}

var (
	benchRequestsFlag    int
	benchConcurrencyFlag int
	benchRateFlag        float64
	benchProxyFlag       string
	benchInsecureFlag    bool
	benchNoColorFlag     bool
)

func init() {
	benchCmd.Flags().IntVarP(&benchRequestsFlag, "requests", "n", 100, "Total number of requests to dispatch")
	benchCmd.Flags().IntVarP(&benchConcurrencyFlag, "concurrency", "c", 10, "Maximum in-flight requests")
	benchCmd.Flags().Float64VarP(&benchRateFlag, "rate", "r", 0, "Target requests per second (0 = unpaced)")
	benchCmd.Flags().StringVar(&benchProxyFlag, "proxy", "", "Proxy URL for requests")
	benchCmd.Flags().BoolVarP(&benchInsecureFlag, "insecure", "k", false, "Disable SSL certificate validation")
	benchCmd.Flags().BoolVar(&benchNoColorFlag, "no-color", false, "Disable colored output")
}

func benchCommand(cmd *cobra.Command, args []string) error {
	prof, err := profile.Load(args[0])
	if err != nil {
		return err
	}

	var opts []transport.Option
	if benchInsecureFlag {
		opts = append(opts, transport.WithValidateSSL(false))
	}
	if benchProxyFlag != "" {
		opts = append(opts, transport.WithProxy(benchProxyFlag))
	}
	// One client for the whole run so connections are pooled across
	// dispatches instead of re-dialed per request.
	client := transport.New(opts...)

	factory := func() (*resource.Resource, error) {
		res, err := prof.Build()
		if err != nil {
			return nil, err
		}
		return res.Client(client), nil
	}

	config := &bench.Config{
		Requests:    benchRequestsFlag,
		Concurrency: benchConcurrencyFlag,
		Rate:        benchRateFlag,
	}

	reporter := bench.NewReporter(
		bench.WithWriter(cmd.OutOrStdout()),
		bench.WithNoColor(benchNoColorFlag),
	)
	reporter.Header(fmt.Sprintf("%s %s", prof.Method, prof.URL), config)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case <-sigs:
			fmt.Fprintln(cmd.OutOrStdout(), "\nInterrupted, draining in-flight requests...")
			cancel()
		case <-ctx.Done():
		}
	}()

	summary, err := bench.NewRunner(config).Run(ctx, factory)
	if err != nil {
		reporter.Error("%v", err)
		os.Exit(ExitUsageError)
	}

	reporter.Print(summary)

	if summary.Failures > 0 {
		os.Exit(ExitRequestFailure)
	}
	return nil
}
