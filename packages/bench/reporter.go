package bench

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Reporter renders run summaries.
type Reporter struct {
	writer  io.Writer
	noColor bool

	green *color.Color
	red   *color.Color
	cyan  *color.Color
	bold  *color.Color
}

// ReporterOption configures the reporter.
type ReporterOption func(*Reporter)

// WithWriter sets the output writer.
func WithWriter(w io.Writer) ReporterOption {
	return func(r *Reporter) {
		r.writer = w
	}
}

// WithNoColor disables colored output.
func WithNoColor(noColor bool) ReporterOption {
	return func(r *Reporter) {
		r.noColor = noColor
	}
}

// NewReporter creates a reporter writing to stdout unless overridden.
func NewReporter(opts ...ReporterOption) *Reporter {
	r := &Reporter{
		writer: os.Stdout,
	}

	for _, opt := range opts {
		opt(r)
	}

	r.green = color.New(color.FgGreen)
	r.red = color.New(color.FgRed)
	r.cyan = color.New(color.FgCyan)
	r.bold = color.New(color.Bold)
	if r.noColor {
		// Per-instance, so concurrent reporters stay independent.
		for _, c := range []*color.Color{r.green, r.red, r.cyan, r.bold} {
			c.DisableColor()
		}
	}

	return r
}

// Header prints the run header.
func (r *Reporter) Header(target string, config *Config) {
	fmt.Fprintln(r.writer)
	r.bold.Fprintf(r.writer, "Benchmarking: ")
	r.cyan.Fprintf(r.writer, "%s\n", target)

	details := []string{
		fmt.Sprintf("Requests: %d", config.Requests),
		fmt.Sprintf("Concurrency: %d", config.Concurrency),
	}
	if config.Rate > 0 {
		details = append(details, fmt.Sprintf("Rate: %.0f req/s", config.Rate))
	}
	fmt.Fprintf(r.writer, "%s\n", strings.Join(details, " | "))
	fmt.Fprintln(r.writer)
}

// Print renders the final summary.
func (r *Reporter) Print(summary *Summary) {
	fmt.Fprintln(r.writer)
	r.bold.Fprintln(r.writer, "SUMMARY")
	fmt.Fprintln(r.writer, strings.Repeat("─", 40))

	fmt.Fprintf(r.writer, "Duration:   %s\n", formatDuration(summary.Duration))
	fmt.Fprintf(r.writer, "Total:      ")
	r.bold.Fprintf(r.writer, "%d", summary.Total)
	fmt.Fprintf(r.writer, " requests (%.1f req/s)\n", summary.RPS)

	fmt.Fprintf(r.writer, "Success:    ")
	r.green.Fprintf(r.writer, "%d", summary.Successes)
	fmt.Fprintf(r.writer, " (%.1f%%)\n", summary.SuccessRate*100)

	fmt.Fprintf(r.writer, "Failed:     ")
	if summary.Failures > 0 {
		r.red.Fprintf(r.writer, "%d", summary.Failures)
	} else {
		fmt.Fprintf(r.writer, "%d", summary.Failures)
	}
	fmt.Fprintf(r.writer, " (%.1f%%)\n", (1-summary.SuccessRate)*100)

	fmt.Fprintln(r.writer)
	r.bold.Fprintln(r.writer, "LATENCY")
	fmt.Fprintf(r.writer, "  p50: %-8s | p90: %-8s | p99: %s\n",
		formatLatency(summary.P50),
		formatLatency(summary.P90),
		formatLatency(summary.P99))
	fmt.Fprintf(r.writer, "  max: %-8s | mean: %s\n",
		formatLatency(summary.Max),
		formatLatency(summary.Mean))
	fmt.Fprintln(r.writer)
}

// Error prints an error message.
func (r *Reporter) Error(format string, args ...any) {
	r.red.Fprintf(r.writer, "Error: "+format+"\n", args...)
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	if seconds == 0 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dm %02ds", minutes, seconds)
}

func formatLatency(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dμs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}
