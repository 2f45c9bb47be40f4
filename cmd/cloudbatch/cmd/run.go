package cmd

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rmoralis/cloudbatch/pkg/breaker"
	"github.com/rmoralis/cloudbatch/pkg/controller"
	"github.com/rmoralis/cloudbatch/pkg/executor"
	"github.com/rmoralis/cloudbatch/pkg/metrics"
	"github.com/rmoralis/cloudbatch/pkg/models"
	"github.com/rmoralis/cloudbatch/pkg/pool"
	"github.com/rmoralis/cloudbatch/pkg/ratelimit"
	"github.com/rmoralis/cloudbatch/pkg/resource"
	"github.com/rmoralis/cloudbatch/pkg/retry"
)

var (
	runDeduplicate bool
	runProgress    bool
	runTimeout     time.Duration
	runRetries     int
	simLatency     time.Duration
	simErrorRate   float64
)

var runCmd = &cobra.Command{
	Use:   "run <batch-file>",
	Short: "Execute a batch of requests from a YAML file",
	Long: `Reads a YAML list of {service, operation, params} entries and executes
them with adaptive concurrency. Without a real request executor wired in,
requests run against the built-in simulator (see --sim-latency and
--sim-error-rate), which is how the test harness exercises scheduling
behavior without touching remote services.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runDeduplicate, "deduplicate", true, "collapse identical requests to one execution")
	runCmd.Flags().BoolVar(&runProgress, "progress", false, "print per-chunk progress")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "per-request timeout (default from config)")
	runCmd.Flags().IntVar(&runRetries, "retries", 0, "resubmission rounds for failed requests")
	runCmd.Flags().DurationVar(&simLatency, "sim-latency", 50*time.Millisecond, "simulated request latency")
	runCmd.Flags().Float64Var(&simErrorRate, "sim-error-rate", 0, "simulated request error rate (0-1)")
}

// batchEntry is one request in the batch file
type batchEntry struct {
	Service   string                 `yaml:"service"`
	Operation string                 `yaml:"operation"`
	Params    map[string]interface{} `yaml:"params"`
}

// simulator stands in for a real request executor during harness runs
type simulator struct {
	latency   time.Duration
	errorRate float64
}

func (s simulator) Execute(ctx context.Context, service, operation string, params map[string]interface{}) (interface{}, error) {
	select {
	case <-time.After(s.latency):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if s.errorRate > 0 && rand.Float64() < s.errorRate {
		return nil, fmt.Errorf("simulated failure for %s.%s", service, operation)
	}
	return map[string]interface{}{"service": service, "operation": operation, "status": "ok"}, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read batch file: %w", err)
	}
	var entries []batchEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to parse batch file: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("batch file %s contains no requests", args[0])
	}

	requests := make([]models.Request, len(entries))
	for i, e := range entries {
		requests[i] = models.NewRequest(e.Service, e.Operation, e.Params, i)
	}

	ctrl, err := controller.New(cfg.ControllerConfig())
	if err != nil {
		return err
	}
	connPool, err := pool.New(cfg.PoolConfig())
	if err != nil {
		return err
	}

	exec := executor.New(simulator{latency: simLatency, errorRate: simErrorRate}, ctrl, cfg.ExecutorConfig())
	exec.SetLogger(logger)
	exec.AttachPool(connPool)
	exec.AttachLimiter(ratelimit.NewServiceLimiter())
	exec.AttachMetrics(metrics.NewCollector(nil))
	if cfg.CircuitBreakerEnabled {
		exec.AttachBreaker(breaker.New(cfg.BreakerConfig()))
	}
	if cfg.ResourceAware {
		exec.AttachResourceCollector(resource.NewCollector(0))
	}

	opts := executor.Options{
		Deduplicate:       runDeduplicate,
		PerRequestTimeout: runTimeout,
	}
	if runProgress {
		opts.TrackProgress = true
		opts.OnProgress = func(done, total int) {
			fmt.Printf("progress: %d/%d\n", done, total)
		}
	}

	start := time.Now()
	results, stats, err := exec.ExecuteBatch(cmd.Context(), requests, opts)
	if err != nil {
		return err
	}

	if runRetries > 0 && stats.Failed > 0 {
		retryCfg := retry.DefaultConfig()
		retryCfg.MaxRetries = runRetries
		results, stats, err = retry.Resubmit(cmd.Context(), exec, requests, results, opts, retryCfg)
		if err != nil {
			return err
		}
	}

	printResults(results)
	printStats(stats, time.Since(start), ctrl.Snapshot())
	return nil
}

func printResults(results []models.RequestResult) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("#", "Status", "Duration", "Dedup", "Error")
	for _, r := range results {
		status := "ok"
		switch {
		case r.TimedOut:
			status = "timeout"
		case !r.Success:
			status = "failed"
		}
		errMsg := ""
		if r.Err != nil {
			errMsg = r.Err.Error()
		}
		dedup := ""
		if r.WasDeduplicated {
			dedup = "yes"
		}
		table.Append(
			fmt.Sprintf("%d", r.OriginalIndex),
			status,
			r.Duration.Round(time.Millisecond).String(),
			dedup,
			errMsg,
		)
	}
	table.Render()
}

func printStats(stats models.BatchStats, elapsed time.Duration, snap controller.Snapshot) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Metric", "Value")
	table.Append([]string{"Total", fmt.Sprintf("%d", stats.Total)})
	table.Append([]string{"Success", fmt.Sprintf("%d", stats.Success)})
	table.Append([]string{"Failed", fmt.Sprintf("%d", stats.Failed)})
	table.Append([]string{"Timeouts", fmt.Sprintf("%d", stats.Timeouts)})
	table.Append([]string{"Deduplicated", fmt.Sprintf("%d", stats.Deduplicated)})
	table.Append([]string{"Success rate", fmt.Sprintf("%.1f%%", stats.SuccessRate*100)})
	table.Append([]string{"Elapsed", elapsed.Round(time.Millisecond).String()})
	table.Append([]string{"Final concurrency", fmt.Sprintf("%d", snap.CurrentConcurrency)})
	table.Append([]string{"Adjustments", fmt.Sprintf("%d", snap.AdjustmentCount)})
	table.Render()
}
