package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/rmoralis/cloudbatch/pkg/api"
	"github.com/rmoralis/cloudbatch/pkg/breaker"
	"github.com/rmoralis/cloudbatch/pkg/controller"
	"github.com/rmoralis/cloudbatch/pkg/pool"
	"github.com/rmoralis/cloudbatch/pkg/resource"
	"github.com/rmoralis/cloudbatch/pkg/shutdown"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve status and Prometheus metrics endpoints",
	Long: `Starts the status server with /status, /status/resources, /health and
/metrics endpoints. Intended for long-lived harness processes; one-shot runs
use the run command instead.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctrl, err := controller.New(cfg.ControllerConfig())
	if err != nil {
		return err
	}
	connPool, err := pool.New(cfg.PoolConfig())
	if err != nil {
		return err
	}

	var brk *breaker.Breaker
	if cfg.CircuitBreakerEnabled {
		brk = breaker.New(cfg.BreakerConfig())
	}

	server := api.New(cfg.ListenAddr, ctrl, connPool, brk, resource.NewCollector(0), logger)

	mgr := shutdown.New(15*time.Second, logger)
	mgr.Register(server.Shutdown)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	go func() {
		mgr.Wait()
		mgr.Shutdown()
	}()

	// Start returns nil once Shutdown has drained the listener
	return <-errChan
}
