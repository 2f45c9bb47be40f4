package cmd

import (
	"github.com/spf13/cobra"

	"github.com/rmoralis/cloudbatch/pkg/config"
	"github.com/rmoralis/cloudbatch/pkg/logging"
)

var (
	cfgFile string
	cfg     config.Config
	logger  *logging.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "cloudbatch",
	Short: "Concurrency-managed batch execution for cloud CLI test runs",
	Long: `cloudbatch executes batches of remote operations with adaptive
concurrency, request deduplication, connection pooling and circuit breaking.
It is the resource-management core of the cloud CLI test harness.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		logger = logging.NewLogger(logging.ParseLevel(cfg.LogLevel), cfg.LogJSON)
		return nil
	},
}

// Execute adds all child commands to the root command and runs it
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional; defaults + CLOUDBATCH_* env otherwise)")
}
