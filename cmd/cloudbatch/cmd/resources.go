package cmd

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/rmoralis/cloudbatch/pkg/resource"
)

var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "Analyze current system resources and the recommended concurrency",
	RunE:  runResources,
}

func init() {
	rootCmd.AddCommand(resourcesCmd)
}

func runResources(cmd *cobra.Command, args []string) error {
	collector := resource.NewCollector(0)
	snap, err := collector.Collect()
	if err != nil {
		return fmt.Errorf("failed to collect resource snapshot: %w", err)
	}
	analysis := resource.Analyze(snap)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Resource", "Usage", "Severity", "Limit")
	table.Append("cpu", fmt.Sprintf("%.1f%%", snap.CPUUsage),
		string(analysis.CPU.Severity), fmt.Sprintf("%d", analysis.CPU.RecommendedLimit))
	table.Append("memory", fmt.Sprintf("%.1f%%", snap.MemoryUsage),
		string(analysis.Memory.Severity), fmt.Sprintf("%d", analysis.Memory.RecommendedLimit))
	table.Append("network", fmt.Sprintf("%.1f%%", snap.NetworkUtilization),
		string(analysis.Network.Severity), fmt.Sprintf("%d", analysis.Network.RecommendedLimit))
	table.Render()

	fmt.Printf("\nRecommended concurrency: %d (limited by %s, health %s)\n",
		analysis.RecommendedConcurrency, analysis.LimitingResource, analysis.OverallHealth)
	return nil
}
