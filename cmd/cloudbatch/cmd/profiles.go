package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/rmoralis/cloudbatch/pkg/profiles"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the per-service concurrency profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		all := profiles.All()
		sort.Slice(all, func(i, j int) bool { return all[i].Service < all[j].Service })

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Service", "Max", "Baseline latency", "Rate limit", "Error threshold", "Strategy")
		for _, p := range all {
			table.Append(
				p.Service,
				fmt.Sprintf("%d", p.MaxRecommended),
				p.BaselineLatency.String(),
				fmt.Sprintf("%.1f/s", p.RateLimitFactor),
				fmt.Sprintf("%.2f", p.ErrorThreshold),
				string(p.Strategy),
			)
		}
		table.Render()

		d := profiles.DefaultProfile
		fmt.Printf("\nUnknown services fall back to: max=%d, rate=%.1f/s, error_threshold=%.2f (%s)\n",
			d.MaxRecommended, d.RateLimitFactor, d.ErrorThreshold, d.Strategy)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profilesCmd)
}
