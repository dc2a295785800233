package cli

import (
	"github.com/danielpatrickdp/hearth/internal/ingest"
	"github.com/spf13/cobra"
)

func init() {
	var statsFile string

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show ingest event counters",
		Run: func(cmd *cobra.Command, args []string) {
			runStatsShow(statsFile)
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Zero all ingest counters (explicit operator action)",
		Run: func(cmd *cobra.Command, args []string) {
			runStatsReset(statsFile)
		},
	}

	statsCmd.PersistentFlags().StringVar(&statsFile, "stats-file", "data/hearth.stats.json", "Path to the stats file")
	statsCmd.AddCommand(resetCmd)
	RootCmd.AddCommand(statsCmd)
}

func runStatsShow(path string) {
	stats, err := ingest.LoadStats(path)
	if err != nil {
		exitErr("load stats", err)
	}
	printJSON(stats)
}

func runStatsReset(path string) {
	stats, err := ingest.LoadStats(path)
	if err != nil {
		exitErr("load stats", err)
	}
	stats.Reset()
	if err := stats.Save(path); err != nil {
		exitErr("save stats", err)
	}
	printJSON(stats)
}
