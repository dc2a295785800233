package cli

import (
	"fmt"

	"github.com/danielpatrickdp/hearth/internal/ingest"
	"github.com/danielpatrickdp/hearth/internal/source"
	"github.com/spf13/cobra"
)

var (
	ingestStateFile string
	ingestStatsFile string
)

func init() {
	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest events from a source into local state and stats files",
	}

	var (
		filePath   string
		lineOffset uint64
	)
	fileCmd := &cobra.Command{
		Use:   "file",
		Short: "Ingest from a local line-delimited JSON file",
		Run: func(cmd *cobra.Command, args []string) {
			runIngestFile(cmd, filePath, lineOffset)
		},
	}
	fileCmd.Flags().StringVar(&filePath, "path", "", "Input file path")
	fileCmd.Flags().Uint64Var(&lineOffset, "line-offset", 0, "Start from line number (0-based), overriding saved state")
	fileCmd.Flags().StringVar(&ingestStateFile, "state-file", "data/hearth.ingest.file.state.json", "Path to the state file")
	fileCmd.Flags().StringVar(&ingestStatsFile, "stats-file", "data/hearth.stats.json", "Path to the stats file")
	fileCmd.MarkFlagRequired("path")

	var (
		remoteCursor uint64
		domain       string
		limit        uint32
		maxBatches   uint32
	)
	remoteCmd := &cobra.Command{
		Use:   "remote",
		Short: "Ingest from the paginated remote event service",
		Long: "Ingests from the remote event service. Base URL and token come from\n" +
			"HEARTH_BASE_URL (or HEARTH_API_URL) and HEARTH_TOKEN.",
		Run: func(cmd *cobra.Command, args []string) {
			runIngestRemote(cmd, remoteCursor, domain, limit, maxBatches)
		},
	}
	remoteCmd.Flags().Uint64Var(&remoteCursor, "cursor", 0, "Explicit cursor token, overriding saved state")
	remoteCmd.Flags().StringVar(&domain, "domain", "aussen", "Event domain to fetch")
	remoteCmd.Flags().Uint32Var(&limit, "limit", 100, "Events to fetch per batch")
	remoteCmd.Flags().Uint32Var(&maxBatches, "max-batches", 10, "Maximum batches to consume in one run")
	remoteCmd.Flags().StringVar(&ingestStateFile, "state-file", "data/hearth.ingest.remote.state.json", "Path to the state file")
	remoteCmd.Flags().StringVar(&ingestStatsFile, "stats-file", "data/hearth.stats.json", "Path to the stats file")

	ingestCmd.AddCommand(fileCmd, remoteCmd)
	RootCmd.AddCommand(ingestCmd)
}

type ingestSummary struct {
	Batches int            `json:"batches"`
	Events  int            `json:"events"`
	Cursor  *ingest.Cursor `json:"cursor"`
	HasMore bool           `json:"has_more"`
}

func runIngestFile(cmd *cobra.Command, path string, lineOffset uint64) {
	machine := ingest.NewMachine(ingestStateFile, ingestStatsFile, ingest.ModeFile)

	st, err := machine.Resume()
	if err != nil {
		exitErr("resume state", err)
	}
	if cmd.Flags().Changed("line-offset") {
		// Operator override: the only sanctioned way to rewind a cursor.
		c := ingest.LineOffset(lineOffset)
		st.Cursor = &c
	}

	st, report, err := machine.RunBatch(cmd.Context(), st, source.NewFileSource(path))
	if err != nil {
		exitErr("ingest file", err)
	}

	printJSON(ingestSummary{Batches: 1, Events: report.Events, Cursor: st.Cursor, HasMore: report.HasMore})
}

func runIngestRemote(cmd *cobra.Command, cursor uint64, domain string, limit, maxBatches uint32) {
	adapter, err := source.NewRemoteSourceFromEnv(domain, limit)
	if err != nil {
		exitErr("configure remote source", err)
	}

	machine := ingest.NewMachine(ingestStateFile, ingestStatsFile, ingest.ModeRemote)

	st, err := machine.Resume()
	if err != nil {
		exitErr("resume state", err)
	}
	if cmd.Flags().Changed("cursor") {
		c := ingest.OpaqueToken(cursor)
		st.Cursor = &c
	}

	summary := ingestSummary{Cursor: st.Cursor}
	for batch := uint32(0); batch < maxBatches; batch++ {
		var report ingest.BatchReport
		st, report, err = machine.RunBatch(cmd.Context(), st, adapter)
		if err != nil {
			exitErr(fmt.Sprintf("ingest remote (batch %d)", batch+1), err)
		}
		summary.Batches++
		summary.Events += report.Events
		summary.Cursor = st.Cursor
		summary.HasMore = report.HasMore
		if !report.HasMore {
			break
		}
	}

	printJSON(summary)
}
