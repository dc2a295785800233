// Package cli implements the hearth CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "hearth",
	Short: "Offline learning pipeline for a home-automation decision layer",
	Long: "hearth ingests external events, turns them into context-driven decisions\n" +
		"via an ε-greedy policy, and analyzes decision outcomes into weight\n" +
		"adjustment proposals. Proposals are suggestions for an external approver;\n" +
		"hearth never modifies live policy weights.",
	SilenceUsage: true,
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		exitErr("encode output", err)
	}
	fmt.Println(string(b))
}
