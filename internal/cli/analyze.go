package cli

import (
	"fmt"

	"github.com/danielpatrickdp/hearth/internal/feedback"
	"github.com/danielpatrickdp/hearth/internal/journal"
	"github.com/spf13/cobra"
)

func init() {
	var (
		analyzePolicy string
		outcomesFile  string
		dbFile        string
		minDecisions  int
		minConfidence float32
		simulate      bool
	)
	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze decision outcomes and propose weight adjustments",
		Long: "Aggregates recorded outcomes, detects failure patterns, and emits a\n" +
			"weight adjustment proposal when the evidence bar is met. No proposal is\n" +
			"not an error: it means there is not enough evidence yet.",
		Run: func(cmd *cobra.Command, args []string) {
			runAnalyze(analyzePolicy, outcomesFile, dbFile, minDecisions, minConfidence, simulate)
		},
	}
	analyzeCmd.Flags().StringVar(&analyzePolicy, "policy", "remind-bandit-v1", "Policy identifier the proposal targets")
	analyzeCmd.Flags().StringVar(&outcomesFile, "outcomes", "", "JSON file of outcome documents")
	analyzeCmd.Flags().StringVar(&dbFile, "db", "", "Outcome journal database to analyze instead of a file")
	analyzeCmd.Flags().IntVar(&minDecisions, "min-decisions", 20, "Minimum outcomes before proposing")
	analyzeCmd.Flags().Float32Var(&minConfidence, "min-confidence", 0.6, "Minimum confidence before proposing")
	analyzeCmd.Flags().BoolVar(&simulate, "simulate", false, "Replay history under the proposal and record the simulated rate")
	RootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(policy, outcomesFile, dbFile string, minDecisions int, minConfidence float32, simulate bool) {
	if (outcomesFile == "") == (dbFile == "") {
		exitErr("analyze", fmt.Errorf("exactly one of --outcomes or --db is required"))
	}

	var outcomes []feedback.DecisionOutcome
	var err error
	if outcomesFile != "" {
		outcomes, err = loadOutcomes(outcomesFile)
		if err != nil {
			exitErr("load outcomes", err)
		}
	} else {
		j, jerr := journal.Open(dbFile)
		if jerr != nil {
			exitErr("open journal", jerr)
		}
		defer j.Close()
		outcomes, err = j.ListByPolicy(policy, 0)
		if err != nil {
			exitErr("list outcomes", err)
		}
	}

	analyzer := feedback.NewAnalyzer(feedback.Config{
		MinDecisions:     minDecisions,
		MinConfidence:    minConfidence,
		FailureThreshold: feedback.DefaultConfig().FailureThreshold,
	})

	proposal := analyzer.ProposeAdjustment(policy, outcomes)
	if proposal == nil {
		printJSON(map[string]any{
			"proposal":          nil,
			"reason":            "insufficient evidence",
			"outcomes_analyzed": len(outcomes),
		})
		return
	}

	if simulate {
		rate := analyzer.SimulateAdjustment(proposal, outcomes)
		simulatedFailure := 1.0 - rate
		proposal.Evidence.FailureRateSimulated = &simulatedFailure
		proposal.Evidence.SimulationMethod = feedback.SimulationMethod
	}

	printJSON(proposal)
}
