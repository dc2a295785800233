package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/hearth/internal/feedback"
	"github.com/danielpatrickdp/hearth/internal/journal"
	"github.com/spf13/cobra"
)

var journalFile string

func init() {
	outcomeCmd := &cobra.Command{
		Use:   "outcome",
		Short: "Record and inspect decision outcomes in the journal",
	}

	var inputFile string
	recordCmd := &cobra.Command{
		Use:   "record",
		Short: "Append outcome documents to the journal",
		Run: func(cmd *cobra.Command, args []string) {
			runOutcomeRecord(inputFile)
		},
	}
	recordCmd.Flags().StringVar(&inputFile, "file", "", "JSON file holding one outcome object or an array of them")
	recordCmd.MarkFlagRequired("file")

	var (
		listPolicy string
		listLimit  int
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded outcomes for a policy",
		Run: func(cmd *cobra.Command, args []string) {
			runOutcomeList(listPolicy, listLimit)
		},
	}
	listCmd.Flags().StringVar(&listPolicy, "policy", "remind-bandit-v1", "Policy identifier")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum outcomes to return (0 = all)")

	outcomeCmd.PersistentFlags().StringVar(&journalFile, "db", "data/hearth.journal.db", "Path to the outcome journal database")
	outcomeCmd.AddCommand(recordCmd, listCmd)
	RootCmd.AddCommand(outcomeCmd)
}

// loadOutcomes parses either a single outcome object or an array.
func loadOutcomes(path string) ([]feedback.DecisionOutcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read outcomes file: %w", err)
	}

	var batch []feedback.DecisionOutcome
	if err := json.Unmarshal(data, &batch); err == nil {
		return batch, nil
	}
	var single feedback.DecisionOutcome
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("parse outcomes file %s: %w", path, err)
	}
	return []feedback.DecisionOutcome{single}, nil
}

func runOutcomeRecord(inputFile string) {
	outcomes, err := loadOutcomes(inputFile)
	if err != nil {
		exitErr("load outcomes", err)
	}

	j, err := journal.Open(journalFile)
	if err != nil {
		exitErr("open journal", err)
	}
	defer j.Close()

	for i, o := range outcomes {
		if o.DecisionID == "" {
			exitErr("record outcome", fmt.Errorf("outcome %d has no decision_id", i))
		}
		if err := j.Record(o); err != nil {
			exitErr("record outcome", err)
		}
	}

	printJSON(map[string]int{"recorded": len(outcomes)})
}

func runOutcomeList(policy string, limit int) {
	j, err := journal.Open(journalFile)
	if err != nil {
		exitErr("open journal", err)
	}
	defer j.Close()

	outcomes, err := j.ListByPolicy(policy, limit)
	if err != nil {
		exitErr("list outcomes", err)
	}
	printJSON(outcomes)
}
