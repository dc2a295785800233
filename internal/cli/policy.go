package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/danielpatrickdp/hearth/internal/bandit"
	"github.com/danielpatrickdp/hearth/internal/policy"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	snapshotFile string
	policyID     string
)

func init() {
	var (
		kind     string
		features string
	)
	decideCmd := &cobra.Command{
		Use:   "decide",
		Short: "Decide a reminder slot for a context",
		Run: func(cmd *cobra.Command, args []string) {
			runDecide(kind, features)
		},
	}
	decideCmd.Flags().StringVar(&kind, "kind", "reminder", "Context kind")
	decideCmd.Flags().StringVar(&features, "features", "{}", "Context features as JSON")
	addPolicyFlags(decideCmd)

	var (
		action string
		reward float32
	)
	rewardCmd := &cobra.Command{
		Use:   "reward",
		Short: "Report the reward observed for a decided action",
		Run: func(cmd *cobra.Command, args []string) {
			runReward(action, reward)
		},
	}
	rewardCmd.Flags().StringVar(&action, "action", "", "Action the reward applies to (e.g. remind.morning)")
	rewardCmd.Flags().Float32Var(&reward, "reward", 0, "Observed reward")
	rewardCmd.MarkFlagRequired("action")
	rewardCmd.MarkFlagRequired("reward")
	addPolicyFlags(rewardCmd)

	var write bool
	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print the versioned policy snapshot",
		Run: func(cmd *cobra.Command, args []string) {
			runSnapshot(write)
		},
	}
	snapshotCmd.Flags().BoolVar(&write, "write", false, "Also persist the snapshot to the snapshot file")
	addPolicyFlags(snapshotCmd)

	RootCmd.AddCommand(decideCmd, rewardCmd, snapshotCmd)
}

func addPolicyFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&snapshotFile, "snapshot", "data/hearth.policy.json", "Path to the policy snapshot file")
	cmd.Flags().StringVar(&policyID, "policy-id", "remind-bandit-v1", "Policy identifier stamped into snapshots")
}

// loadEngine restores the engine from the snapshot file. A missing file
// yields a fresh default engine; a corrupt or rejected snapshot is reported
// and the engine keeps running with its prior (default) state.
func loadEngine() *bandit.EpsilonGreedy {
	engine := bandit.New(policyID)

	data, err := os.ReadFile(snapshotFile)
	if errors.Is(err, fs.ErrNotExist) {
		return engine
	}
	if err != nil {
		exitErr("read snapshot", err)
	}

	snap, err := bandit.ParseSnapshot(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: snapshot unreadable, continuing with defaults: %v\n", err)
		return engine
	}
	report, err := engine.Load(snap)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: snapshot rejected, continuing with defaults: %v\n", err)
		return engine
	}
	for _, w := range report.Warnings {
		fmt.Fprintf(os.Stderr, "warning: snapshot sanitized: %s\n", w)
	}
	return engine
}

func saveEngine(engine *bandit.EpsilonGreedy) {
	snap := engine.Snapshot()
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		exitErr("encode snapshot", err)
	}
	if err := os.MkdirAll(filepath.Dir(snapshotFile), 0o755); err != nil {
		exitErr("create snapshot dir", err)
	}
	if err := os.WriteFile(snapshotFile, append(data, '\n'), 0o644); err != nil {
		exitErr("write snapshot", err)
	}
}

func runDecide(kind, features string) {
	if !json.Valid([]byte(features)) {
		exitErr("parse features", fmt.Errorf("not valid JSON: %q", features))
	}

	engine := loadEngine()
	decision := engine.Decide(policy.Context{Kind: kind, Features: json.RawMessage(features)})
	decision.ID = uuid.New().String()
	printJSON(decision)
}

func runReward(action string, reward float32) {
	engine := loadEngine()
	engine.Feedback(policy.Context{Kind: "reward"}, action, reward)
	saveEngine(engine)
	printJSON(engine.Snapshot())
}

func runSnapshot(write bool) {
	engine := loadEngine()
	if write {
		saveEngine(engine)
	}
	printJSON(engine.Snapshot())
}
