package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/janpulse/govaudit/internal/audit"
)

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Inspect and verify the snapshot ledger",
}

var snapshotsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent snapshots",
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")

		ctx := context.Background()
		cfg, err := loadConfig()
		if err != nil {
			fatalf("%v", err)
		}
		store, err := openStorage(ctx, cfg)
		if err != nil {
			fatalf("failed to open storage: %v", err)
		}
		defer store.Close()

		snaps, err := store.ListSnapshots(ctx, limit)
		if err != nil {
			fatalf("failed to list snapshots: %v", err)
		}
		if len(snaps) == 0 {
			fmt.Println("No snapshots in the ledger.")
			return
		}

		for _, snap := range snaps {
			fmt.Printf("%s  score=%-3d risk=%-6s  %s\n",
				snap.CreatedAt.Format("2006-01-02 15:04:05"),
				snap.Report.HealthScore,
				snap.Report.RiskLevel,
				snap.Hash[:16])
		}

		if n, err := store.CountVoteEvents(ctx); err == nil {
			fmt.Printf("\nVote-event trail: %d entries\n", n)
		}
	},
}

var snapshotsVerifyCmd = &cobra.Command{
	Use:   "verify [snapshot-id]",
	Short: "Recompute snapshot hashes and compare against the ledger",
	Long: `Recompute the canonical content hash of persisted snapshots and
compare each against its stored digest. With no argument, verifies every
snapshot in the ledger.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg, err := loadConfig()
		if err != nil {
			fatalf("%v", err)
		}
		store, err := openStorage(ctx, cfg)
		if err != nil {
			fatalf("failed to open storage: %v", err)
		}
		defer store.Close()

		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		snaps, err := store.ListSnapshots(ctx, 1000)
		if err != nil {
			fatalf("failed to list snapshots: %v", err)
		}
		if len(args) == 1 {
			snap, err := store.GetSnapshot(ctx, args[0])
			if err != nil {
				fatalf("failed to read snapshot: %v", err)
			}
			if snap == nil {
				fatalf("snapshot %s not found", args[0])
			}
			snaps = snaps[:0]
			snaps = append(snaps, snap)
		}

		failed := 0
		for _, snap := range snaps {
			ok, err := audit.VerifySnapshot(snap)
			switch {
			case err != nil:
				failed++
				fmt.Printf("%s %s: %v\n", red("✗"), snap.ID, err)
			case !ok:
				failed++
				fmt.Printf("%s %s: stored hash does not match report content\n", red("✗"), snap.ID)
			default:
				fmt.Printf("%s %s %s\n", green("✓"), snap.ID, snap.Hash[:16])
			}
		}

		if failed > 0 {
			fatalf("%d of %d snapshots failed verification", failed, len(snaps))
		}
		fmt.Printf("\n%s all %d snapshots verified\n", green("✓"), len(snaps))
	},
}

func init() {
	snapshotsListCmd.Flags().Int("limit", 20, "Maximum snapshots to show")

	snapshotsCmd.AddCommand(snapshotsListCmd)
	snapshotsCmd.AddCommand(snapshotsVerifyCmd)
	rootCmd.AddCommand(snapshotsCmd)
}
