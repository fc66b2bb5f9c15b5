package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/janpulse/govaudit/internal/anchor"
	"github.com/janpulse/govaudit/internal/collector"
	"github.com/janpulse/govaudit/internal/storage"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the health of the engine's collaborators",
	Long: `Probe each external collaborator the audit engine depends on:
the record store, the vector-search backend, the narrative backend, and the
anchor host configuration. Failures here explain degraded reports.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		cfg, err := loadConfig()
		if err != nil {
			fatalf("%v", err)
		}

		green := color.New(color.FgGreen).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		failures := 0

		store, err := openStorage(ctx, cfg)
		if err != nil {
			fmt.Printf("%s record store: %v\n", red("✗"), err)
			fmt.Println(yellow("  runs will produce degraded reports until the store is reachable"))
			os.Exit(1)
		}
		defer store.Close()

		if err := store.Ping(ctx); err != nil {
			failures++
			fmt.Printf("%s record store: %v\n", red("✗"), err)
		} else {
			fmt.Printf("%s record store reachable\n", green("✓"))
		}

		vector := collector.StatusProbe{Store: store, Key: storage.StatusVectorSearch}
		if vector.Available(ctx) {
			fmt.Printf("%s vector search backend available\n", green("✓"))
		} else {
			fmt.Printf("%s vector search backend unavailable (medium-severity issue on each run)\n", yellow("!"))
		}

		if os.Getenv("ANTHROPIC_API_KEY") != "" {
			fmt.Printf("%s narrative backend configured\n", green("✓"))
		} else {
			fmt.Printf("%s narrative backend not configured; reports render without narratives\n", yellow("!"))
		}

		pub := anchor.New(cfg.AnchorURL, cfg.AnchorToken)
		if pub.Enabled() {
			fmt.Printf("%s anchoring enabled (%s)\n", green("✓"), cfg.AnchorURL)
		} else {
			fmt.Printf("%s anchoring disabled (no credentials); snapshots are local-only\n", yellow("!"))
		}

		if failures > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
