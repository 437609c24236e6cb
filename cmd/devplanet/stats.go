package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var statsFormat string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate session statistics",
	Long: `Fetch the aggregate session counters from the backend: sessions
today, total achievements, total evolution points, and current streak.`,
	Run: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsFormat, "format", "human", "Output format (human, json)")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) {
	logger := newLogger()
	cfg := mustLoadConfig()
	api, manager := newAPIClient(cfg, logger)
	userID := requireUser(manager)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
	defer cancel()

	stats, err := api.UserStats(ctx, userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if statsFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(stats)
		return
	}

	fmt.Printf("Sessions today:    %d\n", stats.SessionsToday)
	fmt.Printf("Achievements:      %d\n", stats.TotalAchievements)
	fmt.Printf("Evolution points:  %d\n", stats.TotalEvolutionPoints)
	fmt.Printf("Current streak:    %d\n", stats.CurrentStreak)
}
