package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"devplanet/internal/apiclient"
	"devplanet/internal/history"
)

var (
	sessionPlanet   string
	sessionProject  string
	sessionLanguage string
	sessionDuration int
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage coding sessions over the REST fallback",
	Long: `Start and end coding sessions without a live stream connection.

This is the degraded-mode path: "devplanet watch" manages sessions over
the stream automatically, but these commands keep session accounting
working when only HTTP is reachable.`,
}

var sessionStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a session",
	Run:   runSessionStart,
}

var sessionEndCmd = &cobra.Command{
	Use:   "end <session-id>",
	Short: "End a session",
	Args:  cobra.ExactArgs(1),
	Run:   runSessionEnd,
}

var sessionStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sessions that are still open",
	Run:   runSessionStatus,
}

func init() {
	sessionStartCmd.Flags().StringVar(&sessionPlanet, "planet", "", "Planet ID the session feeds (required)")
	sessionStartCmd.Flags().StringVar(&sessionProject, "project", "", "Project name reported with the session")
	sessionStartCmd.Flags().StringVar(&sessionLanguage, "language", "", "Primary language reported with the session")
	_ = sessionStartCmd.MarkFlagRequired("planet")

	sessionEndCmd.Flags().IntVar(&sessionDuration, "duration", 0, "Session duration in seconds")

	sessionCmd.AddCommand(sessionStartCmd)
	sessionCmd.AddCommand(sessionEndCmd)
	sessionCmd.AddCommand(sessionStatusCmd)
	rootCmd.AddCommand(sessionCmd)
}

func runSessionStart(cmd *cobra.Command, args []string) {
	logger := newLogger()
	cfg := mustLoadConfig()
	api, manager := newAPIClient(cfg, logger)
	userID := requireUser(manager)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
	defer cancel()

	info, err := api.StartSession(ctx, apiclient.StartSessionRequest{
		UserID:      userID,
		PlanetID:    sessionPlanet,
		ProjectName: sessionProject,
		Language:    sessionLanguage,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: start session: %v\n", err)
		os.Exit(1)
	}

	if store := openHistory(logger); store != nil {
		defer func() { _ = store.Close() }()
		err := store.InsertSession(&history.SessionRecord{
			ID:          info.SessionID,
			UserID:      userID,
			PlanetID:    sessionPlanet,
			ProjectName: sessionProject,
			Language:    sessionLanguage,
			StartedAt:   time.Now().UTC(),
		})
		if err != nil {
			logger.Warn("Failed to record session locally", "error", err)
		}
	}

	fmt.Printf("Session started: %s\n", info.SessionID)
	if info.Message != "" {
		fmt.Println(info.Message)
	}
}

func runSessionEnd(cmd *cobra.Command, args []string) {
	logger := newLogger()
	cfg := mustLoadConfig()
	api, manager := newAPIClient(cfg, logger)
	requireUser(manager)

	sessionID := args[0]

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
	defer cancel()

	summary, err := api.EndSession(ctx, sessionID, sessionDuration)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: end session: %v\n", err)
		os.Exit(1)
	}

	if store := openHistory(logger); store != nil {
		defer func() { _ = store.Close() }()
		err := store.CompleteSession(sessionID, time.Now().UTC(),
			summary.DurationSeconds, summary.AnalysesPerformed, summary.PointsEarned)
		if err != nil {
			logger.Warn("Failed to update local session record", "error", err)
		}
	}

	fmt.Printf("Session ended: %s\n", summary.SessionID)
	fmt.Printf("  Duration:  %ds\n", summary.DurationSeconds)
	fmt.Printf("  Analyses:  %d\n", summary.AnalysesPerformed)
	fmt.Printf("  Points:    %.1f\n", summary.PointsEarned)
}

func runSessionStatus(cmd *cobra.Command, args []string) {
	logger := newLogger()

	store := openHistory(logger)
	if store == nil {
		fmt.Fprintln(os.Stderr, "Error: session history is unavailable")
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	sessions, err := store.ListSessions(100)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	open := 0
	for _, s := range sessions {
		if s.EndedAt != nil {
			continue
		}
		open++
		fmt.Printf("%s  planet=%s  started %s (%s ago)\n",
			s.ID, s.PlanetID,
			s.StartedAt.Local().Format("15:04:05"),
			time.Since(s.StartedAt).Round(time.Second))
	}
	if open == 0 {
		fmt.Println("No open sessions.")
	}
}
