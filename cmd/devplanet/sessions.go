package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	sessionsLimit  int
	sessionsFormat string
	exportOutput   string
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect locally recorded sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent sessions",
	Run:   runSessionsList,
}

var sessionsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export session history as gzipped JSON",
	Run:   runSessionsExport,
}

func init() {
	sessionsListCmd.Flags().IntVar(&sessionsLimit, "limit", 20, "Maximum number of sessions to show")
	sessionsListCmd.Flags().StringVar(&sessionsFormat, "format", "human", "Output format (human, json)")
	sessionsExportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default devplanet-history-<date>.json.gz)")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsExportCmd)
	rootCmd.AddCommand(sessionsCmd)
}

func runSessionsList(cmd *cobra.Command, args []string) {
	logger := newLogger()

	store := openHistory(logger)
	if store == nil {
		fmt.Fprintln(os.Stderr, "Error: session history is unavailable")
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	sessions, err := store.ListSessions(sessionsLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if sessionsFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(sessions); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions recorded yet.")
		return
	}

	for _, s := range sessions {
		status := "open"
		if s.EndedAt != nil {
			status = fmt.Sprintf("%ds, %d analyses, %.1f pts",
				s.DurationSeconds, s.AnalysesPerformed, s.PointsEarned)
		}
		project := s.ProjectName
		if project == "" {
			project = "-"
		}
		fmt.Printf("%s  %s  planet=%s  project=%s  (%s)\n",
			s.StartedAt.Local().Format("2006-01-02 15:04"),
			s.ID, s.PlanetID, project, status)
	}
}

func runSessionsExport(cmd *cobra.Command, args []string) {
	logger := newLogger()

	store := openHistory(logger)
	if store == nil {
		fmt.Fprintln(os.Stderr, "Error: session history is unavailable")
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	now := time.Now().UTC()
	out := exportOutput
	if out == "" {
		out = fmt.Sprintf("devplanet-history-%s.json.gz", now.Format("2006-01-02"))
	}

	f, err := os.Create(out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := store.ExportJSON(f, now); err != nil {
		_ = f.Close()
		fmt.Fprintf(os.Stderr, "Error: export: %v\n", err)
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %s\n", out)
}
