package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"devplanet/internal/client"
	"devplanet/internal/session"
	"devplanet/internal/watch"
)

var (
	watchPlanet  string
	watchProject string
	watchLang    string
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Watch a project and stream analysis live",
	Long: `Watch a directory for source changes, stream each save to the
backend for analysis, and run a coding session for the duration.

The session is ended automatically on Ctrl-C so server-side accounting
is never left open. When the stream drops, analysis continues locally
and reconnection happens in the background with exponential backoff.

Examples:
  devplanet watch --planet p1 .
  devplanet watch --planet p1 --project orbit ~/src/orbit`,
	Args: cobra.MaximumNArgs(1),
	Run:  runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchPlanet, "planet", "", "Planet ID the session feeds (required)")
	watchCmd.Flags().StringVar(&watchProject, "project", "", "Project name reported with the session")
	watchCmd.Flags().StringVar(&watchLang, "language", "", "Primary language reported with the session")
	_ = watchCmd.MarkFlagRequired("planet")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) {
	logger := newLogger()
	cfg := mustLoadConfig()
	api, manager := newAPIClient(cfg, logger)
	userID := requireUser(manager)

	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	store := openHistory(logger)
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	c := client.New(client.Options{
		Config:  cfg,
		UserID:  userID,
		API:     api,
		History: store,
		Logger:  logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := c.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: connect: %v\n", err)
		os.Exit(1)
	}
	defer c.Close() // ends the session before the process exits

	if err := c.StartSession(session.StartConfig{
		PlanetID:    watchPlanet,
		ProjectName: watchProject,
		Language:    watchLang,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: start session: %v\n", err)
		os.Exit(1)
	}

	watcher, err := watch.New(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = watcher.Stop() }()

	debouncer := watch.NewDebouncer(cfg.Debounce())
	defer debouncer.Stop()

	err = watcher.Watch(root, func(path string) {
		debouncer.Trigger(path, func() {
			if err := c.SubmitFile(context.Background(), path); err != nil {
				logger.Warn("Analysis failed", "path", path, "error", err)
			}
		})
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: watch: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Watching %s (Ctrl-C to stop)\n", root)
	<-ctx.Done()
	fmt.Println("\nStopping...")
}
