package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"devplanet/internal/apiclient"
	"devplanet/internal/auth"
	"devplanet/internal/config"
	"devplanet/internal/history"
	"devplanet/internal/paths"
	"devplanet/internal/slogutil"
	"devplanet/internal/version"
)

var (
	verbosity int
	quiet     bool
)

var rootCmd = &cobra.Command{
	Use:   "devplanet",
	Short: "Dev/Planet - grow a planet from your coding activity",
	Long: `Dev/Planet streams your coding activity to the analysis backend and
evolves a planet from the results. It keeps working offline: when the
stream is down, a local analyzer scores your code with the same rules.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("devplanet version {{.Version}}\n")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Only log errors")
}

// newLogger builds the CLI logger honoring -v / -q.
func newLogger() *slog.Logger {
	return slogutil.NewLogger(os.Stderr, slogutil.LevelFromVerbosity(verbosity, quiet))
}

// mustLoadConfig loads configuration or exits.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// newAuthManager restores cached credentials if present.
func newAuthManager(api *apiclient.Client, logger *slog.Logger) *auth.Manager {
	tokenPath, err := paths.TokenCachePath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	m := auth.NewManager(api, auth.NewStore(tokenPath), logger)
	_ = m.LoadCached() // anonymous is fine; commands check as needed
	return m
}

// newAPIClient wires the HTTP client to the auth manager. The manager
// is created after the client, so the token hook indirects through a
// pointer.
func newAPIClient(cfg *config.Config, logger *slog.Logger) (*apiclient.Client, *auth.Manager) {
	var manager *auth.Manager

	api := apiclient.New(apiclient.Options{
		BaseURL: cfg.Server.BaseURL,
		Timeout: cfg.RequestTimeout(),
		Logger:  logger,
		Token: func() string {
			if manager == nil {
				return ""
			}
			return manager.Token()
		},
		OnUnauthorized: func() {
			if manager != nil {
				manager.Invalidate()
			}
		},
	})
	manager = newAuthManager(api, logger)
	return api, manager
}

// openHistory opens the local session log; a failure disables history
// rather than aborting the command.
func openHistory(logger *slog.Logger) *history.Store {
	dbPath, err := paths.HistoryDBPath()
	if err != nil {
		logger.Warn("History disabled", "error", err)
		return nil
	}
	store, err := history.Open(dbPath, logger)
	if err != nil {
		logger.Warn("History disabled", "error", err)
		return nil
	}
	return store
}

// requireUser returns the authenticated user ID or exits.
func requireUser(manager *auth.Manager) string {
	user, err := manager.RequireUser()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: not logged in (run: devplanet login)")
		os.Exit(1)
	}
	return user.ID
}
