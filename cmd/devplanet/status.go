package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"devplanet/internal/auth"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backend reachability and login state",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	logger := newLogger()
	cfg := mustLoadConfig()
	api, manager := newAPIClient(cfg, logger)

	fmt.Printf("Backend:  %s\n", cfg.Server.BaseURL)
	fmt.Printf("Stream:   %s\n", cfg.WSURL())

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
	defer cancel()
	if err := api.Health(ctx); err != nil {
		fmt.Printf("Health:   unreachable (%v)\n", err)
	} else {
		fmt.Println("Health:   ok")
	}

	switch manager.State() {
	case auth.StateAuthenticated:
		user, _ := manager.User()
		fmt.Printf("Login:    %s (token %s)\n", user.Username, auth.MaskToken(manager.Token()))
	default:
		fmt.Println("Login:    anonymous")
	}
}
