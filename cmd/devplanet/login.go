package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"devplanet/internal/auth"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to the Dev/Planet backend",
	Long: `Log in with email and password. The issued token is cached at
~/.devplanet/token.json (owner-only permissions) and reused until it
expires or you log out.

Examples:
  devplanet login --email k@example.com
  DEVPLANET_PASSWORD=... devplanet login --email k@example.com`,
	Run: runLogin,
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (prefer DEVPLANET_PASSWORD or the prompt)")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	logger := newLogger()
	cfg := mustLoadConfig()
	_, manager := newAPIClient(cfg, logger)

	email := loginEmail
	password := loginPassword
	if password == "" {
		password = os.Getenv("DEVPLANET_PASSWORD")
	}

	reader := bufio.NewReader(os.Stdin)
	if email == "" {
		fmt.Print("Email: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: read email: %v\n", err)
			os.Exit(1)
		}
		email = strings.TrimSpace(line)
	}
	if password == "" {
		fmt.Print("Password: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: read password: %v\n", err)
			os.Exit(1)
		}
		password = strings.TrimSpace(line)
	}

	if err := manager.Login(context.Background(), email, password); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	user, _ := manager.User()
	fmt.Printf("Logged in as %s (token %s)\n", user.Username, auth.MaskToken(manager.Token()))
}
