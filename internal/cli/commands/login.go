package commands

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Nirucoder/Esummit-KrishiSevak/internal/cli/auth"
	"github.com/Nirucoder/Esummit-KrishiSevak/internal/cli/client"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate with a KrishiSevak server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(email, password)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set KRISHISEVAK_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set KRISHISEVAK_PASSWORD, will prompt if not provided)")

	return cmd
}

func runLogin(email, password string) error {
	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("KRISHISEVAK_EMAIL")
	}
	if password == "" {
		password = os.Getenv("KRISHISEVAK_PASSWORD")
	}

	// Validate email
	if email == "" {
		return fmt.Errorf("email is required (use --email flag or KRISHISEVAK_EMAIL env var)")
	}

	serverURL, err := resolveServerURL()
	if err != nil {
		return err
	}

	// Prompt for password if not provided via flag or env var
	if password == "" {
		// Check if stdin is a terminal (not piped)
		if term.IsTerminal(int(syscall.Stdin)) {
			fmt.Print("Password: ")
			bytePassword, err := term.ReadPassword(int(syscall.Stdin))
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			password = string(bytePassword)
			fmt.Println() // New line after password input
		} else {
			return fmt.Errorf("password is required in non-interactive mode (use --password flag or KRISHISEVAK_PASSWORD env var)")
		}
	}

	apiClient := client.New(serverURL)

	// Attempt login
	fmt.Printf("Logging in to %s...\n", serverURL)

	loginResp, err := apiClient.Login(email, password)
	if err != nil {
		return err
	}

	if loginResp.AccessToken == "" || loginResp.User == nil {
		// Email confirmation pending: the account exists but has no session yet
		if loginResp.Error != "" {
			fmt.Println(loginResp.Error)
			return nil
		}
		return fmt.Errorf("login succeeded but no session was issued")
	}

	// Save token
	if err := auth.SaveToken(serverURL, loginResp.AccessToken); err != nil {
		return fmt.Errorf("failed to save authentication token: %w", err)
	}

	fmt.Println("✓ Login successful!")
	fmt.Printf("  User: %s (%s)\n", loginResp.User.Name, loginResp.User.Email)

	return nil
}
