package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Nirucoder/Esummit-KrishiSevak/internal/cli/auth"
	"github.com/Nirucoder/Esummit-KrishiSevak/internal/cli/client"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and discard the stored session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout()
		},
	}
}

func runLogout() error {
	serverURL, err := resolveServerURL()
	if err != nil {
		return err
	}

	// Best effort: the local token is removed even if the server call fails
	apiClient := client.New(serverURL)
	if err := apiClient.Logout(serverURL); err != nil {
		fmt.Printf("Warning: server sign-out failed: %v\n", err)
	}

	if err := auth.DeleteToken(serverURL); err != nil {
		return err
	}

	fmt.Println("✓ Logged out")
	return nil
}
