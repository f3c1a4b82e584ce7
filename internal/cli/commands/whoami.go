package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Nirucoder/Esummit-KrishiSevak/internal/cli/client"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the currently authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami()
		},
	}
}

func runWhoami() error {
	serverURL, err := resolveServerURL()
	if err != nil {
		return err
	}

	apiClient := client.New(serverURL)
	user, err := apiClient.Me(serverURL)
	if err != nil {
		return err
	}

	fmt.Printf("User:  %s\n", user.Name)
	fmt.Printf("Email: %s\n", user.Email)
	if user.Phone != "" {
		fmt.Printf("Phone: %s\n", user.Phone)
	}
	if !user.EmailVerified {
		fmt.Println("Email not verified")
	}

	return nil
}
