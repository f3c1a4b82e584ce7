package commands

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/Nirucoder/Esummit-KrishiSevak/internal/cli/userconfig"
)

// NewUseServerCmd creates the use-server command
func NewUseServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use-server <url>",
		Short: "Set the KrishiSevak server URL to talk to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUseServer(args[0])
		},
	}
}

func runUseServer(serverURL string) error {
	parsed, err := url.Parse(serverURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid server URL %q (expected e.g. https://api.example.com)", serverURL)
	}

	if err := userconfig.SetServerURL(serverURL); err != nil {
		return err
	}

	fmt.Printf("✓ Using server %s\n", serverURL)
	return nil
}
