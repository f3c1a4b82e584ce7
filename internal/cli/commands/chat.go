package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Nirucoder/Esummit-KrishiSevak/internal/cli/client"
	"github.com/Nirucoder/Esummit-KrishiSevak/internal/cli/userconfig"
)

// NewChatCmd creates the chat command
func NewChatCmd() *cobra.Command {
	var language, fieldID string

	cmd := &cobra.Command{
		Use:   "chat <question>",
		Short: "Ask the farming assistant a question",
		Long: `Ask KrishiBot a farming question.

Pass --field to include live weather for one of your registered fields
in the answer. Use 'krishisevak fields' to see field IDs.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(strings.Join(args, " "), language, fieldID)
		},
	}

	cmd.Flags().StringVar(&language, "language", "", "Reply language: en or hi (defaults to configured language)")
	cmd.Flags().StringVar(&fieldID, "field", "", "Field ID to include weather context for")

	return cmd
}

func runChat(message, language, fieldID string) error {
	serverURL, err := resolveServerURL()
	if err != nil {
		return err
	}

	if language == "" {
		language, err = userconfig.PreferredLanguage()
		if err != nil {
			return err
		}
	}
	if language != "en" && language != "hi" {
		return fmt.Errorf("unsupported language %q (use en or hi)", language)
	}

	apiClient := client.New(serverURL)
	reply, err := apiClient.Ask(serverURL, message, language, fieldID)
	if err != nil {
		return err
	}

	fmt.Println(reply)
	return nil
}
