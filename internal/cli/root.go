package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Nirucoder/Esummit-KrishiSevak/internal/cli/commands"
)

var version = "dev" // Will be set during build

var rootCmd = &cobra.Command{
	Use:   "krishisevak",
	Short: "KrishiSevak - Farming assistant from the terminal",
	Long: `KrishiSevak CLI - Talk to your farming assistant and monitor your fields.

Sign in with 'krishisevak login', then ask questions with 'krishisevak chat'
or check on your fields with 'krishisevak fields' and 'krishisevak weather'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("krishisevak version %s\n", version)
		},
	})

	// Add all subcommands
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewWhoamiCmd())
	rootCmd.AddCommand(commands.NewChatCmd())
	rootCmd.AddCommand(commands.NewFieldsCmd())
	rootCmd.AddCommand(commands.NewWeatherCmd())
	rootCmd.AddCommand(commands.NewUseServerCmd())
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
