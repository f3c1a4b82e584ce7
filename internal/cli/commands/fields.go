package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Nirucoder/Esummit-KrishiSevak/internal/cli/client"
)

// NewFieldsCmd creates the fields command
func NewFieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "fields",
		Aliases: []string{"ls"},
		Short:   "List registered fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFields()
		},
	}
}

func runFields() error {
	serverURL, err := resolveServerURL()
	if err != nil {
		return err
	}

	apiClient := client.New(serverURL)
	fields, err := apiClient.ListFields(serverURL)
	if err != nil {
		return err
	}

	if len(fields) == 0 {
		fmt.Println("No fields registered.")
		return nil
	}

	// Display fields in a table
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tAREA (HA)\tCENTER\tSCHEDULE")
	fmt.Fprintln(w, "──\t────\t─────────\t──────\t────────")

	for _, field := range fields {
		schedule := field.RefreshSchedule
		if schedule == "" {
			schedule = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.4f, %.4f\t%s\n",
			field.ID,
			field.Name,
			field.AreaHa,
			field.CenterLat,
			field.CenterLon,
			schedule,
		)
	}

	w.Flush()

	return nil
}
