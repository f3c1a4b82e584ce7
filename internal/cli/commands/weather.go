package commands

import (
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/Nirucoder/Esummit-KrishiSevak/internal/cli/client"
)

// NewWeatherCmd creates the weather command
func NewWeatherCmd() *cobra.Command {
	var lat, lon float64

	cmd := &cobra.Command{
		Use:   "weather",
		Short: "Show current weather for a coordinate or a registered field",
		Long: `Show current weather.

With --lat and --lon the coordinate is used directly. Without them the
command lists your registered fields and asks which one to use.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			coordsSet := cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon")
			return runWeather(lat, lon, coordsSet)
		},
	}

	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude")

	return cmd
}

func runWeather(lat, lon float64, coordsSet bool) error {
	serverURL, err := resolveServerURL()
	if err != nil {
		return err
	}

	apiClient := client.New(serverURL)

	label := ""
	if !coordsSet {
		field, err := promptFieldSelection(apiClient, serverURL)
		if err != nil {
			return err
		}
		lat, lon = field.CenterLat, field.CenterLon
		label = field.Name
	}

	weather, err := apiClient.CurrentWeather(serverURL, lat, lon)
	if err != nil {
		return err
	}

	if label != "" {
		fmt.Printf("Weather for %s:\n", label)
	} else {
		fmt.Printf("Weather at %.4f, %.4f:\n", lat, lon)
	}

	description := ""
	if len(weather.Weather) > 0 {
		description = weather.Weather[0].Description
	}

	fmt.Printf("  Temperature: %.1f°C\n", weather.TempCelsius())
	fmt.Printf("  Humidity:    %.0f%%\n", weather.Main.Humidity)
	fmt.Printf("  Wind:        %.1f km/h\n", weather.Wind.Speed*3.6)
	if description != "" {
		fmt.Printf("  Conditions:  %s\n", description)
	}

	return nil
}

// promptFieldSelection shows an interactive prompt to pick one of the user's fields
func promptFieldSelection(apiClient *client.Client, serverURL string) (*client.Field, error) {
	fields, err := apiClient.ListFields(serverURL)
	if err != nil {
		return nil, err
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("no fields registered. Pass --lat and --lon instead")
	}

	if len(fields) == 1 {
		return &fields[0], nil
	}

	type fieldOption struct {
		Label string
		Field *client.Field
	}

	options := make([]fieldOption, len(fields))
	for i := range fields {
		field := &fields[i]
		options[i] = fieldOption{
			Label: fmt.Sprintf("%s (%.4f, %.4f)", field.Name, field.CenterLat, field.CenterLon),
			Field: field,
		}
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "> {{ .Label | cyan }}",
		Inactive: "  {{ .Label }}",
		Selected: "{{ .Label | green }}",
	}

	prompt := promptui.Select{
		Label:     "Select a field",
		Items:     options,
		Templates: templates,
		Size:      10,
	}

	index, _, err := prompt.Run()
	if err != nil {
		return nil, fmt.Errorf("field selection cancelled: %w", err)
	}

	return options[index].Field, nil
}
