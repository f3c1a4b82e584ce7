package commands

import (
	"fmt"

	"github.com/Nirucoder/Esummit-KrishiSevak/internal/cli/userconfig"
)

// resolveServerURL returns the API server URL from the user config
func resolveServerURL() (string, error) {
	serverURL, err := userconfig.ServerURL()
	if err != nil {
		return "", fmt.Errorf("failed to load user config: %w", err)
	}
	return serverURL, nil
}
