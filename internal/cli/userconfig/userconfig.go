package userconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	configDirName  = "krishisevak"
	configFileName = "config.json"

	// DefaultServerURL is used until the user runs 'krishisevak use-server'
	DefaultServerURL = "http://localhost:8080"
)

// UserConfig represents the user's local configuration stored in ~/.config/krishisevak/config.json
type UserConfig struct {
	ServerURL string `json:"server_url"`
	Language  string `json:"language"` // "en" or "hi", defaults to "en"
}

// GetConfigPath returns the path to the user config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".config", configDirName)
	return filepath.Join(configDir, configFileName), nil
}

// Load reads the user configuration file
func Load() (*UserConfig, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	// If config doesn't exist, return empty config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &UserConfig{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the user configuration to a file
func Save(cfg *UserConfig) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Create config directory if it doesn't exist
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}

	return nil
}

// ServerURL returns the configured server URL, falling back to the default
func ServerURL() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}

	if cfg.ServerURL == "" {
		return DefaultServerURL, nil
	}
	return cfg.ServerURL, nil
}

// SetServerURL updates the server URL and saves the config
func SetServerURL(serverURL string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	cfg.ServerURL = serverURL
	return Save(cfg)
}

// PreferredLanguage returns the configured chat language, defaulting to English
func PreferredLanguage() (string, error) {
	cfg, err := Load()
	if err != nil {
		return "", err
	}

	if cfg.Language == "" {
		return "en", nil
	}
	return cfg.Language, nil
}

// SetPreferredLanguage updates the chat language and saves the config
func SetPreferredLanguage(language string) error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	cfg.Language = language
	return Save(cfg)
}
