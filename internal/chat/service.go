// Package chat is the KrishiBot assistant: an OpenAI chat-completions
// client that folds current weather and location context into the system
// prompt before asking for advice.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/Nirucoder/Esummit-KrishiSevak/internal/config"
)

const (
	model       = "gpt-4o-mini"
	maxTokens   = 500
	temperature = 0.7
)

// ErrNotConfigured is returned when no OpenAI API key is set
var ErrNotConfigured = errors.New("OpenAI API key not configured")

// Message is one chat-completion message
type Message struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// WeatherContext is current-weather data folded into the prompt
type WeatherContext struct {
	Temperature float64 `json:"temperature"` // Celsius
	Humidity    float64 `json:"humidity"`
	Description string  `json:"description"`
	WindSpeed   float64 `json:"windSpeed"` // km/h
}

// LocationContext is the user's location folded into the prompt
type LocationContext struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Address string  `json:"address,omitempty"`
}

// Service calls the OpenAI chat-completions API
type Service struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewService creates a new chat service
func NewService(cfg config.OpenAIConfig, logger zerolog.Logger) *Service {
	return &Service{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger.With().Str("component", "chat").Logger(),
	}
}

// IsConfigured reports whether the service can reach OpenAI
func (s *Service) IsConfigured() bool {
	return s.apiKey != ""
}

// Ask sends one user message and returns the assistant's reply. language is
// "en" or "hi"; weather and location are optional context.
func (s *Service) Ask(ctx context.Context, userMessage, language string, weather *WeatherContext, location *LocationContext) (string, error) {
	if s.apiKey == "" {
		return "", ErrNotConfigured
	}

	messages := []Message{
		{Role: "system", Content: systemPrompt(language) + contextMessage(language, weather, location)},
		{Role: "user", Content: userMessage},
	}

	body := map[string]any{
		"model":       model,
		"messages":    messages,
		"max_tokens":  maxTokens,
		"temperature": temperature,
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		s.logger.Error().Int("status", resp.StatusCode).Bytes("body", raw).Msg("OpenAI API error")
		return "", fmt.Errorf("OpenAI API error: %d", resp.StatusCode)
	}

	var completion struct {
		Choices []struct {
			Message Message `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "I could not generate a response. Please try again.", nil
	}
	return completion.Choices[0].Message.Content, nil
}

// contextMessage renders the optional weather/location context in the
// requested language.
func contextMessage(language string, weather *WeatherContext, location *LocationContext) string {
	var msg string

	if weather != nil {
		if language == "hi" {
			msg += fmt.Sprintf("\n\nवर्तमान मौसम की स्थिति: तापमान %.0f°C, आर्द्रता %.0f%%, %s, हवा %.0f km/h।",
				weather.Temperature, weather.Humidity, weather.Description, weather.WindSpeed)
		} else {
			msg += fmt.Sprintf("\n\nCurrent weather conditions: Temperature %.0f°C, Humidity %.0f%%, %s, Wind %.0f km/h.",
				weather.Temperature, weather.Humidity, weather.Description, weather.WindSpeed)
		}
	}

	if location != nil && location.Address != "" {
		if language == "hi" {
			msg += fmt.Sprintf(" स्थान: %s।", location.Address)
		} else {
			msg += fmt.Sprintf(" Location: %s.", location.Address)
		}
	}

	return msg
}
