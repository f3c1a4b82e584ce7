package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Nirucoder/Esummit-KrishiSevak/internal/cli/auth"
)

// Client represents an HTTP client for the KrishiSevak API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client for the given server URL
func New(serverURL string) *Client {
	return &Client{
		baseURL: serverURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second, // assistant replies can be slow
		},
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// User mirrors the API's user payload
type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Name          string `json:"name"`
	EmailVerified bool   `json:"emailVerified"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	Success     bool   `json:"success"`
	User        *User  `json:"user"`
	AccessToken string `json:"accessToken"`
	Error       string `json:"error"`
}

// Login authenticates the user and returns the session access token
func (c *Client) Login(email, password string) (*LoginResponse, error) {
	reqBody := LoginRequest{
		Email:    email,
		Password: password,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := c.httpClient.Post(
		fmt.Sprintf("%s/api/auth/login", c.baseURL),
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	var loginResp LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&loginResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || !loginResp.Success {
		if loginResp.Error != "" {
			return nil, fmt.Errorf("login failed: %s", loginResp.Error)
		}
		return nil, fmt.Errorf("login failed (status %d)", resp.StatusCode)
	}

	return &loginResp, nil
}

// Logout signs out the active session on the server
func (c *Client) Logout(serverURL string) error {
	token, err := auth.LoadToken(serverURL)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(
		"POST",
		fmt.Sprintf("%s/api/auth/logout", c.baseURL),
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("logout failed (status %d): %s", resp.StatusCode, string(body))
	}

	return nil
}

// Me returns the currently authenticated user
func (c *Client) Me(serverURL string) (*User, error) {
	token, err := auth.LoadToken(serverURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(
		"GET",
		fmt.Sprintf("%s/api/auth/me", c.baseURL),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to fetch user (status %d): %s", resp.StatusCode, string(body))
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &user, nil
}

// ChatRequest represents one question for the assistant
type ChatRequest struct {
	Message  string `json:"message"`
	Language string `json:"language,omitempty"`
	FieldID  string `json:"fieldId,omitempty"`
}

// ChatResponse carries the assistant's reply
type ChatResponse struct {
	Reply string `json:"reply"`
}

// Ask sends a question to the assistant
func (c *Client) Ask(serverURL, message, language, fieldID string) (string, error) {
	token, err := auth.LoadToken(serverURL)
	if err != nil {
		return "", err
	}

	reqBody := ChatRequest{
		Message:  message,
		Language: language,
		FieldID:  fieldID,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequest(
		"POST",
		fmt.Sprintf("%s/api/chat", c.baseURL),
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("assistant request failed (status %d): %s", resp.StatusCode, string(body))
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	return chatResp.Reply, nil
}

// Field represents a registered farm field
type Field struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	PolygonID       string  `json:"polygon_id"`
	CenterLat       float64 `json:"center_lat"`
	CenterLon       float64 `json:"center_lon"`
	AreaHa          float64 `json:"area_ha"`
	RefreshSchedule string  `json:"refresh_schedule"`
	CreatedAt       string  `json:"created_at"`
}

// ListFields returns all fields registered by the authenticated user
func (c *Client) ListFields(serverURL string) ([]Field, error) {
	token, err := auth.LoadToken(serverURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(
		"GET",
		fmt.Sprintf("%s/api/fields", c.baseURL),
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to list fields (status %d): %s", resp.StatusCode, string(body))
	}

	var fields []Field
	if err := json.NewDecoder(resp.Body).Decode(&fields); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return fields, nil
}

// Weather represents the current weather at a coordinate
type Weather struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp     float64 `json:"temp"` // Kelvin
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"` // m/s
	} `json:"wind"`
}

// TempCelsius converts the Kelvin reading to Celsius
func (w *Weather) TempCelsius() float64 {
	return w.Main.Temp - 273.15
}

// CurrentWeather fetches the current weather for a coordinate
func (c *Client) CurrentWeather(serverURL string, lat, lon float64) (*Weather, error) {
	token, err := auth.LoadToken(serverURL)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/weather?lat=%s&lon=%s",
		c.baseURL,
		strconv.FormatFloat(lat, 'f', -1, 64),
		strconv.FormatFloat(lon, 'f', -1, 64),
	)

	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to fetch weather (status %d): %s", resp.StatusCode, string(body))
	}

	var weather Weather
	if err := json.NewDecoder(resp.Body).Decode(&weather); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &weather, nil
}
