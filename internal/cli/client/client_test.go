package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/Nirucoder/Esummit-KrishiSevak/internal/cli/auth"
)

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" {
			t.Errorf("unexpected path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}

		var req LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Email != "farmer@demo.com" {
			t.Errorf("unexpected email: %q", req.Email)
		}

		json.NewEncoder(w).Encode(LoginResponse{
			Success:     true,
			AccessToken: "demo-token-1",
			User:        &User{ID: "u-1", Email: req.Email, Name: "Demo Farmer"},
		})
	}))
	defer server.Close()

	c := New(server.URL)

	resp, err := c.Login("farmer@demo.com", "demo123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if resp.AccessToken != "demo-token-1" {
		t.Errorf("expected access token, got %q", resp.AccessToken)
	}
	if resp.User == nil || resp.User.Name != "Demo Farmer" {
		t.Errorf("unexpected user: %+v", resp.User)
	}
}

func TestLogin_FailureSurfacesServerMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(LoginResponse{Success: false, Error: "Invalid login credentials"})
	}))
	defer server.Close()

	c := New(server.URL)

	_, err := c.Login("x@x.com", "bad")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "Invalid login credentials") {
		t.Errorf("expected server message, got %q", err.Error())
	}
}

func TestAsk(t *testing.T) {
	keyring.MockInit()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("unexpected path: %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer demo-token-1" {
			t.Errorf("missing bearer token, got %q", r.Header.Get("Authorization"))
		}

		var req ChatRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Language != "hi" || req.FieldID != "field-1" {
			t.Errorf("unexpected request: %+v", req)
		}

		json.NewEncoder(w).Encode(ChatResponse{Reply: "शाम को पानी दें।"})
	}))
	defer server.Close()

	if err := auth.SaveToken(server.URL, "demo-token-1"); err != nil {
		t.Fatalf("failed to store token: %v", err)
	}

	c := New(server.URL)

	reply, err := c.Ask(server.URL, "गेहूं को पानी कब दें?", "hi", "field-1")
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if reply != "शाम को पानी दें।" {
		t.Errorf("unexpected reply: %q", reply)
	}
}

func TestAsk_NotAuthenticated(t *testing.T) {
	keyring.MockInit()

	c := New("http://localhost:0")

	_, err := c.Ask("http://localhost:0", "hello", "en", "")
	if err == nil {
		t.Fatal("expected error without a stored token")
	}
	if !strings.Contains(err.Error(), "not authenticated") {
		t.Errorf("expected authentication error, got %q", err.Error())
	}
}

func TestListFields(t *testing.T) {
	keyring.MockInit()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/fields" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`[{"id":"f-1","name":"North Plot","polygon_id":"p-1",
			"center_lat":28.6183,"center_lon":77.2183,"area_ha":1.75,
			"refresh_schedule":"0 6 * * *"}]`))
	}))
	defer server.Close()

	if err := auth.SaveToken(server.URL, "demo-token-1"); err != nil {
		t.Fatalf("failed to store token: %v", err)
	}

	c := New(server.URL)

	fields, err := c.ListFields(server.URL)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}
	if fields[0].Name != "North Plot" || fields[0].AreaHa != 1.75 {
		t.Errorf("unexpected field: %+v", fields[0])
	}
}

func TestCurrentWeather(t *testing.T) {
	keyring.MockInit()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/weather" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("lat") == "" || r.URL.Query().Get("lon") == "" {
			t.Error("expected lat/lon query parameters")
		}
		w.Write([]byte(`{"weather":[{"main":"Clear","description":"clear sky"}],
			"main":{"temp":301.15,"humidity":64},"wind":{"speed":3.2}}`))
	}))
	defer server.Close()

	if err := auth.SaveToken(server.URL, "demo-token-1"); err != nil {
		t.Fatalf("failed to store token: %v", err)
	}

	c := New(server.URL)

	weather, err := c.CurrentWeather(server.URL, 28.6183, 77.2183)
	if err != nil {
		t.Fatalf("weather failed: %v", err)
	}
	if got := weather.TempCelsius(); got < 27.9 || got > 28.1 {
		t.Errorf("unexpected celsius conversion: %f", got)
	}
}
