package config

import (
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATABASE_URL", "REDIS_ADDRESS", "AGROMONITORING_BASE_URL", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Server.Port)
	}
	if cfg.Database.URL != "krishisevak.sqlite" {
		t.Errorf("expected default database path, got %q", cfg.Database.URL)
	}
	if cfg.Redis.Address != "localhost:6379" {
		t.Errorf("expected default redis address, got %q", cfg.Redis.Address)
	}
	if cfg.Agro.BaseURL != "https://api.agromonitoring.com/agro/1.0" {
		t.Errorf("expected default agro base URL, got %q", cfg.Agro.BaseURL)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("expected default logging config, got %+v", cfg.Logging)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "anon-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected overridden port, got %q", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected overridden log level, got %q", cfg.Logging.Level)
	}
	if cfg.Supabase.URL != "https://project.supabase.co" {
		t.Errorf("expected supabase URL, got %q", cfg.Supabase.URL)
	}
}

func TestIsSupabaseConfigured(t *testing.T) {
	tests := []struct {
		name string
		cfg  SupabaseConfig
		want bool
	}{
		{name: "unset", want: false},
		{name: "url only", cfg: SupabaseConfig{URL: "https://x.supabase.co"}, want: false},
		{name: "key only", cfg: SupabaseConfig{AnonKey: "anon"}, want: false},
		{name: "both", cfg: SupabaseConfig{URL: "https://x.supabase.co", AnonKey: "anon"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{Supabase: tt.cfg}
			if got := c.IsSupabaseConfigured(); got != tt.want {
				t.Errorf("IsSupabaseConfigured() = %v, want %v", got, tt.want)
			}
		})
	}
}
