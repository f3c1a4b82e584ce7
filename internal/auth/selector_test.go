package auth

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/Nirucoder/Esummit-KrishiSevak/internal/config"
)

func TestSelectProvider(t *testing.T) {
	tests := []struct {
		name     string
		supabase config.SupabaseConfig
		want     Mode
	}{
		{
			name: "no configuration selects standalone",
			want: ModeStandalone,
		},
		{
			name:     "url without key selects standalone",
			supabase: config.SupabaseConfig{URL: "https://project.supabase.co"},
			want:     ModeStandalone,
		},
		{
			name:     "full configuration selects embedded",
			supabase: config.SupabaseConfig{URL: "https://project.supabase.co", AnonKey: "anon"},
			want:     ModeEmbedded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Supabase: tt.supabase}

			provider, err := SelectProvider(cfg, zerolog.Nop())
			if err != nil {
				t.Fatalf("SelectProvider failed: %v", err)
			}
			defer provider.Close()

			if provider.Mode() != tt.want {
				t.Errorf("expected mode %s, got %s", tt.want, provider.Mode())
			}
		})
	}
}
