package auth

import (
	"github.com/rs/zerolog"

	"github.com/Nirucoder/Esummit-KrishiSevak/internal/config"
)

// SelectProvider is the mode selector: it decides once, at startup, whether
// the manager runs against a configured Supabase backend or on synthetic
// in-memory accounts. Absence of Supabase configuration is a supported
// state, not a fault.
func SelectProvider(cfg *config.Config, logger zerolog.Logger) (Provider, error) {
	if cfg.IsSupabaseConfigured() {
		logger.Info().Str("mode", string(ModeEmbedded)).Msg("Auth connected to Supabase")
		return NewSupabaseProvider(cfg.Supabase, logger), nil
	}

	logger.Info().Str("mode", string(ModeStandalone)).Msg("Auth running in standalone mode (Supabase not configured)")
	return NewStandaloneProvider(cfg.Supabase.SeedAccounts, logger)
}
