package factory

import (
	"github.com/rs/zerolog"

	"github.com/campuslostfound/lostfound/internal/config"
	"github.com/campuslostfound/lostfound/internal/oracle"
)

// offlineConfidence sits below every sane accept threshold, so local runs without a
// key create no matches.
const offlineConfidence = 0

// NewOracle returns the chat-completions oracle when an API key is configured.
// Without one it falls back to a static oracle and warns.
func NewOracle(cfg *config.Config, log zerolog.Logger) oracle.Oracle {
	if cfg.OracleAPIKey == "" {
		log.Warn().Msg("LOSTFOUND_ORACLE_API_KEY not set; similarity oracle disabled, no matches will be produced")
		return oracle.Static{Confidence: offlineConfidence, Reasoning: "oracle disabled"}
	}
	return oracle.NewChatOracle(oracle.ChatConfig{
		BaseURL: cfg.OracleURL,
		APIKey:  cfg.OracleAPIKey,
		Model:   cfg.OracleModel,
		Timeout: cfg.OracleTimeout(),
	})
}
