package clients

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"battle-arena/internal/clients/gemini"
	"battle-arena/internal/clients/proxy"
	"battle-arena/internal/config"
	"battle-arena/internal/services"
)

// NewGenerator builds the inference engine selected by analysis.engine. The
// returned close func is never nil.
func NewGenerator(ctx context.Context, cfg *config.Config) (services.Generator, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Analysis.Engine {
	case config.EngineProxy:
		c, err := proxy.NewClient(cfg.Proxy.URL, cfg.Proxy.HTTPTimeout)
		if err != nil {
			return nil, noop, fmt.Errorf("init proxy engine: %w", err)
		}
		return c, noop, nil
	case config.EngineGemini:
		c, err := gemini.NewClient(ctx, cfg.GeminiClient.APIKey, cfg.GeminiClient.Model, cfg.GeminiClient.Endpoint)
		if err != nil {
			return nil, noop, fmt.Errorf("init gemini engine: %w", err)
		}
		return c, c.Close, nil
	default:
		log.Error().Str("engine", cfg.Analysis.Engine).Msg("[Engine] unknown engine")
		return nil, noop, fmt.Errorf("unknown analysis engine %q", cfg.Analysis.Engine)
	}
}
