package studyguide

import (
	"context"
	"fmt"

	"github.com/poiesic/studyguide/ai"
	"github.com/poiesic/studyguide/ai/gemini"
	"github.com/poiesic/studyguide/ai/openai"
)

// NewGenerator creates the guide generator selected by cfg.Provider.
func NewGenerator(ctx context.Context, cfg *ai.Config) (ai.Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case ai.ProviderOpenAI:
		return openai.NewGenerator(cfg)
	case ai.ProviderGemini:
		return gemini.NewGenerator(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
}
