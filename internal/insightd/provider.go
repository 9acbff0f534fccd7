// Package insightd implements the insight service: the generation endpoint
// that turns combined research data into draft insights and the matching
// endpoint that ranks journey-map placements for them, behind a shared
// request throttle that reports the standard rate-limit body.
package insightd

import (
	"context"
	"fmt"
	"strings"

	"github.com/insightmap/insightmap/internal/model"
)

// Generator produces draft insights from a combined dataset. Implementations
// choose the generation method they stamp on each insight.
type Generator interface {
	// Name returns the provider name
	Name() string

	// GenerateInsights turns the dataset into draft insights (no placements)
	GenerateInsights(ctx context.Context, data *model.CombinedDataset) ([]model.GeneratedInsight, error)
}

// NewGenerator creates a generator from configuration: an OpenAI-backed one
// when a provider is configured, else the keyword generator.
func NewGenerator(cfg model.LLMConfig) (Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return NewOpenAIGenerator(cfg)
	case "":
		return NewKeywordGenerator(), nil
	default:
		return nil, fmt.Errorf("unknown AI provider: %s (supported: openai)", cfg.Provider)
	}
}
