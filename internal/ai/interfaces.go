package ai

import (
	"context"

	"github.com/thomas-vilte/commitlens/internal/models"
)

// Format is the response shape requested from the model.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

type GenerateOptions struct {
	Temperature     float32
	MaxOutputTokens int
	Format          Format
}

// TextGenerator is the text-generation capability. Initial generation,
// reflection, verification and refinement all go through Generate and only
// differ by prompt content and requested format.
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string, opts GenerateOptions) (string, error)
}

// AvailabilityChecker is implemented by generators that can tell, before any
// generation attempt, whether the backend is reachable.
type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context) error
}

// Backend is a concrete provider. It reports token usage per call so the
// cost-aware wrapper can account for it.
type Backend interface {
	AvailabilityChecker
	GenerateWithUsage(ctx context.Context, systemPrompt, userPrompt string, opts GenerateOptions) (string, *models.TokenUsage, error)
	ProviderName() string
	ModelName() string
}

// UsageReporter exposes the usage accumulated by a generator.
type UsageReporter interface {
	Usage() models.TokenUsage
}
