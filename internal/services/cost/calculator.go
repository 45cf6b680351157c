package cost

import (
	"fmt"
	"strings"
)

type PricingTable struct {
	InputPricePerMillion  float64
	OutputPricePerMillion float64
}

type ProviderPricing map[string]map[string]PricingTable

// https://ai.google.dev/gemini-api/docs/pricing
// https://openai.com/api/pricing
func defaultPricing() ProviderPricing {
	return ProviderPricing{
		"gemini": {
			"gemini-2.0-flash":       {InputPricePerMillion: 0.10, OutputPricePerMillion: 0.40},
			"gemini-2.0-flash-lite":  {InputPricePerMillion: 0.075, OutputPricePerMillion: 0.30},
			"gemini-2.5-flash":       {InputPricePerMillion: 0.30, OutputPricePerMillion: 2.50},
			"gemini-2.5-flash-lite":  {InputPricePerMillion: 0.10, OutputPricePerMillion: 0.40},
			"gemini-2.5-pro":         {InputPricePerMillion: 1.25, OutputPricePerMillion: 10.00},
			"gemini-3-flash-preview": {InputPricePerMillion: 0.50, OutputPricePerMillion: 3.00},
			"gemini-3-pro-preview":   {InputPricePerMillion: 2.00, OutputPricePerMillion: 12.00},
		},
		"openai": {
			"gpt-4o":       {InputPricePerMillion: 2.50, OutputPricePerMillion: 10.00},
			"gpt-4o-mini":  {InputPricePerMillion: 0.15, OutputPricePerMillion: 0.60},
			"gpt-4.1":      {InputPricePerMillion: 2.00, OutputPricePerMillion: 8.00},
			"gpt-4.1-mini": {InputPricePerMillion: 0.40, OutputPricePerMillion: 1.60},
			"gpt-4.1-nano": {InputPricePerMillion: 0.10, OutputPricePerMillion: 0.40},
		},
	}
}

// Calculator estimates USD cost from token counts. Each instance owns its
// pricing table.
type Calculator struct {
	pricing ProviderPricing
}

func NewCalculator() *Calculator {
	return &Calculator{pricing: defaultPricing()}
}

// EstimateCost returns 0 for unknown providers or models.
func (c *Calculator) EstimateCost(provider, model string, inputTokens, outputTokens int) float64 {
	table, ok := c.lookup(provider, model)
	if !ok {
		return 0
	}

	inputCost := (float64(inputTokens) / 1_000_000) * table.InputPricePerMillion
	outputCost := (float64(outputTokens) / 1_000_000) * table.OutputPricePerMillion

	return inputCost + outputCost
}

// GetPricing returns the pricing table for a provider and model. Versioned
// model names ("gpt-4o-mini-2024-07-18") resolve to the longest known prefix.
func (c *Calculator) GetPricing(provider, model string) (PricingTable, error) {
	if _, ok := c.pricing[strings.ToLower(provider)]; !ok {
		return PricingTable{}, fmt.Errorf("provider %s not found", provider)
	}
	table, ok := c.lookup(provider, model)
	if !ok {
		return PricingTable{}, fmt.Errorf("model %s not found for provider %s", model, provider)
	}
	return table, nil
}

// AddPricing registers or overrides a model's pricing on this calculator.
func (c *Calculator) AddPricing(provider, model string, table PricingTable) {
	provider = strings.ToLower(provider)
	model = strings.ToLower(model)

	if _, exists := c.pricing[provider]; !exists {
		c.pricing[provider] = make(map[string]PricingTable)
	}
	c.pricing[provider][model] = table
}

func (c *Calculator) lookup(provider, model string) (PricingTable, bool) {
	providerPricing, ok := c.pricing[strings.ToLower(provider)]
	if !ok {
		return PricingTable{}, false
	}

	model = strings.ToLower(model)
	if table, ok := providerPricing[model]; ok {
		return table, true
	}

	var (
		best    PricingTable
		bestLen int
	)
	for name, table := range providerPricing {
		if strings.HasPrefix(model, name) && len(name) > bestLen {
			best, bestLen = table, len(name)
		}
	}
	return best, bestLen > 0
}
