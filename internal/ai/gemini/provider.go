// Package gemini implements the text generation backend on the Gemini API.
package gemini

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genai"

	"github.com/thomas-vilte/commitlens/internal/ai"
	apperrors "github.com/thomas-vilte/commitlens/internal/errors"
	"github.com/thomas-vilte/commitlens/internal/logger"
	"github.com/thomas-vilte/commitlens/internal/models"
)

const DefaultModel = "gemini-2.5-flash"

var (
	_ ai.Backend      = (*Provider)(nil)
	_ ai.TokenCounter = (*Provider)(nil)
)

type (
	generateFunc func(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	getModelFunc func(ctx context.Context, model string) error
	countFunc    func(ctx context.Context, model string, contents []*genai.Content) (int, error)
)

type Provider struct {
	model      string
	generateFn generateFunc
	getModelFn getModelFunc
	countFn    countFunc
}

// NewProvider creates a Gemini API client for model.
func NewProvider(ctx context.Context, apiKey, model string) (*Provider, error) {
	if apiKey == "" {
		return nil, apperrors.ErrAPIKeyMissing.WithContext("provider", "gemini")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "invalid") || strings.Contains(errMsg, "api key") {
			return nil, apperrors.ErrAPIKeyInvalid.WithError(err)
		}
		return nil, apperrors.NewAppError(apperrors.TypeAI, "error creating AI client", err)
	}

	return &Provider{
		model:      model,
		generateFn: client.Models.GenerateContent,
		getModelFn: func(ctx context.Context, model string) error {
			_, err := client.Models.Get(ctx, model, nil)
			return err
		},
		countFn: func(ctx context.Context, model string, contents []*genai.Content) (int, error) {
			resp, err := client.Models.CountTokens(ctx, model, contents, nil)
			if err != nil {
				return 0, err
			}
			return int(resp.TotalTokens), nil
		},
	}, nil
}

func (p *Provider) ProviderName() string { return "gemini" }

func (p *Provider) ModelName() string { return p.model }

// CheckAvailability fetches the model metadata, which fails fast on bad
// keys, unknown models and network errors.
func (p *Provider) CheckAvailability(ctx context.Context) error {
	if err := p.getModelFn(ctx, p.model); err != nil {
		classified := classifyError(err)
		if errors.Is(classified, apperrors.ErrAPIKeyInvalid) {
			return classified
		}
		return apperrors.ErrProviderUnavailable.WithError(err).WithContext("provider", "gemini")
	}
	return nil
}

func (p *Provider) CountTokens(ctx context.Context, text string) (int, error) {
	return p.countFn(ctx, p.model, genai.Text(text))
}

func (p *Provider) Generate(ctx context.Context, systemPrompt, userPrompt string, opts ai.GenerateOptions) (string, error) {
	text, _, err := p.GenerateWithUsage(ctx, systemPrompt, userPrompt, opts)
	return text, err
}

func (p *Provider) GenerateWithUsage(ctx context.Context, systemPrompt, userPrompt string, opts ai.GenerateOptions) (string, *models.TokenUsage, error) {
	genConfig := GetGenerateConfig(p.model, systemPrompt, opts)

	resp, err := p.generateFn(ctx, p.model, genai.Text(userPrompt), genConfig)
	if err != nil {
		logger.Error(ctx, "gemini API call failed", err, "model", p.model)
		return "", nil, classifyError(err)
	}

	text := formatResponse(resp)
	if text == "" {
		return "", extractUsage(resp), apperrors.ErrAIGeneration.WithContext("reason", "empty response")
	}

	return text, extractUsage(resp), nil
}
