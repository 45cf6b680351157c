// Package openai implements the text generation backend on OpenAI-compatible
// chat completion APIs through eino.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/thomas-vilte/commitlens/internal/ai"
	apperrors "github.com/thomas-vilte/commitlens/internal/errors"
	"github.com/thomas-vilte/commitlens/internal/logger"
	"github.com/thomas-vilte/commitlens/internal/models"
)

const (
	DefaultModel   = "gpt-4o-mini"
	DefaultBaseURL = "https://api.openai.com/v1"
)

var _ ai.Backend = (*Provider)(nil)

// HTTPClient is the subset of *http.Client used by CheckAvailability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type chatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient HTTPClient
}

type Provider struct {
	chat       chatModel
	model      string
	baseURL    string
	apiKey     string
	httpClient HTTPClient
}

func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, apperrors.ErrAPIKeyMissing.WithContext("provider", "openai")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}

	chat, err := einoopenai.NewChatModel(ctx, &einoopenai.ChatModelConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
	})
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.TypeAI, "error creating AI client", err)
	}

	return newProvider(chat, cfg), nil
}

func newProvider(chat chatModel, cfg Config) *Provider {
	return &Provider{
		chat:       chat,
		model:      cfg.Model,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: cfg.HTTPClient,
	}
}

func (p *Provider) ProviderName() string { return "openai" }

func (p *Provider) ModelName() string { return p.model }

// CheckAvailability retrieves the configured model from the models endpoint.
func (p *Provider) CheckAvailability(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models/"+p.model, nil)
	if err != nil {
		return apperrors.ErrProviderUnavailable.WithError(err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return apperrors.ErrProviderUnavailable.WithError(err).WithContext("provider", "openai")
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperrors.ErrAPIKeyInvalid.WithContext("status", resp.StatusCode)
	case resp.StatusCode >= 300:
		return apperrors.ErrProviderUnavailable.
			WithError(fmt.Errorf("models endpoint returned %s", resp.Status)).
			WithContext("provider", "openai")
	}
	return nil
}

func (p *Provider) Generate(ctx context.Context, systemPrompt, userPrompt string, opts ai.GenerateOptions) (string, error) {
	text, _, err := p.GenerateWithUsage(ctx, systemPrompt, userPrompt, opts)
	return text, err
}

func (p *Provider) GenerateWithUsage(ctx context.Context, systemPrompt, userPrompt string, opts ai.GenerateOptions) (string, *models.TokenUsage, error) {
	messages := make([]*schema.Message, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, schema.SystemMessage(systemPrompt))
	}
	messages = append(messages, schema.UserMessage(userPrompt))

	callOpts := []model.Option{model.WithTemperature(opts.Temperature)}
	if opts.MaxOutputTokens > 0 {
		callOpts = append(callOpts, model.WithMaxTokens(opts.MaxOutputTokens))
	}

	msg, err := p.chat.Generate(ctx, messages, callOpts...)
	if err != nil {
		logger.Error(ctx, "openai API call failed", err, "model", p.model)
		return "", nil, classifyError(err)
	}

	usage := extractUsage(msg)
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", usage, apperrors.ErrAIGeneration.WithContext("reason", "empty response")
	}
	return msg.Content, usage, nil
}

func extractUsage(msg *schema.Message) *models.TokenUsage {
	if msg == nil || msg.ResponseMeta == nil || msg.ResponseMeta.Usage == nil {
		return nil
	}
	u := msg.ResponseMeta.Usage
	return &models.TokenUsage{
		InputTokens:  u.PromptTokens,
		OutputTokens: u.CompletionTokens,
		TotalTokens:  u.TotalTokens,
	}
}

func classifyError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	errMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errMsg, "429"),
		strings.Contains(errMsg, "rate limit"),
		strings.Contains(errMsg, "quota"):
		return apperrors.ErrQuotaExceeded.WithError(err)
	case strings.Contains(errMsg, "401"),
		strings.Contains(errMsg, "invalid api key"),
		strings.Contains(errMsg, "incorrect api key"):
		return apperrors.ErrAPIKeyInvalid.WithError(err)
	}
	return apperrors.ErrAIGeneration.WithError(err)
}
