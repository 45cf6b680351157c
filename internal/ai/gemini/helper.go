package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/thomas-vilte/commitlens/internal/ai"
	apperrors "github.com/thomas-vilte/commitlens/internal/errors"
	"github.com/thomas-vilte/commitlens/internal/models"
)

// extractUsage extracts usage metadata from the Gemini response
func extractUsage(resp *genai.GenerateContentResponse) *models.TokenUsage {
	if resp == nil || resp.UsageMetadata == nil {
		return nil
	}
	return &models.TokenUsage{
		InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
		OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		TotalTokens:  int(resp.UsageMetadata.TotalTokenCount),
	}
}

// GetGenerateConfig maps generation options onto a Gemini request config,
// enabling thinking mode for models that support it.
func GetGenerateConfig(modelName, systemPrompt string, opts ai.GenerateOptions) *genai.GenerateContentConfig {
	temperature := opts.Temperature
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(opts.MaxOutputTokens),
	}

	if systemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	if opts.Format == ai.FormatJSON {
		config.ResponseMIMEType = "application/json"
	}

	if strings.HasPrefix(modelName, "gemini-3") {
		config.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingLevel:   genai.ThinkingLevelHigh,
		}
	}

	return config
}

// formatResponse concatenates the text parts of every candidate, skipping
// thought parts.
func formatResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	var formattedContent strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil || part.Thought || part.Text == "" {
				continue
			}
			formattedContent.WriteString(part.Text)
		}
	}
	return formattedContent.String()
}

// classifyError maps Gemini client failures onto the application taxonomy.
func classifyError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			return apperrors.ErrQuotaExceeded.WithError(err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return apperrors.ErrAPIKeyInvalid.WithError(err)
		}
	}

	errMsg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errMsg, "quota"),
		strings.Contains(errMsg, "rate limit"),
		strings.Contains(errMsg, "resource exhausted"):
		return apperrors.ErrQuotaExceeded.WithError(err)
	case strings.Contains(errMsg, "api key"),
		strings.Contains(errMsg, "unauthorized"),
		strings.Contains(errMsg, "permission denied"):
		return apperrors.ErrAPIKeyInvalid.WithError(err)
	}

	return apperrors.ErrAIGeneration.WithError(err)
}
