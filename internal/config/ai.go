package config

import "slices"

type AI string

const (
	AIGemini AI = "gemini"
	AIOpenAI AI = "openai"
)

type Model string

const (
	ModelGeminiV25Flash     Model = "gemini-2.5-flash"
	ModelGeminiV25Pro       Model = "gemini-2.5-pro"
	ModelGeminiV25FlashLite Model = "gemini-2.5-flash-lite"
	ModelGeminiV3Flash      Model = "gemini-3-flash-preview"

	ModelGPTV4oMini Model = "gpt-4o-mini"
	ModelGPTV4o     Model = "gpt-4o"
	ModelGPTV41     Model = "gpt-4.1"
	ModelGPTV41Mini Model = "gpt-4.1-mini"
)

func SupportedAIs() []AI {
	return []AI{
		AIGemini,
		AIOpenAI,
	}
}

func IsSupportedAI(ai AI) bool {
	return slices.Contains(SupportedAIs(), ai)
}

// ModelsForAI lists the known models of a provider, default first.
func ModelsForAI(ai AI) []Model {
	switch ai {
	case AIGemini:
		return []Model{
			ModelGeminiV25Flash,
			ModelGeminiV25Pro,
			ModelGeminiV25FlashLite,
			ModelGeminiV3Flash,
		}
	case AIOpenAI:
		return []Model{
			ModelGPTV4oMini,
			ModelGPTV4o,
			ModelGPTV41,
			ModelGPTV41Mini,
		}
	default:
		return []Model{}
	}
}

func DefaultModelForAI(ai AI) Model {
	models := ModelsForAI(ai)
	if len(models) == 0 {
		return ""
	}
	return models[0]
}

// APIKeyEnvVar is the environment variable checked first for a provider key.
func APIKeyEnvVar(ai AI) string {
	switch ai {
	case AIGemini:
		return "GEMINI_API_KEY"
	case AIOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}
