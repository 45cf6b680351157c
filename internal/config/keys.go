package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/zalando/go-keyring"

	apperrors "github.com/thomas-vilte/commitlens/internal/errors"
)

const keyringService = "commitlens"

// KeyStore keeps provider API keys in the OS keyring.
type KeyStore struct {
	service string
}

func NewKeyStore() *KeyStore {
	return &KeyStore{service: keyringService}
}

func (k *KeyStore) Save(provider AI, apiKey string) error {
	if strings.TrimSpace(apiKey) == "" {
		return apperrors.ErrAPIKeyMissing.WithContext("provider", string(provider))
	}
	if err := keyring.Set(k.service, string(provider), apiKey); err != nil {
		return apperrors.ErrKeyring.WithError(err)
	}
	return nil
}

// Get returns the stored key, or "" when none is stored.
func (k *KeyStore) Get(provider AI) (string, error) {
	key, err := keyring.Get(k.service, string(provider))
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", apperrors.ErrKeyring.WithError(err)
	}
	return key, nil
}

func (k *KeyStore) Delete(provider AI) error {
	err := keyring.Delete(k.service, string(provider))
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return apperrors.ErrKeyring.WithError(err)
	}
	return nil
}

// LoadEnv loads a .env file from the working directory when present.
func LoadEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		return nil
	}
	return godotenv.Load()
}

// Sources an API key can be resolved from, in lookup order.
const (
	KeySourceEnv     = "env"
	KeySourceConfig  = "config"
	KeySourceKeyring = "keyring"
)

// ResolveAPIKey looks up the key of the active provider in the environment,
// then in the config file, then in the OS keyring.
func ResolveAPIKey(cfg *Config, store *KeyStore) (string, error) {
	provider := cfg.ActiveProvider

	key, _, err := LookupAPIKey(cfg, store, provider)
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", apperrors.ErrAPIKeyMissing.
			WithContext("provider", string(provider)).
			WithSuggestion("Run 'commitlens config set-key " + string(provider) + "' or set " + APIKeyEnvVar(provider))
	}
	return key, nil
}

// LookupAPIKey returns the key for provider and where it was found. An empty
// key with a nil error means no source has one.
func LookupAPIKey(cfg *Config, store *KeyStore, provider AI) (key, source string, err error) {
	if env := APIKeyEnvVar(provider); env != "" {
		if key := strings.TrimSpace(os.Getenv(env)); key != "" {
			return key, KeySourceEnv, nil
		}
	}

	if key := strings.TrimSpace(cfg.Providers[provider].APIKey); key != "" {
		return key, KeySourceConfig, nil
	}

	if store != nil {
		key, err := store.Get(provider)
		if err != nil {
			return "", "", err
		}
		if key != "" {
			return key, KeySourceKeyring, nil
		}
	}
	return "", "", nil
}

// MaskKey hides all but the last four characters of key.
func MaskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", 8) + key[len(key)-4:]
}
