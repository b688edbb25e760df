package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/vault/api"

	"jobmate/offer-service/internal/logging"
)

// VaultConfig points at a KV v2 secret holding the service's API keys.
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	// Mount is the KV v2 engine mount, SecretPath the secret below it.
	Mount      string `mapstructure:"mount"`
	SecretPath string `mapstructure:"secretPath"`
}

// Keys read from the secret. Missing keys leave the env value in place.
const (
	vaultKeyGemini       = "gemini_api_key"
	vaultKeyAdzunaAppID  = "adzuna_app_id"
	vaultKeyAdzunaAppKey = "adzuna_app_key"
)

// LoadVaultSecrets overlays API keys from Vault onto cfg. It is a no-op when
// Vault is disabled.
func LoadVaultSecrets(ctx context.Context, cfg *Config, log *logging.Logger) error {
	vc := cfg.Vault
	if !vc.Enabled {
		return nil
	}

	client, err := newVaultClient(vc)
	if err != nil {
		return err
	}

	secret, err := client.KVv2(vc.Mount).Get(ctx, vc.SecretPath)
	if err != nil {
		return fmt.Errorf("read vault secret %s/%s: %w", vc.Mount, vc.SecretPath, err)
	}

	applied := 0
	apply := func(key string, dst *string) {
		v, ok := secret.Data[key].(string)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		*dst = strings.TrimSpace(v)
		applied++
	}
	apply(vaultKeyGemini, &cfg.Gemini.APIKey)
	apply(vaultKeyAdzunaAppID, &cfg.Adzuna.AppID)
	apply(vaultKeyAdzunaAppKey, &cfg.Adzuna.AppKey)

	version := 0
	if secret.VersionMetadata != nil {
		version = secret.VersionMetadata.Version
	}
	log.Info("vault secrets loaded", "path", vc.Mount+"/"+vc.SecretPath, "keys", applied, "version", version)
	return nil
}

func newVaultClient(vc VaultConfig) (*api.Client, error) {
	conf := api.DefaultConfig()
	if vc.Address != "" {
		conf.Address = vc.Address
	}
	client, err := api.NewClient(conf)
	if err != nil {
		return nil, fmt.Errorf("create vault client: %w", err)
	}
	if vc.Namespace != "" {
		client.SetNamespace(vc.Namespace)
	}

	token, err := vaultToken(vc)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)
	return client, nil
}

// vaultToken prefers an inline token and falls back to the token file.
func vaultToken(vc VaultConfig) (string, error) {
	token := vc.Token
	if token == "" && vc.TokenFile != "" {
		b, err := os.ReadFile(vc.TokenFile)
		if err != nil {
			return "", fmt.Errorf("read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(b))
	}
	if token == "" {
		return "", errors.New("vault token is required when vault is enabled")
	}
	return token, nil
}
