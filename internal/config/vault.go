package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"skillpulse/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	// Secret paths
	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets defines where to find secrets in Vault
type VaultSecrets struct {
	// AIKey is the KVv2 path of the secret holding the model API key
	// under the "apiKey" field.
	AIKey string `mapstructure:"aiKey"`
}

// VaultClient wraps the Vault API client
type VaultClient struct {
	client *api.Client
	config VaultConfig
}

// NewVaultClient creates a new Vault client from configuration.
// Returns (nil, nil) when Vault integration is disabled.
func NewVaultClient(config VaultConfig) (*VaultClient, error) {
	if !config.Enabled {
		return nil, nil
	}

	vaultConfig := api.DefaultConfig()
	if config.Address != "" {
		vaultConfig.Address = config.Address
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	token, err := resolveVaultToken(config)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to vault: %w", err)
	}
	log.Printf("[CONFIG] Connected to Vault at %s (version %s, sealed=%t)",
		vaultConfig.Address, health.Version, health.Sealed)

	return &VaultClient{client: client, config: config}, nil
}

// resolveVaultToken resolves the Vault token from config or file
func resolveVaultToken(config VaultConfig) (string, error) {
	token := config.Token

	if token == "" && config.TokenFile != "" {
		tokenBytes, err := os.ReadFile(config.TokenFile)
		if err != nil {
			return "", fmt.Errorf("failed to read vault token file: %w", err)
		}
		token = strings.TrimSpace(string(tokenBytes))
	}

	if token == "" {
		return "", fmt.Errorf("vault token is required when vault is enabled")
	}

	return token, nil
}

// GetSecretField retrieves a single string field from a Vault KVv2 secret.
func (vc *VaultClient) GetSecretField(path, field string) (string, error) {
	if vc == nil {
		return "", fmt.Errorf("vault client not initialized")
	}

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret from vault path %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("no secret found at vault path %s", path)
	}

	// KVv2 responses nest the payload under a "data" key
	data := secret.Data
	if nested, ok := secret.Data["data"].(map[string]any); ok {
		data = nested
	}

	value, ok := data[field].(string)
	if !ok || value == "" {
		return "", fmt.Errorf("field %q not found in secret at %s", field, path)
	}

	return value, nil
}

// secretSource is the slice of the Vault client secret resolution needs
type secretSource interface {
	GetSecretField(path, field string) (string, error)
}

// resolveVaultSecrets overrides config values with secrets from Vault.
// Vault values take precedence over file and environment configuration.
func (c *Config) resolveVaultSecrets() error {
	if !c.Vault.Enabled {
		return nil
	}

	vc, err := NewVaultClient(c.Vault)
	if err != nil {
		return err
	}

	return c.applyVaultSecrets(vc)
}

// applyVaultSecrets copies resolved secret values into the config
func (c *Config) applyVaultSecrets(source secretSource) error {
	if c.Vault.Secrets.AIKey != "" {
		apiKey, err := source.GetSecretField(c.Vault.Secrets.AIKey, "apiKey")
		if err != nil {
			return errors.NewConfigError(errors.ErrCodeMissingAPIKey,
				fmt.Sprintf("Failed to resolve AI API key from vault path %s", c.Vault.Secrets.AIKey), err)
		}
		c.AI.APIKey = apiKey
		log.Println("[CONFIG] AI API key resolved from Vault")
	}

	return nil
}
