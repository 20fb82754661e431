// Package config loads authentication and endpoint settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the credentials and API endpoints used to reach GitHub.
// Either Token or the three GitHub App fields must be set; the App takes
// precedence when both are present.
type Config struct {
	// Token is a classic or fine-grained personal access token.
	Token string

	// GitHub App authentication, the recommended method for organization-wide access.
	AppID          int64
	InstallationID int64
	PrivateKeyPath string

	// BaseURL and GraphQLURL override the github.com endpoints for
	// GitHub Enterprise Server installations.
	BaseURL    string
	GraphQLURL string
}

// UseApp reports whether GitHub App authentication is configured.
func (c *Config) UseApp() bool {
	return c.AppID != 0
}

// Load reads the configuration from environment variables. A .env file in
// the working directory is honored when present.
func Load() (*Config, error) {
	// Ignore the error if no .env file exists.
	_ = godotenv.Load()

	cfg := &Config{
		Token:          os.Getenv("GITHUB_TOKEN"),
		PrivateKeyPath: os.Getenv("GITHUB_APP_PRIVATE_KEY_PATH"),
		BaseURL:        os.Getenv("GITHUB_API_URL"),
		GraphQLURL:     os.Getenv("GITHUB_GRAPHQL_URL"),
	}

	var err error
	if cfg.AppID, err = getEnvInt64("GITHUB_APP_ID"); err != nil {
		return nil, err
	}
	if cfg.InstallationID, err = getEnvInt64("GITHUB_APP_INSTALLATION_ID"); err != nil {
		return nil, err
	}

	if cfg.UseApp() {
		if cfg.InstallationID == 0 || cfg.PrivateKeyPath == "" {
			return nil, fmt.Errorf("GITHUB_APP_ID requires GITHUB_APP_INSTALLATION_ID and GITHUB_APP_PRIVATE_KEY_PATH to be set")
		}
		return cfg, nil
	}

	if cfg.Token == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN environment variable is not set")
	}
	return cfg, nil
}

// getEnvInt64 parses an optional integer environment variable, returning 0 when unset.
func getEnvInt64(key string) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return 0, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return parsed, nil
}
