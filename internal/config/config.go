// Package config resolves Jiva's runtime settings. Precedence is
// environment over ~/.jiva/config.json over built-in defaults; a local
// .env file is folded into the environment first.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultPath is where `jiva setup` persists its answers.
const DefaultPath = "~/.jiva/config.json"

// Config carries everything the bot needs to run.
type Config struct {
	// WhatsApp Cloud API credentials. The access token should be a
	// permanent System User token; see docs/GET_PERMANENT_TOKEN.md.
	AccessToken   string `json:"access_token,omitempty"`
	PhoneNumberID string `json:"phone_number_id,omitempty"`
	VerifyToken   string `json:"verify_token,omitempty"`

	// AI settings.
	Provider string `json:"provider"`
	Model    string `json:"model"`
	APIKey   string `json:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty"`
	// FallbackProvider is tried when the primary provider is rate
	// limited or down (e.g. "groq").
	FallbackProvider string `json:"fallback_provider,omitempty"`
	FallbackModel    string `json:"fallback_model,omitempty"`

	// Service settings.
	Addr   string `json:"addr,omitempty"`
	DBPath string `json:"db_path,omitempty"`

	Debug bool `json:"debug,omitempty"`
}

// Load resolves the effective configuration.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Provider: "gemini",
		Model:    "gemini-2.0-flash",
		Addr:     ":8000",
		DBPath:   "jiva.db",
	}

	if path == "" {
		path = DefaultPath
	}
	if fileCfg, err := LoadFromFile(path); err == nil {
		mergeFile(cfg, fileCfg)
	}

	applyEnv(cfg)
	return cfg, nil
}

// LoadFromFile reads a config JSON written by `jiva setup`.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(expandHome(path))
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveToFile persists the config, creating parent directories as needed.
func (c *Config) SaveToFile(path string) error {
	path = expandHome(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	// The file holds credentials; keep it owner-only.
	return os.WriteFile(path, data, 0o600)
}

// HasWhatsAppCredentials reports whether the client can talk to the Cloud
// API at all.
func (c *Config) HasWhatsAppCredentials() bool {
	return c.AccessToken != "" && c.PhoneNumberID != ""
}

func mergeFile(dst, src *Config) {
	if src.AccessToken != "" {
		dst.AccessToken = src.AccessToken
	}
	if src.PhoneNumberID != "" {
		dst.PhoneNumberID = src.PhoneNumberID
	}
	if src.VerifyToken != "" {
		dst.VerifyToken = src.VerifyToken
	}
	if src.Provider != "" {
		dst.Provider = src.Provider
	}
	if src.Model != "" {
		dst.Model = src.Model
	}
	if src.APIKey != "" {
		dst.APIKey = src.APIKey
	}
	if src.BaseURL != "" {
		dst.BaseURL = src.BaseURL
	}
	if src.FallbackProvider != "" {
		dst.FallbackProvider = src.FallbackProvider
	}
	if src.FallbackModel != "" {
		dst.FallbackModel = src.FallbackModel
	}
	if src.Addr != "" {
		dst.Addr = src.Addr
	}
	if src.DBPath != "" {
		dst.DBPath = src.DBPath
	}
	if src.Debug {
		dst.Debug = true
	}
}

func applyEnv(cfg *Config) {
	set := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}

	set(&cfg.AccessToken, "WHATSAPP_ACCESS_TOKEN")
	set(&cfg.PhoneNumberID, "WHATSAPP_PHONE_NUMBER_ID")
	set(&cfg.VerifyToken, "VERIFY_TOKEN")
	set(&cfg.Provider, "JIVA_PROVIDER")
	set(&cfg.Model, "JIVA_MODEL")
	set(&cfg.BaseURL, "JIVA_BASE_URL")
	set(&cfg.FallbackProvider, "JIVA_FALLBACK_PROVIDER")
	set(&cfg.FallbackModel, "JIVA_FALLBACK_MODEL")
	set(&cfg.Addr, "JIVA_ADDR")
	set(&cfg.DBPath, "JIVA_DB_PATH")
	if os.Getenv("JIVA_DEBUG") == "1" {
		cfg.Debug = true
	}

	// Provider API keys are read straight from the environment by the
	// langchaingo adapters; the config key only seeds the matching env
	// var when the operator stored it during setup.
	if cfg.APIKey != "" {
		keyVar := providerKeyVar(cfg.Provider)
		if keyVar != "" && os.Getenv(keyVar) == "" {
			os.Setenv(keyVar, cfg.APIKey)
		}
	}
}

func providerKeyVar(provider string) string {
	switch strings.ToLower(provider) {
	case "gemini":
		return "GOOGLE_API_KEY"
	case "groq":
		return "GROQ_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
