package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSaveAndLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := &Config{
		AccessToken:   "EAAG-test",
		PhoneNumberID: "1234567890",
		VerifyToken:   "hook-secret",
		Provider:      "gemini",
		Model:         "gemini-2.0-flash",
	}
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.AccessToken != cfg.AccessToken || got.PhoneNumberID != cfg.PhoneNumberID {
		t.Fatalf("round trip mismatch: %+v", got)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("config file should be owner-only, got %v", info.Mode().Perm())
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	file := &Config{AccessToken: "from-file", PhoneNumberID: "111", Provider: "gemini"}
	if err := file.SaveToFile(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	t.Setenv("WHATSAPP_ACCESS_TOKEN", "from-env")
	t.Setenv("JIVA_PROVIDER", "groq")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AccessToken != "from-env" {
		t.Fatalf("expected env token to win, got %q", cfg.AccessToken)
	}
	if cfg.Provider != "groq" {
		t.Fatalf("expected env provider to win, got %q", cfg.Provider)
	}
	if cfg.PhoneNumberID != "111" {
		t.Fatalf("expected file phone id to survive, got %q", cfg.PhoneNumberID)
	}
}

func TestDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8000" || cfg.DBPath != "jiva.db" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.HasWhatsAppCredentials() {
		t.Fatal("empty config should not report credentials")
	}
}
