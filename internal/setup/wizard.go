// Package setup holds the first-run configuration wizard, in two
// renditions: a plain prompt sequence and a full-screen TUI.
package setup

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"jiva/internal/config"
)

// Wizard walks the operator through the initial configuration.
type Wizard struct {
	scanner *bufio.Scanner
}

func NewWizard() *Wizard {
	return &Wizard{
		scanner: bufio.NewScanner(os.Stdin),
	}
}

// Run starts the interactive setup process.
func (w *Wizard) Run() (*config.Config, error) {
	fmt.Println("\n🚀 Welcome to Jiva Setup!")
	fmt.Println("Let's connect your WhatsApp number and an AI provider.")
	fmt.Println(strings.Repeat("-", 40))

	cfg := &config.Config{}

	fmt.Println("\n[1/3] WhatsApp Cloud API")
	fmt.Println("A permanent access token is minted in Meta Business Manager;")
	fmt.Println("see docs/GET_PERMANENT_TOKEN.md for the step-by-step guide.")
	cfg.AccessToken = w.ask("Access Token", "")
	cfg.PhoneNumberID = w.ask("Phone Number ID", "")
	cfg.VerifyToken = w.ask("Webhook Verify Token", "jiva-verify")

	fmt.Println("\n[2/3] AI Provider")
	w.askProvider(cfg)
	w.askModel(cfg)
	w.askAPIKey(cfg)

	fmt.Println("\n[3/3] Server")
	cfg.Addr = w.ask("Listen address", ":8000")
	cfg.DBPath = w.ask("Database path", "jiva.db")

	w.summarize(cfg)

	return cfg, nil
}

func (w *Wizard) ask(label, def string) string {
	if def != "" {
		fmt.Printf("%s (default: %s): ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}
	w.scanner.Scan()
	input := strings.TrimSpace(w.scanner.Text())
	if input == "" {
		return def
	}
	return input
}

func (w *Wizard) askProvider(cfg *config.Config) {
	fmt.Println("Select AI Provider:")
	fmt.Println("1) Gemini (Google)")
	fmt.Println("2) Groq")
	fmt.Println("3) OpenAI")
	fmt.Println("4) Ollama (Local)")

	for {
		fmt.Print("Choice (default: 1): ")
		w.scanner.Scan()
		input := strings.TrimSpace(w.scanner.Text())

		switch input {
		case "1", "":
			cfg.Provider = "gemini"
			return
		case "2":
			cfg.Provider = "groq"
			return
		case "3":
			cfg.Provider = "openai"
			return
		case "4":
			cfg.Provider = "ollama"
			cfg.BaseURL = "http://localhost:11434"
			return
		default:
			fmt.Println("❌ Invalid choice. Please select 1-4.")
		}
	}
}

func (w *Wizard) askModel(cfg *config.Config) {
	defaultModel := "gemini-2.0-flash"
	switch cfg.Provider {
	case "groq":
		defaultModel = "llama-3.3-70b-versatile"
	case "openai":
		defaultModel = "gpt-4o-mini"
	case "ollama":
		defaultModel = "llama3.2"
	}
	cfg.Model = w.ask("Model", defaultModel)
}

func (w *Wizard) askAPIKey(cfg *config.Config) {
	if cfg.Provider == "ollama" {
		return
	}
	cfg.APIKey = w.ask("API Key", "")
	if cfg.APIKey == "" {
		fmt.Println("⚠️  No API key entered. Set it later via the provider's environment variable.")
	}
}

func (w *Wizard) summarize(cfg *config.Config) {
	fmt.Println("\n" + strings.Repeat("-", 40))
	fmt.Println("Configuration Summary:")
	fmt.Printf("  Phone Number ID: %s\n", cfg.PhoneNumberID)
	fmt.Printf("  Provider:        %s\n", cfg.Provider)
	fmt.Printf("  Model:           %s\n", cfg.Model)
	fmt.Printf("  Listen address:  %s\n", cfg.Addr)
	fmt.Printf("  Database:        %s\n", cfg.DBPath)
	fmt.Println(strings.Repeat("-", 40))
}
