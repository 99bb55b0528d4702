package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jiva/internal/bot"
	"jiva/internal/chat"
	"jiva/internal/cleanup"
	"jiva/internal/config"
	"jiva/internal/llm"
	"jiva/internal/logging"
	"jiva/internal/middleware"
	"jiva/internal/reminder"
	"jiva/internal/server"
	"jiva/internal/setup"
	"jiva/internal/store"
	"jiva/internal/whatsapp"
	_ "jiva/middlewares/autoload"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "jiva",
		Short: "Jiva, a WhatsApp health assistant",
		Long: "Jiva answers health questions over WhatsApp, keeps a patient profile,\n" +
			"schedules medication reminders and alerts an emergency contact on SOS.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to the config file")

	root.AddCommand(
		serveCmd(),
		chatCmd(),
		setupCmd(),
		sendCmd(),
		tokenCmd(),
		storageCmd(),
		cleanupCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logging.Init(cfg.Debug)
	return cfg, nil
}

// buildAdapter assembles the provider chain: the configured primary,
// then any configured fallback, then Groq automatically when a key for
// it is present. One provider being rate limited must not silence the
// bot.
func buildAdapter(cfg *config.Config) (chat.Adapter, error) {
	primary, err := llm.NewAdapter(llm.Provider(cfg.Provider), cfg.Model, cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	entries := []llm.Entry{{Name: cfg.Provider, Adapter: primary}}

	fbProvider := cfg.FallbackProvider
	fbModel := cfg.FallbackModel
	if fbProvider == "" && cfg.Provider != string(llm.ProviderGroq) && os.Getenv("GROQ_API_KEY") != "" {
		fbProvider = string(llm.ProviderGroq)
	}
	if fbProvider != "" && fbProvider != cfg.Provider {
		fb, err := llm.NewAdapter(llm.Provider(fbProvider), fbModel, "")
		if err != nil {
			logging.L().Warn("fallback provider unavailable", zap.String("provider", fbProvider), zap.Error(err))
		} else {
			entries = append(entries, llm.Entry{Name: fbProvider, Adapter: fb})
		}
	}

	return llm.NewFallback(entries...)
}

func buildChain(debug bool) *middleware.Chain {
	var w io.Writer
	if debug {
		f, err := os.OpenFile("debug_chain.jsonl", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			w = f
		}
	}
	return middleware.NewChainFromRegistry(w)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server and reminder scheduler",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logging.Sync()
			log := logging.Named("main")

			if !cfg.HasWhatsAppCredentials() {
				return errors.New("WhatsApp credentials missing; run `jiva setup` first")
			}

			wa := whatsapp.New(cfg.AccessToken, cfg.PhoneNumberID)
			if err := wa.ValidateToken(cmd.Context()); err != nil {
				if errors.Is(err, whatsapp.ErrTokenExpired) {
					return fmt.Errorf("%w; mint a permanent token per docs/GET_PERMANENT_TOKEN.md", err)
				}
				log.Warn("token validation failed, continuing anyway", zap.Error(err))
			}

			st, err := store.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer st.Close()

			adapter, err := buildAdapter(cfg)
			if err != nil {
				return err
			}

			b := bot.New(st, wa, adapter, buildChain(cfg.Debug))
			srv := server.New(cfg.Addr, cfg.VerifyToken, b)
			sched := reminder.New(st, wa)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error { return srv.Run(ctx) })
			g.Go(func() error { return sched.Run(ctx) })

			log.Info("jiva is up", zap.String("addr", cfg.Addr), zap.String("provider", cfg.Provider))
			if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to Jiva in the terminal, without WhatsApp",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logging.Sync()

			adapter, err := buildAdapter(cfg)
			if err != nil {
				return err
			}

			service := chat.NewService(adapter,
				chat.WithMiddlewareChain(buildChain(cfg.Debug)),
				chat.WithStreamCallback(func(chunk string) { fmt.Print(chunk) }),
			)

			fmt.Printf("Jiva terminal chat (provider=%s, model=%s)\n", cfg.Provider, cfg.Model)
			fmt.Println("Type /exit to quit, /clear to reset context.")

			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("\nyou> ")
				if !scanner.Scan() {
					return scanner.Err()
				}
				line := strings.TrimSpace(scanner.Text())
				switch line {
				case "":
					continue
				case "/exit":
					return nil
				case "/clear":
					service.Clear()
					fmt.Println("(context cleared)")
					continue
				}

				fmt.Print("jiva> ")
				if _, err := service.Send(cmd.Context(), line); err != nil {
					fmt.Printf("error: %v", err)
				}
				fmt.Println()
			}
		},
	}
}

func setupCmd() *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Interactive first-run configuration",
		RunE: func(_ *cobra.Command, _ []string) error {
			if plain {
				cfg, err := setup.NewWizard().Run()
				if err != nil {
					return err
				}
				if err := cfg.SaveToFile(configPath); err != nil {
					return err
				}
				fmt.Printf("Saved %s\n", configPath)
				return nil
			}
			return setup.RunTUI()
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "use plain prompts instead of the full-screen wizard")
	return cmd
}

func sendCmd() *cobra.Command {
	var to, template string
	cmd := &cobra.Command{
		Use:   "send [message]",
		Short: "Send a test message through the WhatsApp Cloud API",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logging.Sync()
			if to == "" {
				return errors.New("--to is required")
			}

			wa := whatsapp.New(cfg.AccessToken, cfg.PhoneNumberID)

			var id string
			if template != "" {
				id, err = wa.SendTemplate(cmd.Context(), to, template, "en_US")
			} else {
				body := "Hello from Jiva! Your WhatsApp connection works."
				if len(args) == 1 {
					body = args[0]
				}
				id, err = wa.SendText(cmd.Context(), to, body)
			}
			if err != nil {
				return err
			}
			fmt.Printf("sent: %s\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "recipient phone number with country code, digits only")
	cmd.Flags().StringVar(&template, "template", "", "send a pre-approved template instead of free text")
	return cmd
}

func tokenCmd() *cobra.Command {
	parent := &cobra.Command{
		Use:   "token",
		Short: "Access token operations",
	}
	parent.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Verify the WhatsApp access token is still valid",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logging.Sync()

			wa := whatsapp.New(cfg.AccessToken, cfg.PhoneNumberID)
			if err := wa.ValidateToken(cmd.Context()); err != nil {
				if errors.Is(err, whatsapp.ErrTokenExpired) {
					fmt.Println("❌ Token expired or invalid.")
					fmt.Println("Mint a permanent System User token: docs/GET_PERMANENT_TOKEN.md")
					os.Exit(1)
				}
				return err
			}
			fmt.Println("✅ Token is valid.")
			return nil
		},
	})
	return parent
}

func storageCmd() *cobra.Command {
	parent := &cobra.Command{
		Use:   "storage",
		Short: "Local database operations",
	}
	parent.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Smoke-test the local database",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logging.Sync()
			ctx := cmd.Context()

			path := filepath.Join(filepath.Dir(cfg.DBPath), "test_jiva.db")
			st, err := store.Open(path)
			if err != nil {
				return fmt.Errorf("open: %w", err)
			}
			defer st.Close()
			defer os.Remove(path)

			u, err := st.CreateUser(ctx, "10000000000", "Smoke Test")
			if err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			if err := st.SaveMessage(ctx, u.ID, "user", "ping"); err != nil {
				return fmt.Errorf("save message: %w", err)
			}
			msgs, err := st.History(ctx, u.ID, 5)
			if err != nil || len(msgs) != 1 {
				return fmt.Errorf("history: %v (%d messages)", err, len(msgs))
			}

			fmt.Println("✅ Storage is working.")
			return nil
		},
	})
	return parent
}

func cleanupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Remove debug and test artifacts from the working directory",
		RunE: func(_ *cobra.Command, _ []string) error {
			dir, err := os.Getwd()
			if err != nil {
				return err
			}
			cleanup.Run(dir, os.Stdout)
			return nil
		},
	}
}
