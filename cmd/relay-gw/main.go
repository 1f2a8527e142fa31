package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kestrelhq/relay-gw/internal/api"
	"github.com/kestrelhq/relay-gw/internal/config"
	"github.com/kestrelhq/relay-gw/internal/events"
	"github.com/kestrelhq/relay-gw/internal/log"
	"github.com/kestrelhq/relay-gw/internal/secrets"
	"github.com/kestrelhq/relay-gw/internal/storage"
	"github.com/kestrelhq/relay-gw/internal/store"
	"github.com/kestrelhq/relay-gw/internal/tui/watch"
	"github.com/kestrelhq/relay-gw/internal/webhook"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "start":
		os.Exit(runStart(args))
	case "watch":
		os.Exit(runWatch(args))
	case "secret":
		os.Exit(runSecret(args))
	case "config":
		os.Exit(runConfig(args))
	case "version":
		fmt.Printf("relay-gw version %s\n", version)
		os.Exit(0)
	case "help", "--help", "-h":
		printUsage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`relay-gw - Webhook-to-workflow gateway

Usage:
  relay-gw start [--config config.yaml]   Run the gateway
  relay-gw watch [--api URL] [--key KEY]  Live delivery monitor
  relay-gw secret new                     Generate a webhook secret
  relay-gw config check [--config PATH]   Validate configuration
  relay-gw version                        Print version
  relay-gw help                           Show this help
`)
}

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to config file")
	_ = fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("main")
	logger.Info("starting", "service", cfg.Service.Name, "version", version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := storage.OpenSQLite(ctx, cfg.State.Path)
	if err != nil {
		logger.Error("failed to open state database", "error", err)
		return 1
	}
	defer db.Close()

	st := store.New(db)

	if cfg.Seed != "" {
		if err := applySeed(ctx, cfg.Seed, st); err != nil {
			logger.Error("failed to apply seed", "error", err)
			return 1
		}
	}

	hub := events.NewHub(cfg.Service.HubCapacity)
	processor := webhook.NewProcessor(st, hub, log.WithComponent("processor"))

	ingress := webhook.NewServer(webhook.Config{
		Listen:      cfg.Ingress.Listen,
		MaxBodySize: cfg.Ingress.MaxBodySize,
	}, processor, log.WithComponent("ingress"))

	errCh := make(chan error, 2)
	go func() {
		if err := ingress.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("ingress: %w", err)
		}
	}()

	if cfg.API.Enabled {
		admin := api.New(api.Config{
			Listen: cfg.API.Listen,
			APIKey: cfg.API.APIKey,
		}, st, hub, log.WithComponent("api"))
		go func() {
			if err := admin.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("api: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown complete")
		return 0
	case err := <-errCh:
		logger.Error("server failed", "error", err)
		return 1
	}
}

// applySeed creates seed definitions and webhooks that do not exist yet.
// Existing records are left untouched so operator edits survive restarts.
func applySeed(ctx context.Context, path string, st *store.Store) error {
	seed, err := config.LoadSeed(path)
	if err != nil {
		return err
	}

	for _, def := range seed.WorkflowDefinitions {
		if def.ID != "" {
			if _, err := st.GetDefinition(ctx, def.ID); err == nil {
				continue
			} else if !errors.Is(err, store.ErrDefinitionNotFound) {
				return err
			}
		}
		d := &store.WorkflowDefinition{ID: def.ID, Name: def.Name, Description: def.Description}
		if err := st.CreateDefinition(ctx, d); err != nil {
			return err
		}
	}

	for _, wh := range seed.Webhooks {
		if wh.ID != "" {
			if _, err := st.GetWebhook(ctx, wh.ID); err == nil {
				continue
			} else if !errors.Is(err, store.ErrWebhookNotFound) {
				return err
			}
		}
		status := wh.Status
		if status == "" {
			status = store.WebhookActive
		}
		w := &store.Webhook{
			ID:     wh.ID,
			Name:   wh.Name,
			Source: wh.Source,
			Secret: wh.Secret,
			Status: status,
			Config: wh.Config,
		}
		if err := st.CreateWebhook(ctx, w); err != nil {
			return err
		}
	}

	return nil
}

func runWatch(args []string) int {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	apiURL := fs.String("api", "http://127.0.0.1:8081", "admin API base URL")
	apiKey := fs.String("key", os.Getenv("RELAY_GW_API_KEY"), "admin API key")
	_ = fs.Parse(args)

	if *apiKey == "" {
		fmt.Fprintln(os.Stderr, "Error: --key or RELAY_GW_API_KEY is required")
		return 1
	}

	p := tea.NewProgram(watch.New(*apiURL, *apiKey), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func runSecret(args []string) int {
	if len(args) < 1 || args[0] != "new" {
		fmt.Fprintln(os.Stderr, "Usage: relay-gw secret new")
		return 1
	}
	secret, err := secrets.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Println(secret)
	return 0
}

func runConfig(args []string) int {
	if len(args) < 1 || args[0] != "check" {
		fmt.Fprintln(os.Stderr, "Usage: relay-gw config check [--config PATH]")
		return 1
	}

	fs := flag.NewFlagSet("config check", flag.ExitOnError)
	configPath := fs.String("config", "config.yaml", "path to config file")
	_ = fs.Parse(args[1:])

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if cfg.Seed != "" {
		if _, err := config.LoadSeed(cfg.Seed); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	fmt.Printf("OK: %s (ingress %s", cfg.Service.Name, cfg.Ingress.Listen)
	if cfg.API.Enabled {
		fmt.Printf(", api %s", cfg.API.Listen)
	}
	fmt.Println(")")
	return 0
}
