// ABOUTME: Entry point for jardin-gateway, the conversation message bus
// ABOUTME: Subcommands serve the bus, check health, mint tokens and create conversations

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/2389/jardin-gateway/internal/auth"
	"github.com/2389/jardin-gateway/internal/config"
	"github.com/2389/jardin-gateway/internal/gateway"
	"github.com/2389/jardin-gateway/internal/store"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
    _               _ _
   (_) __ _ _ __ __| (_)_ __
   | |/ _' | '__/ _' | | '_ \
   | | (_| | | | (_| | | | | |
  _/ |\__,_|_|  \__,_|_|_| |_|
 |__/
`

// getConfigPath returns the path to the gateway config file.
// Priority: JARDIN_CONFIG env var > XDG_CONFIG_HOME/jardin/gateway.yaml > ~/.config/jardin/gateway.yaml
func getConfigPath() string {
	if envPath := os.Getenv("JARDIN_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "jardin", "gateway.yaml")
}

func printUsage() {
	fmt.Println("Usage: jardin-gateway <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve                                   Start the gateway server")
	fmt.Println("  health                                  Check gateway health")
	fmt.Println("  token --user ID [--ttl 720h]            Mint a session token for a user")
	fmt.Println("  conversation --cliente ID --jardinero ID  Create a conversation")
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx)
	case "health":
		err = runHealth(ctx)
	case "token":
		err = runToken(os.Args[2:])
	case "conversation":
		err = runConversation(ctx, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	configPath := getConfigPath()

	cyan := color.New(color.FgCyan)
	color.New(color.FgGreen).Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging, os.Stdout)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Path)
	if cfg.Tailscale.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Tailscale: ")
		cyan.Print(cfg.Tailscale.Hostname)
		if cfg.Tailscale.Funnel {
			yellow.Print(" [funnel]")
		}
		if cfg.Tailscale.Ephemeral {
			gray.Print(" (ephemeral)")
		}
		fmt.Println()
	} else {
		green.Print("    ▶ ")
		fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	}
	fmt.Println()

	logger.Info("starting jardin-gateway",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"tailscale", cfg.Tailscale.Enabled,
	)

	gw, err := gateway.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("creating gateway: %w", err)
	}

	return gw.Run(ctx)
}

// healthURL returns the address the health subcommand probes.
func healthURL(cfg *config.Config) string {
	if cfg.Tailscale.Enabled {
		return fmt.Sprintf("http://%s/health", cfg.Tailscale.Hostname)
	}
	addr := cfg.Server.HTTPAddr
	if strings.HasPrefix(addr, ":") || strings.HasPrefix(addr, "0.0.0.0:") {
		addr = "localhost:" + addr[strings.LastIndex(addr, ":")+1:]
	}
	return fmt.Sprintf("http://%s/health", addr)
}

func runHealth(ctx context.Context) error {
	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL(cfg), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}

func runToken(args []string) error {
	flags, err := parseFlags(args, "user", "ttl")
	if err != nil {
		return err
	}
	userID, err := requireID(flags, "user")
	if err != nil {
		return err
	}

	ttl := 30 * 24 * time.Hour
	if raw, ok := flags["ttl"]; ok {
		ttl, err = time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return fmt.Errorf("--ttl must be a positive duration, got %q", raw)
		}
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	token, err := mintToken(cfg.Auth.JWTSecret, userID, ttl)
	if err != nil {
		return err
	}

	fmt.Println(token)
	return nil
}

func mintToken(secret string, userID int64, ttl time.Duration) (string, error) {
	verifier, err := auth.NewJWTVerifier([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("creating verifier: %w", err)
	}
	token, err := verifier.Generate(userID, ttl)
	if err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return token, nil
}

func runConversation(ctx context.Context, args []string) error {
	flags, err := parseFlags(args, "cliente", "jardinero")
	if err != nil {
		return err
	}
	clienteID, err := requireID(flags, "cliente")
	if err != nil {
		return err
	}
	jardineroID, err := requireID(flags, "jardinero")
	if err != nil {
		return err
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	s, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	conv, err := createConversation(ctx, s, clienteID, jardineroID)
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	green.Print("✓ ")
	fmt.Printf("Conversation %d created (cliente %d, jardinero %d)\n", conv.ID, conv.ClienteID, conv.JardineroID)
	return nil
}

func createConversation(ctx context.Context, s store.Store, clienteID, jardineroID int64) (*store.Conversation, error) {
	if clienteID == jardineroID {
		return nil, fmt.Errorf("--cliente and --jardinero must differ")
	}
	conv := &store.Conversation{ClienteID: clienteID, JardineroID: jardineroID}
	if err := s.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	return conv, nil
}
