// Command server runs the pforte authentication boundary.
//
// Configuration is layered: built-in defaults, a YAML config file
// (-config flag, PFORTE_CONFIG, ./config.yaml, /etc/pforte/config.yaml),
// then PFORTE_* environment variable overrides. See pkg/config.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/pforte-dev/pforte/pkg/auth"
	"github.com/pforte-dev/pforte/pkg/auth/cookie"
	"github.com/pforte-dev/pforte/pkg/auth/peer"
	"github.com/pforte-dev/pforte/pkg/auth/token"
	"github.com/pforte-dev/pforte/pkg/config"
	"github.com/pforte-dev/pforte/pkg/debug"
	"github.com/pforte-dev/pforte/pkg/directory"
	"github.com/pforte-dev/pforte/pkg/directory/memory"
	"github.com/pforte-dev/pforte/pkg/directory/postgres"
	"github.com/pforte-dev/pforte/pkg/server"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	debug.Init(cfg.Observability.Logging.Debug, cfg.Observability.Logging.Level)

	refreshTTL, err := cfg.Tokens.RefreshTTL()
	if err != nil {
		return fmt.Errorf("parsing refresh lifetime: %w", err)
	}

	codec, err := token.New(token.Config{
		AccessSecret:  []byte(cfg.Tokens.AccessSecret),
		RefreshSecret: []byte(cfg.Tokens.RefreshSecret),
		AccessTTL:     cfg.Tokens.AccessTTL,
		RefreshTTL:    refreshTTL,
	})
	if err != nil {
		return fmt.Errorf("creating token codec: %w", err)
	}

	jar := cookie.Jar{
		Production: cfg.Server.Production,
		Domain:     cfg.Server.DashboardDomain,
		MaxAge:     refreshTTL,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dir, cleanup, err := buildDirectory(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	defer cleanup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.New(cfg, dir, codec, jar),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in background.
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting",
			"port", cfg.Server.Port,
			"production", cfg.Server.Production,
			"directory", cfg.Directory.Type,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error.
	select {
	case <-ctx.Done():
		slog.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// buildDirectory constructs the configured principal store. The memory
// directory is seeded with a development admin account.
func buildDirectory(ctx context.Context, cfg *config.Config) (directory.Directory, func(), error) {
	peers := make([]peer.Credential, 0, len(cfg.Trust.Peers))
	for _, p := range cfg.Trust.Peers {
		peers = append(peers, peer.Credential{IP: p.IP, Token: p.Token})
	}

	switch cfg.Directory.Type {
	case "postgres":
		dir, err := postgres.New(ctx, postgres.Config{
			DSN:            cfg.Directory.Postgres.DSN,
			MaxConns:       cfg.Directory.Postgres.MaxConns,
			MigrateOnStart: cfg.Directory.Postgres.MigrateOnStart,
			Peers:          peers,
		})
		if err != nil {
			return nil, nil, err
		}
		slog.Info("directory enabled", "type", "postgres")
		return dir, dir.Close, nil

	default:
		dir, err := memory.New(
			[]memory.RoleSeed{
				{
					Role:        auth.Role{ID: uuid.NewString(), Name: "admin", Color: "#d32f2f"},
					Permissions: directory.AllPermissions(),
				},
				{
					Role: auth.Role{ID: uuid.NewString(), Name: "user", Color: "#1976d2"},
				},
			},
			[]memory.User{
				{
					Principal: auth.Principal{
						FullName: "Development Admin",
						Username: "admin",
						Email:    "admin@localhost",
					},
					Password: "admin",
					RoleName: "admin",
				},
			},
			peers,
		)
		if err != nil {
			return nil, nil, err
		}
		slog.Warn("using in-memory directory with development seed account")
		return dir, func() {}, nil
	}
}
