package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/spf13/cobra"

	"github.com/frahmantamala/issue-tracker/internal"
	"github.com/frahmantamala/issue-tracker/internal/attachment"
	"github.com/frahmantamala/issue-tracker/internal/auth"
	"github.com/frahmantamala/issue-tracker/internal/classifier"
	"github.com/frahmantamala/issue-tracker/internal/core/events"
	"github.com/frahmantamala/issue-tracker/internal/issue"
	"github.com/frahmantamala/issue-tracker/internal/storage"
	"github.com/frahmantamala/issue-tracker/internal/store"
	"github.com/frahmantamala/issue-tracker/internal/transport"
	"github.com/frahmantamala/issue-tracker/internal/transport/rest"
	"github.com/frahmantamala/issue-tracker/internal/transport/ws"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests and the live event feed`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer(cmd.Context())
	},
}

type Dependencies struct {
	Config  *internal.Config
	Storage storage.KV
	Store   *store.Store
	Bus     *events.EventBus
	Router  *chi.Mux
	Logger  *slog.Logger
}

func startHTTPServer(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	deps, err := initializeDependencies(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "storage", deps.Config.Storage.Driver)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			_ = storage.Close(deps.Storage)
			os.Exit(1)
		}
	}

	if err := storage.Close(deps.Storage); err != nil {
		deps.Logger.Error("Storage close error", "error", err)
	}
	deps.Logger.Info("Server stopped")
}

func initializeDependencies(ctx context.Context) (*Dependencies, error) {
	cfg, err := loadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := initLogger(cfg)

	bus := events.NewEventBus(lg)
	s, kv, err := openStore(ctx, cfg, lg, store.WithPublisher(bus))
	if err != nil {
		return nil, err
	}

	clf, err := classifier.New(cfg.Classifier, nil, lg)
	if err != nil {
		_ = storage.Close(kv)
		return nil, fmt.Errorf("failed to build classifier: %w", err)
	}
	lg.Info("classifier ready", "provider", clf.Provider())

	checks := map[string]rest.Check{
		"storage": func(ctx context.Context) error { return storage.Ping(ctx, kv) },
	}

	var uploader attachment.Uploader
	if cfg.Attachments.Enabled() {
		minio, err := attachment.NewMinioUploader(ctx, cfg.Attachments, lg)
		if err != nil {
			_ = storage.Close(kv)
			return nil, fmt.Errorf("failed to connect attachment storage: %w", err)
		}
		uploader = minio
		checks["attachments"] = minio.Ping
	} else {
		lg.Info("attachment uploads disabled")
	}

	base := transport.NewBaseHandler(lg)
	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, rest.Handlers{
		Health:     rest.NewHealthHandler(checks),
		Auth:       auth.NewHandler(base, s),
		Issue:      issue.NewHandler(base, s),
		Classifier: classifier.NewHandler(base, clf, cfg.Classifier.Timeout),
		Attachment: attachment.NewHandler(base, uploader, cfg.Attachments.MaxBytes),
		Feed:       ws.NewFeed(bus, lg, originChecker(cfg.Server.AllowedOrigins)),
	}, cfg.Server.AllowedOrigins, lg)

	return &Dependencies{
		Config:  cfg,
		Storage: kv,
		Store:   s,
		Bus:     bus,
		Router:  router,
		Logger:  lg,
	}, nil
}

// originChecker mirrors the CORS allow list for websocket upgrades.
func originChecker(allowed string) func(r *http.Request) bool {
	allowed = strings.TrimSpace(allowed)
	if allowed == "" || allowed == "*" {
		return nil
	}
	set := map[string]bool{}
	for _, o := range strings.Split(allowed, ",") {
		set[strings.TrimSpace(o)] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}
