package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	flag "github.com/spf13/pflag"

	api "github.com/mind-engage/scholaroute/internal/api/http"
	auth "github.com/mind-engage/scholaroute/internal/auth/middleware"
	"github.com/mind-engage/scholaroute/internal/config"
	"github.com/mind-engage/scholaroute/internal/db"
	"github.com/mind-engage/scholaroute/internal/eventlog"
	"github.com/mind-engage/scholaroute/internal/session"
	"github.com/mind-engage/scholaroute/internal/storage"
)

const shutdownTimeout = 15 * time.Second

func main() {
	envFile := flag.String("env-file", ".env", "dotenv file loaded before reading the environment")
	flag.Parse()

	if err := config.LoadDotEnv(*envFile); err != nil {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", *envFile, err)
		os.Exit(1)
	}
	cfg := config.FromEnv()
	log := cfg.NewLogger(os.Stdout)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer dbh.Close()

	store, closeStore, err := sessionStore(ctx, cfg, dbh)
	if err != nil {
		return err
	}
	defer closeStore()

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		return fmt.Errorf("blob store: %w", err)
	}

	host, _ := os.Hostname()
	events := eventlog.NewEventRepo(dbh, host)
	sessions := session.NewManager(store, log)
	deps := &api.Deps{
		Sessions:       sessions,
		Blobs:          bs,
		Catalog:        api.CatalogFile(cfg.CatalogPath),
		Events:         events,
		Audit:          events,
		Log:            log,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.EnableAuth {
		authSvc := auth.NewAuthService(cfg.HMACSecret)
		r.Post("/auth/login", auth.LoginHandler(authSvc, auth.LoginConfig{
			AdminUser:     cfg.AdminUser,
			AdminPassHash: cfg.AdminPassHash,
			DevLogin:      cfg.EnableDevLogin,
		}))
		api.Mount(r, deps, auth.JWTMiddleware(authSvc), auth.Optional(authSvc))
	} else {
		api.Mount(r, deps, auth.Anonymous, auth.Anonymous)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// in-memory sessions idle longer than the TTL are dropped; persisted
	// snapshots follow the store's own lifetime
	stopSweep := make(chan struct{})
	go func() {
		t := time.NewTicker(sweepInterval(cfg.SessionTTL))
		defer t.Stop()
		for {
			select {
			case <-t.C:
				sessions.ExpireIdle(cfg.SessionTTL)
			case <-stopSweep:
				return
			}
		}
	}()
	defer close(stopSweep)

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening",
			"addr", cfg.HTTPAddr,
			"mode", string(cfg.Mode),
			"db", cfg.DBDriver,
			"session_store", cfg.SessionStore,
			"auth", cfg.EnableAuth)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("shutdown completed")
	return nil
}

// sessionStore picks the snapshot store named by SESSION_STORE. The returned
// func releases any client it opened.
func sessionStore(ctx context.Context, cfg config.Config, dbh *sql.DB) (session.Store, func(), error) {
	noop := func() {}
	switch cfg.SessionStore {
	case config.StoreMemory, "":
		return nil, noop, nil
	case config.StoreSQL:
		return session.NewSQLStore(dbh), noop, nil
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		return session.NewRedisStore(client, cfg.SessionTTL), func() { _ = client.Close() }, nil
	default:
		return nil, noop, fmt.Errorf("unknown SESSION_STORE %q", cfg.SessionStore)
	}
}

func sweepInterval(ttl time.Duration) time.Duration {
	if iv := ttl / 4; iv >= time.Minute {
		return iv
	}
	return time.Minute
}
