package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eduhub/internal/chat"
	"github.com/eduhub/internal/config"
	"github.com/eduhub/internal/handler"
	"github.com/eduhub/internal/identity"
	"github.com/eduhub/internal/logger"
	"github.com/eduhub/internal/middleware"
	"github.com/eduhub/internal/repository"
	"github.com/eduhub/internal/repository/memstore"
	"github.com/eduhub/internal/startup"
	"github.com/eduhub/internal/storage"
	"github.com/eduhub/internal/storage/memory"
	"github.com/eduhub/internal/validator"
	"github.com/eduhub/migrations"
)

// backends: хранилище чатов, справочники и то, что нужно пинговать в /health.
type backends struct {
	store   chat.Store
	dir     chat.Directory
	catalog chat.Catalog
	health  map[string]handler.Pinger
	close   func()
}

func main() {
	logger.SetPrefix("api")
	migrate := flag.Bool("migrate", false, "run database migrations and exit")
	dev := flag.Bool("dev", false, "start with embedded PostgreSQL and seed demo users (no external DB required)")
	inMemory := flag.Bool("memory", false, "keep chats in process memory (no database)")
	flag.Parse()

	logger.Info("starting API service")
	cfg := config.Load()
	if cfg.LogLevel != "" {
		logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
	}

	var b *backends
	if *inMemory {
		b = memoryBackends()
		logger.Info("in-memory mode: chats are lost on restart")
	} else {
		var embeddedDB *embeddedpostgres.EmbeddedPostgres
		if *dev {
			var err error
			embeddedDB, err = startEmbeddedPostgres(cfg)
			if err != nil {
				logger.Errorf("embedded postgres: %v", err)
				os.Exit(1)
			}
			defer func() {
				logger.Info("stopping embedded postgres...")
				if err := embeddedDB.Stop(); err != nil {
					logger.Errorf("embedded postgres stop: %v", err)
				}
			}()
		}
		pool := connectPostgres(cfg)
		defer pool.Close()

		runMigrations(pool)
		if *migrate && !*dev {
			return
		}
		b = postgresBackends(pool, *dev)
	}
	defer b.close()

	idem := idempotencyStore(cfg)
	defer func() {
		if err := idem.Close(); err != nil {
			logger.Errorf("idempotency store close: %v", err)
		}
	}()
	if p, ok := idem.(handler.Pinger); ok {
		b.health["redis"] = p
	}

	verifier := newVerifier(cfg, *dev || *inMemory)

	svc := chat.NewService(b.store, b.dir, b.catalog, chat.WithIdempotency(idem, cfg.IdempotencyTTL))
	v := validator.New()
	chatH := handler.NewChatHandler(svc, v)
	msgH := handler.NewMessageHandler(svc, v)
	supportH := handler.NewSupportHandler(svc, v)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.RecoverJSON)
	r.Use(chimw.Compress(5))
	r.Use(middleware.RequestLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", handler.IdempotencyKeyHeader, "X-Session-Id", "X-Timestamp", "X-Signature"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", handler.Health(b.health))

	r.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(verifier))
		r.Use(middleware.RateLimit(cfg.RateLimitPerMinute))
		r.Group(handler.Routes(chatH, msgH, supportH))
	})

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	var srvWg sync.WaitGroup
	errCh := make(chan error, 1)
	srvWg.Add(1)
	go func() {
		defer srvWg.Done()
		logger.Infof("server listening on %s", cfg.ServerAddr)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Errorf("server error: %v", err)
			os.Exit(1)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("server shutdown: %v", err)
	}
	srvWg.Wait()
	logger.Info("server stopped")
}

func connectPostgres(cfg *config.Config) *pgxpool.Pool {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL())
	if err != nil {
		logger.Errorf("parse db config: %v", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = int32(cfg.DBMaxConnections())
	poolCfg.MinConns = 2
	return startup.ConnectDBWithRetry(poolCfg, 60*time.Second, "")
}

func postgresBackends(pool *pgxpool.Pool, seed bool) *backends {
	users := repository.NewUserRepository(pool)
	courses := repository.NewCourseRepository(pool)
	if seed {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := seedPostgres(ctx, users, courses); err != nil {
			logger.Errorf("seed dev data: %v", err)
		}
		cancel()
	}
	return &backends{
		store:   repository.NewStore(pool),
		dir:     users,
		catalog: courses,
		health:  map[string]handler.Pinger{"postgres": pool},
		close:   func() {},
	}
}

func memoryBackends() *backends {
	return &backends{
		store:   memstore.New(),
		dir:     memstore.NewDirectory(devUsers...),
		catalog: memstore.NewCatalog(devCourses...),
		health:  map[string]handler.Pinger{},
		close:   func() {},
	}
}

// idempotencyStore: Redis, если задан REDIS_URL, иначе память процесса.
func idempotencyStore(cfg *config.Config) storage.IdempotencyStore {
	if cfg.Redis.URL == "" {
		logger.Info("REDIS_URL not set: idempotency keys kept in memory")
		return memory.New()
	}
	return startup.ConnectRedisWithRetry(cfg.Redis.URL, 30*time.Second, "")
}

// newVerifier: внешний auth-сервис, если задан AUTH_SERVICE_URL, иначе локальная проверка JWT.
// В dev-режимах в лог пишутся токены демо-пользователей.
func newVerifier(cfg *config.Config, printTokens bool) identity.Verifier {
	if cfg.Auth.ServiceURL != "" {
		logger.Infof("identity: auth service %s", cfg.Auth.ServiceURL)
		return identity.NewRemoteVerifier(cfg.Auth.ServiceURL, nil)
	}
	v := identity.NewJWTVerifier(cfg.Auth.JWTSecret)
	if printTokens {
		for _, u := range devUsers {
			tok, err := v.Issue(u.ID, u.Role, 24*time.Hour)
			if err != nil {
				logger.Errorf("issue dev token for %s: %v", u.ID, err)
				continue
			}
			logger.Infof("dev token %s (%s): %s", u.ID, u.Role, tok)
		}
	}
	return v
}

func runMigrations(pool *pgxpool.Pool) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	names, err := migrations.Names()
	if err != nil {
		logger.Errorf("list migrations: %v", err)
		os.Exit(1)
	}
	for _, name := range names {
		data, err := migrations.Files.ReadFile(name)
		if err != nil {
			logger.Errorf("read migration %s: %v", name, err)
			os.Exit(1)
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			logger.Errorf("run migration %s: %v", name, err)
			os.Exit(1)
		}
	}
	logger.Infof("migrations applied: %d", len(names))
}

func startEmbeddedPostgres(cfg *config.Config) (*embeddedpostgres.EmbeddedPostgres, error) {
	const (
		port     = 5432
		user     = "eduhub"
		password = "eduhub_secret"
		database = "eduhub"
	)

	dataDir := filepath.Join(".", ".pgdata")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create pgdata dir: %w", err)
	}

	db := embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(port).
			Username(user).
			Password(password).
			Database(database).
			DataPath(dataDir).
			RuntimePath(filepath.Join(os.TempDir(), "embedded-pg-runtime")),
	)

	logger.Info("starting embedded PostgreSQL...")
	if err := db.Start(); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}

	cfg.Database.URL = fmt.Sprintf(
		"postgres://%s:%s@localhost:%d/%s?sslmode=disable",
		user, password, port, database,
	)
	logger.Infof("embedded PostgreSQL running on port %d", port)
	return db, nil
}
