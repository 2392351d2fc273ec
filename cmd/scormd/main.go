package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/mind-engage/web2scorm/internal/api/http"
	auth "github.com/mind-engage/web2scorm/internal/auth/middleware"
	"github.com/mind-engage/web2scorm/internal/builds"
	"github.com/mind-engage/web2scorm/internal/cache"
	"github.com/mind-engage/web2scorm/internal/config"
	"github.com/mind-engage/web2scorm/internal/db"
	"github.com/mind-engage/web2scorm/internal/logger"
	"github.com/mind-engage/web2scorm/internal/scorm"
	"github.com/mind-engage/web2scorm/internal/storage"
	syncx "github.com/mind-engage/web2scorm/internal/sync"
)

func main() {
	cfg := config.FromEnv()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatal("db open failed", "driver", cfg.DBDriver, "error", err)
	}
	defer dbh.Close()

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatal("blob store", "path", cfg.BlobBasePath, "error", err)
	}

	svc := builds.NewService(scorm.Options{InlineAssetMaxBytes: cfg.InlineAssetMaxBytes}, builds.NewSQLStore(dbh), bs, log)
	svc.Events = syncx.NewEventRepo(dbh)

	ready := map[string]api.Check{"db": dbh.PingContext}

	// --- Artifact cache (optional) ---
	if cfg.CacheURL != "" {
		c, err := cache.New(ctx, cfg.CacheURL)
		if err != nil {
			log.Warn("cache disabled", "error", err)
		} else {
			defer c.Close()
			svc.Cache = cache.NewArchives(c, time.Duration(cfg.CacheTTLSec)*time.Second)
			ready["cache"] = c.HealthCheck
		}
	}

	schema, err := api.RecordSchema()
	if err != nil {
		log.Fatal("record schema", "error", err)
	}

	// --- Auth (local JWT) ---
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, log.Middleware, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition", "X-Package-ID", "X-Package-Digest"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(authSvc, auth.Credentials{
			AdminUser:     cfg.AdminUser,
			AdminPassHash: cfg.AdminPassHash,
			DevLogin:      cfg.Mode == config.ModeOffline,
		}))
	}

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Route("/packages", func(pk chi.Router) {
			api.MountPackages(pk, svc, schema, api.Limits{
				MaxRequestBytes: cfg.MaxRequestBytes,
				MaxLogoBytes:    cfg.MaxLogoBytes,
			})
		})
	})

	r.Get("/healthz", api.HealthHandler())
	r.Get("/readyz", api.ReadyHandler(ready))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go func() {
		log.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "db", cfg.DBDriver, "cache", cfg.CacheURL != "")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-sigCtx.Done()
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
}
