// Package server is the composition root: it opens the store, builds the
// services and handlers, mounts the routes and runs the HTTP server with
// graceful shutdown.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/sakif/portfolio/internal/asset"
	"github.com/sakif/portfolio/internal/auth"
	"github.com/sakif/portfolio/internal/config"
	"github.com/sakif/portfolio/internal/handler"
	"github.com/sakif/portfolio/internal/middleware"
	"github.com/sakif/portfolio/internal/repository"
	"github.com/sakif/portfolio/internal/repository/memory"
	"github.com/sakif/portfolio/internal/repository/sqlstore"
	"github.com/sakif/portfolio/internal/service"
	"github.com/sakif/portfolio/internal/session"
	"github.com/sakif/portfolio/web"
)

// Server owns the router and every resource that must be closed on
// shutdown.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	closers []io.Closer
}

// New wires the whole application from cfg.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, closer, err := OpenStore(cfg.Store, logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
	}
	if closer != nil {
		s.closers = append(s.closers, closer)
	}

	uploader, err := NewUploader(cfg.Assets, logger)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating uploader: %w", err)
	}

	limiter := s.newLimiter()

	if err := s.setupRoutes(store, uploader, limiter); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// OpenStore opens the configured document store. The returned closer is nil
// for the in-memory store.
func OpenStore(cfg config.StoreConfig, logger *slog.Logger) (repository.ContentStore, io.Closer, error) {
	switch cfg.Driver {
	case "memory":
		logger.Warn("using in-memory store, content is lost on restart")
		return memory.New(), nil, nil
	case "mysql":
		db, err := sqlstore.OpenMySQL(cfg.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		return db, db, nil
	default:
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("creating database directory %s: %w", dir, err)
			}
		}
		db, err := sqlstore.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		return db, db, nil
	}
}

// NewUploader builds the configured asset host client.
func NewUploader(cfg config.AssetsConfig, logger *slog.Logger) (asset.Uploader, error) {
	switch cfg.Provider {
	case "cloudinary":
		return asset.NewCloudinary(cfg.CloudinaryURL, cfg.Folder, logger)
	case "minio":
		m := cfg.MinIO
		return asset.NewMinIO(asset.MinIOConfig{
			Endpoint:         m.Endpoint,
			AccessKeyID:      m.AccessKeyID,
			SecretAccessKey:  m.SecretAccessKey,
			UseSSL:           m.UseSSL,
			Region:           m.Region,
			Bucket:           m.Bucket,
			PublicBaseURL:    m.PublicBaseURL,
			AutoCreateBucket: m.CreateBucket,
			Folder:           cfg.Folder,
		}, logger)
	default:
		logger.Warn("no asset provider configured, uploads will fail")
		return asset.Disabled{}, nil
	}
}

// newLimiter returns nil, which allows every attempt, when Redis is not
// configured.
func (s *Server) newLimiter() *auth.LoginLimiter {
	if s.config.Redis.Addr == "" {
		return nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     s.config.Redis.Addr,
		Password: s.config.Redis.Password,
		DB:       s.config.Redis.DB,
	})
	s.closers = append(s.closers, rdb)
	return auth.NewLoginLimiter(rdb, s.config.Admin.LoginLimit, s.config.Admin.LoginWindow, s.logger)
}

// setupRoutes builds the service graph and mounts:
//
//	GET    /                       public page
//	GET    /admin                  admin page
//	GET    /api/{section}          public JSON sections
//	POST   /api/admin/login        password gate
//	POST   /api/upload             raw upload (session required)
//	*      /api/admin/...          editor operations (session required)
//	GET    /metrics, /healthz, /static/*
func (s *Server) setupRoutes(store repository.ContentStore, uploader asset.Uploader, limiter *auth.LoginLimiter) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics)
	s.router.Use(chimiddleware.Recoverer)

	secret := s.config.Admin.SessionSecret
	if secret == "" {
		var err error
		if secret, err = randomSecret(); err != nil {
			return err
		}
		s.logger.Info("no session secret configured, generated one for this process")
	}
	tokens, err := auth.NewTokenService(secret, s.config.Admin.SessionTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	content := service.NewContentService(store, s.logger)

	passwords := auth.NewPasswordService()
	gate := service.NewSessionGate(content, passwords, s.logger,
		service.WithDefaultPassword(s.config.Admin.DefaultPassword),
		service.WithHashedPasswords(s.config.Admin.HashPasswords),
	)
	sessions := session.NewStore(tokens, func() *service.Editor {
		return service.NewEditor(content, gate, uploader, s.logger)
	}, s.logger)

	templates := web.Templates(s.config.Web.TemplateDir)
	public, err := handler.NewPublicHandler(content, templates, s.logger)
	if err != nil {
		return fmt.Errorf("creating public handler: %w", err)
	}
	admin, err := handler.NewAdminHandler(gate, sessions, limiter, templates, s.logger)
	if err != nil {
		return fmt.Errorf("creating admin handler: %w", err)
	}
	uploads := handler.NewUploadHandler(uploader, s.logger)

	fileServer := http.FileServer(http.FS(web.Static(s.config.Web.StaticDir)))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))
	s.router.Handle("/metrics", promhttp.Handler())
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Get("/", public.HandleIndex)
	s.router.Get("/admin", admin.HandlePage)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/hero", public.HandleHero)
		r.Get("/certificates", public.HandleCertificates)
		r.Get("/experience", public.HandleExperience)
		r.Get("/cv", public.HandleCV)
		r.Get("/footer", public.HandleFooter)

		r.Post("/admin/login", admin.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(session.RequireSession(sessions))

			r.Post("/upload", uploads.HandleUpload)

			r.Route("/admin", func(r chi.Router) {
				r.Post("/logout", admin.HandleLogout)
				r.Get("/state", admin.HandleState)
				r.Put("/hero", admin.HandleSaveHero)
				r.Post("/hero/image", admin.HandleHeroImage)
				r.Put("/footer", admin.HandleSaveFooter)
				r.Put("/cv", admin.HandleSaveCV)
				r.Post("/cv/file", admin.HandleCVFile)
				r.Put("/security", admin.HandleChangePassword)
				r.Post("/certificates/{id}/image", admin.HandleCertificateImage)
				r.Route("/certificates", admin.ItemRoutes(service.KindCertificate))
				r.Route("/experience", admin.ItemRoutes(service.KindExperience))
			})
		})
	})

	return nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the store and the Redis client.
func (s *Server) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests for up
// to 30 seconds and closes every resource.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("store", s.config.Store.Driver),
			slog.String("assets", s.config.Assets.Provider),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
