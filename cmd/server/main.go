package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/YugenJarwal13/InternalDMS/internal/auth"
	"github.com/YugenJarwal13/InternalDMS/internal/config"
	"github.com/YugenJarwal13/InternalDMS/internal/content"
	"github.com/YugenJarwal13/InternalDMS/internal/handler"
	"github.com/YugenJarwal13/InternalDMS/internal/middleware"
	"github.com/YugenJarwal13/InternalDMS/internal/pathutil"
	"github.com/YugenJarwal13/InternalDMS/internal/repository"
	"github.com/YugenJarwal13/InternalDMS/internal/service"
	serviceAuth "github.com/YugenJarwal13/InternalDMS/internal/service/auth"
	serviceDocsys "github.com/YugenJarwal13/InternalDMS/internal/service/docsystem"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, logCloser, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
		"store", cfg.Store.Backend,
		"content", cfg.Content.Type,
		"root", cfg.Store.Root,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := repository.Open(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to open metadata store: %v", err)
	}
	defer backend.Close()

	normalizer, err := pathutil.NewNormalizer(cfg.Store.Root)
	if err != nil {
		log.Fatalf("Invalid store root: %v", err)
	}
	if err := serviceDocsys.EnsureRoot(ctx, backend.Tree, normalizer.Root()); err != nil {
		log.Fatalf("Failed to create store root: %v", err)
	}

	contentStore, err := content.New(ctx, cfg.Content, logger)
	if err != nil {
		log.Fatalf("Failed to create content store: %v", err)
	}

	// Token verification: locally issued HS256 tokens, an external JWKS, or both
	var (
		issuer    auth.TokenIssuer
		verifiers auth.ChainVerifier
	)
	if cfg.Auth.JWTSecret != "" {
		tokens, err := auth.NewHMACTokens(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL, logger)
		if err != nil {
			log.Fatalf("Failed to create token issuer: %v", err)
		}
		issuer = tokens
		verifiers = append(verifiers, tokens)
	}
	if cfg.Auth.JWKSURL != "" {
		jwks, err := auth.NewJWKSVerifier(ctx, cfg.Auth.JWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWKS verifier: %v", err)
		}
		verifiers = append(verifiers, jwks)
	}
	defer verifiers.Close()

	// Services
	authorizer := serviceAuth.NewTeamAuthorizer(backend.Teams)
	locker := serviceDocsys.NewSubtreeLocker()
	treeService := serviceDocsys.NewTreeService(backend.Tree, contentStore, backend.Activity, backend.Users, backend.Teams, authorizer, locker, normalizer, logger)
	searchService := serviceDocsys.NewSearchService(backend.Tree, backend.Users, authorizer, locker, normalizer, logger)
	userService := service.NewUserService(backend.Users, backend.Teams, issuer, logger)
	teamService := service.NewTeamService(backend.Teams, backend.Users, backend.Activity, treeService, normalizer.Root(), logger)
	activityService := service.NewActivityService(backend.Activity, backend.Tree, logger)

	logger.Info("services initialized")

	router := handler.NewRouter(&handler.Handlers{
		Authorize: handler.NewAuthorizeHandler(treeService, logger),
		Folders:   handler.NewFolderHandler(treeService, cfg.Upload.MaxMemory, cfg.Upload.MaxBytes, logger),
		Files:     handler.NewFileHandler(treeService, searchService, cfg.Upload.MaxMemory, cfg.Upload.MaxBytes, logger),
		Users:     handler.NewUserHandler(userService, logger),
		Teams:     handler.NewTeamHandler(teamService, logger),
		System:    handler.NewSystemHandler(activityService, cfg.Store.Backend, cfg.Content.Type, logger),
	})

	// CORS configuration
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   parseCORSOrigins(cfg.Server.CORSOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Total-Count", "X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
	})

	// Middleware chain, outermost first
	h := middleware.Chain(router,
		corsHandler.Handler,
		middleware.RequestLogger(logger),
		middleware.Recovery(logger),
		middleware.Auth(verifiers, userService, logger, handler.PublicRoutes...),
		middleware.NewRateLimiter(cfg.Server.RateLimit.RequestsPerSecond, cfg.Server.RateLimit.Burst).Middleware,
	)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func parseCORSOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
