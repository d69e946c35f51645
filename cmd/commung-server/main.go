package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"commung/internal/config"
	"commung/internal/handler"
	"commung/internal/messaging"
	"commung/internal/middleware"
	"commung/internal/observability"
	"commung/internal/repository/postgres"
	"commung/internal/service"
	"commung/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.Load()

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}
	observability.InitLogger(logLevel, logFormat)

	slog.Info("starting commung server", slog.String("main_domain", cfg.MainDomain))

	connCtx, connCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer connCancel()

	db, err := config.NewPostgresConnection(connCtx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to postgresql")

	rmqCtx, rmqCancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer rmqCancel()

	instanceID := uuid.NewString()
	rmq, err := messaging.NewRabbitMQWithRetry(rmqCtx, cfg.RabbitMQURL, instanceID)
	if err != nil {
		slog.Error("failed to connect to rabbitmq", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer rmq.Close()
	slog.Info("connected to rabbitmq", slog.String("instance_id", instanceID))

	userRepo := postgres.NewUserRepository(db)
	sessionRepo, err := postgres.NewSessionRepository(db)
	if err != nil {
		slog.Error("failed to prepare session statements", slog.String("error", err.Error()))
		os.Exit(1)
	}
	exchangeRepo, err := postgres.NewExchangeTokenRepository(db)
	if err != nil {
		slog.Error("failed to prepare exchange token statements", slog.String("error", err.Error()))
		os.Exit(1)
	}
	communityRepo := postgres.NewCommunityRepository(db)
	profileRepo := postgres.NewProfileRepository(db)
	postRepo := postgres.NewPostRepository(db)
	roomRepo := postgres.NewRoomRepository(db)
	messageRepo := postgres.NewRoomMessageRepository(db)

	authService := service.NewAuthService(userRepo, sessionRepo, cfg.SessionTTL)
	communityService := service.NewCommunityService(communityRepo, cfg.MainDomain)
	ssoService := service.NewSSOService(sessionRepo, exchangeRepo, communityService,
		cfg.MainDomain, cfg.SessionTTL, cfg.ExchangeTokenTTL)
	profileService := service.NewProfileService(profileRepo)
	postService := service.NewPostService(postRepo, profileRepo)
	chatService := service.NewChatService(roomRepo, messageRepo)

	hub := websocket.NewHub()

	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go func() {
		if err := hub.Run(hubCtx); err != nil && err != context.Canceled {
			slog.Error("hub error", slog.String("error", err.Error()))
		}
	}()
	slog.Info("websocket hub started")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	relayConsumer := messaging.NewRelayConsumer(rmq, hub)
	if err := relayConsumer.Start(ctx); err != nil {
		slog.Error("failed to start relay consumer", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("relay consumer started")

	go startCleanup(ctx, "sessions", sessionRepo.DeleteExpired)
	go startCleanup(ctx, "exchange_tokens", exchangeRepo.DeleteExpired)
	slog.Info("cleanup tasks started")

	authHandler := handler.NewAuthHandler(authService)
	ssoHandler := handler.NewSSOHandler(ssoService, authService)
	communityHandler := handler.NewCommunityHandler(communityService)
	profileHandler := handler.NewProfileHandler(profileService)
	postHandler := handler.NewPostHandler(postService)
	roomHandler := handler.NewRoomHandler(chatService, profileService)
	wsHandler := handler.NewWebSocketHandler(hub, chatService, profileService, rmq)

	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.CORS(middleware.ParseOrigins(cfg.AllowedOrigins)))
	r.Use(middleware.Metrics())
	if cfg.IsDevelopment() {
		r.Use(middleware.OpenAPIValidator(middleware.DefaultOpenAPIValidatorConfig()))
	}

	r.Get("/health", handler.Health)
	r.Get("/health/ready", handler.Ready(db, rmq))
	r.Handle("/metrics", promhttp.Handler())

	authLimiter := middleware.NewRateLimiter(5, 10)
	apiLimiter := middleware.NewRateLimiter(20, 50)
	defer authLimiter.Stop()
	defer apiLimiter.Stop()

	// SSO hand-off endpoints live at the root: /auth/sso runs on the
	// console host, /auth/callback on the community host
	r.Group(func(r chi.Router) {
		r.Use(authLimiter.Middleware())
		r.Get("/auth/sso", ssoHandler.Initiate)
		r.Post("/auth/callback", ssoHandler.Callback)
		r.Post("/auth/logout", authHandler.Logout)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authLimiter.Middleware())
			r.Post("/auth/register", authHandler.Register)
			r.Post("/auth/login", authHandler.Login)
		})

		// Console-scoped: account and community management
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(sessionRepo))
			r.Use(middleware.RequireConsole)
			r.Use(apiLimiter.Middleware())

			r.Get("/auth/me", authHandler.Me)
			r.Get("/communities", communityHandler.List)
			r.Post("/communities", communityHandler.Create)
			r.Get("/communities/{slug}", communityHandler.Get)
			r.Post("/communities/{slug}/domains", communityHandler.AddDomain)
		})

		// Community-scoped: profiles, posts, and rooms
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(sessionRepo))
			r.Use(middleware.RequireCommunity)
			r.Use(apiLimiter.Middleware())

			r.Get("/profile", profileHandler.GetOwn)
			r.Put("/profile", profileHandler.Upsert)
			r.Get("/profiles/{handle}", profileHandler.GetByHandle)
			r.Get("/posts", postHandler.List)
			r.Post("/posts", postHandler.Create)
			r.Get("/rooms", roomHandler.List)
			r.Post("/rooms", roomHandler.Create)
			r.Post("/rooms/{room_id}/join", roomHandler.Join)
			r.Get("/rooms/{room_id}/messages", roomHandler.GetMessages)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(sessionRepo))
		r.Use(middleware.RequireCommunity)
		r.Get("/ws/rooms/{room_id}", wsHandler.HandleConnection)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("commung server listening", slog.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", slog.String("error", err.Error()))
	}

	cancel()
	hubCancel()

	time.Sleep(100 * time.Millisecond)

	slog.Info("server stopped gracefully")
}

// startCleanup periodically deletes expired rows via deleteExpired.
func startCleanup(ctx context.Context, name string, deleteExpired func(context.Context) (int64, error)) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping cleanup task", slog.String("target", name))
			return
		case <-ticker.C:
			cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 30*time.Second)
			count, err := deleteExpired(cleanupCtx)
			if err != nil {
				slog.Error("cleanup failed",
					slog.String("target", name),
					slog.String("error", err.Error()))
			} else {
				slog.Info("cleanup completed",
					slog.String("target", name),
					slog.Int64("rows_deleted", count))
			}
			cleanupCancel()
		}
	}
}
