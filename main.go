package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	gorillahandlers "github.com/gorilla/handlers"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"chat-core/internal/auth"
	"chat-core/internal/config"
	"chat-core/internal/db"
	"chat-core/internal/grpcserver"
	"chat-core/internal/handlers"
	"chat-core/internal/middleware"
	"chat-core/internal/observability"
	"chat-core/internal/rabbitmq"
	"chat-core/internal/repositories"
	"chat-core/internal/storage"
	"chat-core/internal/telemetry"
	"chat-core/internal/tracing"
	"chat-core/internal/typing"
	"chat-core/internal/ws"
)

const (
	shutdownTimeout = 10 * time.Second
	probeInterval   = 15 * time.Second
	// gorilla/handlers clamps Access-Control-Max-Age to ten minutes.
	corsMaxAge = 600
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.Environment)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up tracing")
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to db")
	}
	defer database.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	tracker := typing.NewRedisTracker(rdb, cfg.TypingTTL)

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Info().
		Str("mode", rabbitmq.PublisherMode(publisher)).
		Str("reason", rabbitmq.PublisherNoopReason(publisher)).
		Msg("event publisher ready")

	auditor := telemetry.NewAuditEmitter(publisher, cfg.AuditRoutingKey, cfg.ServiceName, cfg.Environment)
	notifier := telemetry.NewNotifier(publisher)
	mediaStore := storage.NewMediaStore(cfg)
	verifier := auth.NewVerifier(cfg.JWTSecret)
	hub := ws.NewHub(publisher)

	chatRepo := repositories.NewChatRepo(database, cfg.OnlineWindow)
	storyRepo := repositories.NewStoryRepo(database, cfg.StoryTTL)

	chatsHandler := handlers.NewChatsHandler(handlers.ChatDeps{
		Users:         repositories.NewUserRepo(database),
		Chats:         chatRepo,
		Messages:      repositories.NewMessageRepo(database),
		Reactions:     repositories.NewReactionRepo(database),
		Media:         repositories.NewMediaRepo(database),
		Calls:         repositories.NewCallRepo(database),
		Typing:        tracker,
		Store:         mediaStore,
		Hub:           hub,
		Notifier:      notifier,
		Auditor:       auditor,
		OnlineWindow:  cfg.OnlineWindow,
		MediaMaxBytes: cfg.MediaMaxBytes,
	})
	storiesHandler := handlers.NewStoriesHandler(storyRepo, mediaStore, notifier, auditor, cfg.MediaMaxBytes)
	chatWS := ws.NewChatWebSocketHandler(hub, chatRepo, verifier)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestLogger(),
		otelgin.Middleware(cfg.ServiceName),
		observability.HTTPMetricsMiddleware(),
	)

	var limiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		go limiter.Run(ctx)
	}

	authed := router.Group("/", middleware.AuthMiddleware(verifier), middleware.RateLimit(limiter))
	authed.Any("/chats", chatsHandler.Handle)
	authed.Any("/stories", storiesHandler.Handle)

	router.GET("/ws/chats/:chat_id", chatWS.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", healthz(database, rdb))
	handlers.RegisterDebugRoutes(router, verifier, auditor, cfg.DebugRoutes)

	cors := gorillahandlers.CORS(
		gorillahandlers.AllowedOrigins([]string{"*"}),
		gorillahandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		gorillahandlers.AllowedHeaders([]string{"Content-Type", middleware.TokenHeader}),
		gorillahandlers.MaxAge(corsMaxAge),
	)
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           cors(router),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	grpcSrv := grpcserver.New(cfg.ServiceName, map[string]grpcserver.Probe{
		"postgres": database.PingContext,
		"redis":    tracker.Ping,
	})
	go grpcSrv.Watch(ctx, probeInterval)

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatal().Err(err).Str("port", cfg.GRPCPort).Msg("failed to listen for grpc")
	}
	go func() {
		log.Info().Str("port", cfg.GRPCPort).Msg("grpc health server starting")
		if err := grpcSrv.Serve(lis); err != nil {
			log.Error().Err(err).Msg("grpc server stopped")
		}
	}()

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("env", cfg.Environment).Msg("http server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	grpcSrv.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
	log.Info().Msg("server exited")
}

func setupLogging(cfg config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if cfg.Environment == "local" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
}

func healthz(database *sqlx.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		dbStatus, redisStatus := "ok", "ok"
		if err := database.PingContext(ctx); err != nil {
			dbStatus = "error"
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			redisStatus = "error"
		}

		status, code := "ok", http.StatusOK
		if dbStatus != "ok" || redisStatus != "ok" {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status": status,
			"checks": gin.H{
				"database": dbStatus,
				"redis":    redisStatus,
			},
		})
	}
}
