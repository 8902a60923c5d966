package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	api "github.com/covelight/agencydesk/api/echo"
	redisstore "github.com/covelight/agencydesk/cache/redis"
	"github.com/covelight/agencydesk/config"
	"github.com/covelight/agencydesk/internal/fbads"
	"github.com/covelight/agencydesk/internal/federation"
	"github.com/covelight/agencydesk/mongodb"
	"github.com/covelight/agencydesk/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogging(cfg)
	log.Info().
		Str("http_port", cfg.HTTPPort).
		Str("mongo_db", cfg.MongoDBName).
		Str("client_base_url", cfg.ClientBaseURL).
		Msg("Starting agencydesk server")

	ctx := context.Background()

	if err := mongodb.InitMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize MongoDB connection")
	}
	db := mongodb.GetDB()

	userRepo, err := mongodb.NewUserRepositoryMongo(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize user repository")
	}
	teamRepo, err := mongodb.NewTeamMemberRepositoryMongo(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize team member repository")
	}
	tokenRepo, err := mongodb.NewOAuthTokenRepositoryMongo(ctx, db)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize token repository")
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	sessions := redisstore.NewSessionStore(redisClient, "agencydesk",
		time.Duration(cfg.SessionTTLHours)*time.Hour)

	fallbackTTL := time.Duration(cfg.DefaultTokenTTLMin) * time.Minute
	google, err := federation.NewGoogleProvider(cfg.GoogleOAuth(), fallbackTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Google provider configuration is invalid")
	}
	facebook, err := federation.NewFacebookProvider(cfg.FacebookOAuth(), fallbackTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("Facebook provider configuration is invalid")
	}
	providers := map[string]federation.OAuth2Provider{
		google.Name():   google,
		facebook.Name(): facebook,
	}

	calendar := services.NewCalendarService(tokenRepo, google,
		time.Duration(cfg.TokenRefreshMarginMin)*time.Minute)
	ads := fbads.NewClient(nil)

	a := api.NewAPI(cfg, userRepo, teamRepo, tokenRepo, sessions, providers, calendar, ads)
	defer a.Close()
	a.SetHealthCheck(func(c echo.Context) error {
		return mongodb.Ping(c.Request().Context())
	})

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	a.RegisterRoutes(e)

	go func() {
		log.Info().Msgf("HTTP server listening on port %s", cfg.HTTPPort)
		if err := e.Start(":" + cfg.HTTPPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info().Str("signal", sig.String()).Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
	if err := redisClient.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing Redis connection")
	}
	mongodb.CloseMongoDB(shutdownCtx)

	log.Info().Msg("Server stopped")
}

func setupLogging(cfg *config.ServerConfig) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
		log.Warn().Str("configured_log_level", cfg.LogLevel).
			Msg("Invalid LOG_LEVEL configured, defaulting to 'info'")
	}
	zerolog.SetGlobalLevel(level)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

