package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"linktrackr/auth"
	"linktrackr/cache"
	"linktrackr/database"
	"linktrackr/handlers"
	"linktrackr/services"
)

type Config struct {
	Port      string
	MongoURI  string
	MongoDB   string
	RedisAddr string
	LogLevel  string
}

func newConfigFromEnv() Config {
	return Config{
		Port:      getEnv("PORT", "8080"),
		MongoURI:  getEnv("MONGO_URI", "mongodb://127.0.0.1:27017"),
		MongoDB:   getEnv("MONGO_DB", "linktrackr"),
		RedisAddr: getEnv("REDIS_ADDR", ""),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
	}
}

func main() {
	cfg := newConfigFromEnv()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	client, err := database.Connect(cfg.MongoURI)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database after multiple attempts")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}()

	db := client.Database(cfg.MongoDB)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := database.EnsureIndexes(ctx, db); err != nil {
			cancel()
			log.Fatal().Err(err).Msg("failed to create indexes")
		}
		cancel()
	}

	var linkCache cache.Cache
	if cfg.RedisAddr != "" {
		redisCache, err := cache.NewRedis(cfg.RedisAddr, "", 0)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("failed to connect to redis")
		}
		linkCache = redisCache
		log.Info().Str("addr", cfg.RedisAddr).Msg("using redis cache")
	} else {
		linkCache = cache.NewMemory()
		log.Info().Msg("using in-process cache")
	}

	linkService := services.NewLinkService(database.NewLinkStore(db), linkCache)
	linkHandler := handlers.NewLinkHandler(linkService)
	authHandler := handlers.NewAuthHandler(database.NewUserStore(db))

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "message": "LinkTrackr API is running"})
	})

	router.POST("/api/auth/register", authHandler.Register)
	router.POST("/api/auth/login", authHandler.Login)

	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		api.GET("/auth/profile", authHandler.Profile)
		api.POST("/shorten", linkHandler.Shorten)
		api.GET("/links", linkHandler.List)
		api.GET("/analytics/:shortId", linkHandler.Analytics)
		api.DELETE("/links/:shortId", linkHandler.Delete)
	}

	router.GET("/:shortId", linkHandler.Redirect)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("LinkTrackr starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
