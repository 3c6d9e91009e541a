package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/issuelens/backend/internal/api/handlers"
	"github.com/issuelens/backend/internal/cache/redis"
	"github.com/issuelens/backend/internal/embedding"
	"github.com/issuelens/backend/internal/metrics"
	"github.com/issuelens/backend/internal/middleware/ratelimit"
	"github.com/issuelens/backend/internal/middleware/security"
	"github.com/issuelens/backend/internal/middleware/validation"
	"github.com/issuelens/backend/internal/query"
	"github.com/issuelens/backend/internal/session"
	"github.com/issuelens/backend/internal/similarity"
	"github.com/issuelens/backend/internal/storage/sqlite"
	"github.com/issuelens/backend/internal/store/elastic"
	"github.com/issuelens/backend/internal/vector/milvus"
	"github.com/issuelens/backend/pkg/config"
	appLogger "github.com/issuelens/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting issuelens API server")

	// Strategy names resolve to the closed enum here, at load time.
	// An unknown name is fatal, not a runtime fallback.
	strategy, err := similarity.ParseStrategy(cfg.Search.Strategy)
	if err != nil {
		appLogger.Fatal("Invalid search strategy", zap.Error(err))
	}
	for _, name := range cfg.Sweep.Strategies {
		if _, err := similarity.ParseStrategy(name); err != nil {
			appLogger.Fatal("Invalid sweep strategy", zap.Error(err))
		}
	}

	metrics.Init()

	storeClient, err := elastic.NewClient(
		cfg.Elastic.Host,
		cfg.Elastic.Port,
		cfg.Elastic.Username,
		cfg.Elastic.Password,
		cfg.Elastic.Index,
	)
	if err != nil {
		appLogger.Fatal("Failed to create store client", zap.Error(err))
	}

	err = storeClient.EnsureIndex(context.Background())
	if err != nil {
		appLogger.Fatal("Failed to ensure index", zap.Error(err))
	}

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var cacheClient *redis.Client
	if cfg.Redis.Host != "" {
		cacheClient, err = redis.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.Redis.TTLSeconds)*time.Second,
		)
		if err != nil {
			appLogger.Warn("Cache disabled, failed to connect to redis", zap.Error(err))
			cacheClient = nil
		} else {
			defer cacheClient.Close()
		}
	}

	var (
		vectorClient    *milvus.Client
		embeddingClient *embedding.Client
	)
	if cfg.Vector.Enabled {
		vectorClient, err = milvus.NewClient(
			cfg.Vector.Endpoint,
			cfg.Vector.APIKey,
			cfg.Vector.CollectionName,
			cfg.Vector.VectorDim,
		)
		if err != nil {
			appLogger.Fatal("Failed to create vector client", zap.Error(err))
		}
		defer vectorClient.Close()

		err = vectorClient.EnsureCollection(context.Background())
		if err != nil {
			appLogger.Fatal("Failed to ensure vector collection", zap.Error(err))
		}

		embeddingClient = embedding.NewClient(cfg.Embedding.APIKey, cfg.Embedding.Model)
	}

	engine := query.NewEngine(
		storeClient,
		cacheClient,
		sqliteClient,
		vectorClient,
		embeddingClient,
		cfg.Search,
		strategy,
	)
	sweeper := query.NewSweeper(engine, cfg.Sweep)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: 120,
		Logger:               appLogger.GetLogger(),
	})
	defer limiter.Stop()
	app.Use(limiter.Middleware())

	app.Use(validation.Middleware(validation.Config{
		Logger: appLogger.GetLogger(),
	}))

	recordHandler := handlers.NewRecordHandler(engine)
	similarHandler := handlers.NewSimilarHandler(engine, sweeper)
	statsHandler := handlers.NewStatsHandler(engine, sqliteClient, cfg.Search.Statistics)
	sessionHandler := handlers.NewSessionHandler(engine, session.Defaults{
		SubjectBoost:  cfg.Search.SubjectBoost,
		TagBoost:      cfg.Search.TagsBoost,
		SentenceBoost: cfg.Search.SentencesBoost,
		ResultCount:   cfg.Search.ResultCount,
		Debug:         cfg.Search.Debug,
	})

	api := app.Group("/api/v1")

	api.Get("/records/:id", recordHandler.GetRecord)
	api.Post("/similar", similarHandler.FindSimilar)
	api.Post("/sweep", similarHandler.Sweep)
	api.Get("/stats", statsHandler.GetStats)
	api.Get("/history", statsHandler.GetHistory)

	api.Use("/session", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/session", websocket.New(sessionHandler.HandleConnection))

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
