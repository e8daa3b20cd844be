package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	httpHandler "github.com/prlessa/My-Stickly-Notes/internal/handler/http"
	wsHandler "github.com/prlessa/My-Stickly-Notes/internal/handler/websocket"
	"github.com/prlessa/My-Stickly-Notes/internal/hub"
	redisbus "github.com/prlessa/My-Stickly-Notes/internal/infra/bus/redis"
	rediscache "github.com/prlessa/My-Stickly-Notes/internal/infra/cache/redis"
	gormpersistence "github.com/prlessa/My-Stickly-Notes/internal/infra/persistence/gorm"
	"github.com/prlessa/My-Stickly-Notes/internal/infra/setup"
	"github.com/prlessa/My-Stickly-Notes/internal/middleware"
	"github.com/prlessa/My-Stickly-Notes/internal/service"
	"github.com/prlessa/My-Stickly-Notes/internal/worker"
)

// Config holds everything loaded from the environment at startup.
type Config struct {
	DBUser          string
	DBPassword      string
	DBHost          string
	DBPort          string
	DBName          string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	ServerPort      string
	LogLevel        string
	AppEnv          string
	KeyPrefix       string
	RateLimitMax    int
	RateLimitWindow time.Duration
	SweepSchedule   string
	CORSOrigin      string
}

// LoadConfig reads configuration from the environment, with a .env file
// as a development convenience.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBUser:          os.Getenv("DB_USER"),
		DBPassword:      os.Getenv("DB_PASSWORD"),
		DBHost:          os.Getenv("DB_HOST"),
		DBPort:          os.Getenv("DB_PORT"),
		DBName:          os.Getenv("DB_NAME"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RedisPassword:   os.Getenv("REDIS_PASSWORD"),
		ServerPort:      os.Getenv("SERVER_PORT"),
		LogLevel:        os.Getenv("LOG_LEVEL"),
		AppEnv:          os.Getenv("APP_ENV"),
		KeyPrefix:       os.Getenv("REDIS_KEY_PREFIX"),
		CORSOrigin:      os.Getenv("CORS_ALLOWED_ORIGIN"),
		RateLimitMax:    100,
		RateLimitWindow: time.Second,
		SweepSchedule:   "@every 1m",
	}
	cfg.RedisDB, _ = strconv.Atoi(os.Getenv("REDIS_DB"))

	if cfg.DBHost == "" {
		cfg.DBHost = "127.0.0.1"
	}
	if cfg.DBPort == "" {
		cfg.DBPort = "3306"
	}
	if cfg.DBName == "" {
		cfg.DBName = "stickynotes_db"
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "3001"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "sn:"
	}
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = "http://localhost:3000"
	}
	if cfg.DBUser == "" {
		return nil, fmt.Errorf("environment variable DB_USER must be set")
	}
	if cfg.DBPassword == "" {
		return nil, fmt.Errorf("environment variable DB_PASSWORD must be set")
	}
	if cfg.RedisAddr == "" {
		return nil, fmt.Errorf("environment variable REDIS_ADDR must be set")
	}

	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		logrus.Warnf("Invalid LOG_LEVEL '%s', using default 'info'", cfg.LogLevel)
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

// App wires every component together and owns their lifecycle.
type App struct {
	Config      *Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	AsynqClient *asynq.Client
	Worker      *worker.WorkerServer
	Bus         *redisbus.RedisBus
	Hub         *hub.Hub
	HttpServer  *http.Server
}

// NewApp builds the application: infrastructure, repositories, services,
// hub, handlers and router, all explicitly injected.
func NewApp() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return nil, err
	}

	log := logrus.New()
	if cfg.AppEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, ForceColors: true})
	}
	logLevel, _ := logrus.ParseLevel(cfg.LogLevel)
	log.SetLevel(logLevel)
	log.SetOutput(os.Stdout)
	log.Info("Configuration loaded")

	db, err := setup.InitDB(cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to init DB: %w", err)
	}
	if err := setup.MigrateDB(db); err != nil {
		return nil, fmt.Errorf("failed to migrate DB: %w", err)
	}
	log.Info("Database ready")

	redisClient, err := setup.InitRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	log.Info("Redis ready")

	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	asynqClient := asynq.NewClient(redisOpt)

	panelRepo := gormpersistence.NewGormPanelRepository(db)
	postRepo := gormpersistence.NewGormPostRepository(db)
	presenceRepo := gormpersistence.NewGormPresenceRepository(db)
	cache := rediscache.NewRedisCache(redisClient, cfg.KeyPrefix)
	bus := redisbus.NewRedisBus(redisClient, cfg.KeyPrefix)

	panelService := service.NewPanelService(panelRepo, presenceRepo, cache, asynqClient)
	presenceService := service.NewPresenceService(presenceRepo)
	postService := service.NewPostService(postRepo, panelService, cache, bus)
	log.Info("Services initialized")

	hubInstance := hub.NewHub(bus, postService, presenceService)
	workerServer := worker.NewWorkerServer(redisOpt, presenceService, panelRepo, log)

	panelHandler := httpHandler.NewPanelHandler(panelService)
	postHandler := httpHandler.NewPostHandler(postService)
	presenceHandler := httpHandler.NewPresenceHandler(presenceService)
	socketHandler := wsHandler.NewWebSocketHandler(hubInstance, panelService)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))
	router.Use(corsMiddleware(cfg.CORSOrigin))
	router.Use(middleware.RateLimit(redisClient, cfg.RateLimitMax, cfg.RateLimitWindow))

	api := router.Group("/api")
	{
		api.POST("/panels", panelHandler.Create)
		api.POST("/panels/:code", panelHandler.Admit)
		api.GET("/panels/:code/posts", postHandler.List)
		api.POST("/panels/:code/posts", postHandler.Create)
		api.PATCH("/posts/:postId/position", postHandler.Move)
		api.DELETE("/posts/:postId", postHandler.Remove)
		api.POST("/panels/:code/users", presenceHandler.Heartbeat)
		api.GET("/panels/:code/users", presenceHandler.Roster)
		api.DELETE("/panels/:code/users/:name", presenceHandler.Leave)
	}
	router.GET("/ws/panel/:code", socketHandler.HandleConnection)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   "Sticky Notes Backend",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})
	log.Info("Router setup complete")

	return &App{
		Config:      cfg,
		Log:         log,
		DB:          db,
		RedisClient: redisClient,
		AsynqClient: asynqClient,
		Worker:      workerServer,
		Bus:         bus,
		Hub:         hubInstance,
		HttpServer: &http.Server{
			Addr:    ":" + cfg.ServerPort,
			Handler: router,
		},
	}, nil
}

// Start launches the hub, the worker, the sweep scheduler and the HTTP
// server, each in its own goroutine.
func (a *App) Start() {
	go a.Hub.Run()
	a.Log.Info("Hub started")

	go a.Worker.Start()
	go a.Worker.StartScheduler(a.Config.SweepSchedule)
	a.Log.Info("Worker and scheduler started")

	go func() {
		a.Log.Infof("HTTP server listening on %s", a.HttpServer.Addr)
		if err := a.HttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()
}

// Shutdown tears components down in dependency order.
func (a *App) Shutdown() {
	a.Log.Info("Shutting down application...")

	if a.Hub != nil {
		a.Hub.Stop()
	}
	if a.Worker != nil {
		a.Worker.Shutdown()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.HttpServer.Shutdown(ctx); err != nil {
		a.Log.Errorf("Error shutting down HTTP server: %v", err)
	}

	if a.AsynqClient != nil {
		if err := a.AsynqClient.Close(); err != nil {
			a.Log.Errorf("Error closing asynq client: %v", err)
		}
	}
	if a.RedisClient != nil {
		if err := a.RedisClient.Close(); err != nil {
			a.Log.Errorf("Error closing Redis connection: %v", err)
		}
	}
	a.Log.Info("Application shutdown complete")
}

func corsMiddleware(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Requested-With")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggerMiddleware logs one structured line per request.
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)
		statusCode := c.Writer.Status()
		path := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			path = path + "?" + c.Request.URL.RawQuery
		}

		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        path,
		})

		if errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String(); errorMessage != "" {
			entry.Error(errorMessage)
		} else if statusCode >= 500 {
			entry.Error("Server error")
		} else if statusCode >= 400 {
			entry.Warn("Client error")
		} else {
			entry.Info("Request handled")
		}
	}
}
