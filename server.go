package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/extension"
	"github.com/99designs/gqlgen/graphql/handler/lru"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/inventory_backend/config"
	"github.com/mmdatafocus/inventory_backend/graph"
	"github.com/mmdatafocus/inventory_backend/grpcapi"
	"github.com/mmdatafocus/inventory_backend/middlewares"
	"github.com/mmdatafocus/inventory_backend/models"
	"github.com/mmdatafocus/inventory_backend/utils"
	"github.com/mmdatafocus/inventory_backend/workflow"
	"github.com/ravilushqa/otelgqlgen"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const apqPrefix = "apq:"

// Cache backs automatic persisted queries. Redis may connect after the
// router is built, so the client is looked up per call; without it every
// lookup misses.
type Cache struct {
	ttl time.Duration
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{ttl: ttl}
}

func (c *Cache) Add(ctx context.Context, key string, value interface{}) {
	if client := config.GetRedisDB(); client != nil {
		client.Set(ctx, apqPrefix+key, value, c.ttl)
	}
}

func (c *Cache) Get(ctx context.Context, key string) (interface{}, bool) {
	client := config.GetRedisDB()
	if client == nil {
		return struct{}{}, false
	}
	s, err := client.Get(ctx, apqPrefix+key).Result()
	if err != nil {
		return struct{}{}, false
	}
	return s, true
}

// Defining the Graphql handler
func graphqlHandler(settings *config.Settings) gin.HandlerFunc {
	h := handler.New(graph.NewExecutableSchema(&graph.Resolver{}))
	h.AddTransport(transport.Options{})
	h.AddTransport(transport.GET{})
	h.AddTransport(transport.POST{})
	h.SetQueryCache(lru.New(1000))
	if settings.GraphqlIntrospection {
		h.Use(extension.Introspection{})
	}
	h.Use(extension.AutomaticPersistedQuery{Cache: NewCache(24 * time.Hour)})
	h.Use(otelgqlgen.Middleware())

	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// Defining the Playground handler
func playgroundHandler() gin.HandlerFunc {
	h := playground.Handler("GraphQL", "/query")

	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"status": models.Status{Code: http.StatusNotFound, Message: utils.ErrNotFound.Message}})
}

func corsConfig(settings *config.Settings) cors.Config {
	cfg := cors.DefaultConfig()
	// In production only the configured origins are allowed; none when unset.
	if settings.IsProduction() {
		cfg.AllowOrigins = utils.SplitAndTrim(settings.CorsAllowedOrigins)
		if len(cfg.AllowOrigins) == 0 {
			cfg.AllowOriginFunc = func(string) bool { return false }
		}
	} else {
		cfg.AllowAllOrigins = true
	}
	cfg.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	cfg.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization", "x-correlation-id")
	cfg.AddExposeHeaders("Content-Length", "Content-Disposition", "x-correlation-id")
	cfg.AllowCredentials = !cfg.AllowAllOrigins
	return cfg
}

// readinessGate answers 503 until the database is connected. /healthz and
// the identity endpoint stay reachable.
func readinessGate() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	}
}

func newRouter(settings *config.Settings, guard *middlewares.Guard) *gin.Engine {
	logger := config.GetLogger()

	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())
	r.Use(readinessGate())
	r.Use(cors.New(corsConfig(settings)))
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	// The guard calls this endpoint over loopback for every authenticated
	// request, so it sits outside the session middleware and the rate limiter.
	r.GET("/auth/deviceId", middlewares.DeviceIdHandler())

	if settings.RateLimitEnabled {
		client := redis.NewClient(&redis.Options{Addr: os.Getenv("REDIS_ADDRESS")})
		limiter := middlewares.NewRateLimiter(client, int64(settings.RateLimitMaxRequests), settings.RateLimitWindow)
		r.Use(limiter.RateLimitMiddleware)
	}

	api := r.Group("/", middlewares.SessionMiddleware(guard), middlewares.LoaderMiddleware())
	gql := graphqlHandler(settings)
	api.POST("/query", gql)
	api.GET("/query", gql)
	api.GET("/", playgroundHandler())

	rest := r.Group("/", middlewares.AuthMiddleware(guard, models.UserRoleAny))
	rest.POST("/upload/inventory", uploadInventoryHandler(settings))
	rest.GET("/export/trash", exportTrashHandler())

	r.NoRoute(customNotFoundHandler)
	return r
}

func main() {
	settings := config.GetSettings()
	logger := config.GetLogger()
	if settings.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	guard := middlewares.NewGuard(middlewares.NewIdentityClient(settings.IdentityURL, settings.IdentityTimeout))

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until the DB is ready, app endpoints return 503.
	srv := &http.Server{
		Addr:              ":" + settings.ApiPort,
		Handler:           newRouter(settings, guard),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErrCh := make(chan error, 2)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	grpcServer := grpcapi.NewServer(guard)
	lis, err := net.Listen("tcp", ":"+settings.GrpcPort)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "grpc"}).Fatal("failed to listen: " + err.Error())
	}
	go func() {
		serverErrCh <- grpcServer.Serve(lis)
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry(sigCtx)

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can run blocking DDL; it may be run as a separate job instead.
	if !settings.SkipMigrations {
		if err := models.MigrateTable(); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrations"}).Fatal(err.Error())
		}
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	reaperCtx, cancelReaper := context.WithCancel(context.Background())
	defer cancelReaper()
	if !settings.TrashSweepDisabled {
		go workflow.NewTrashReaper(logger, settings).Run(reaperCtx)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("connect to http://localhost:", settings.ApiPort, "/ for GraphQL playground")
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "server"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Stop background workers first so they don't start new work while we're draining.
	cancelReaper()
	grpcServer.GracefulStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
			logger.WithFields(logrus.Fields{"correlation_id": cid}).Error(c.Errors.String())
		}
	}
}
