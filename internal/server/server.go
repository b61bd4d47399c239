package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/myta-ai/myta/config"
	"github.com/myta-ai/myta/internal/agent/core"
	agenttele "github.com/myta-ai/myta/internal/agent/telemetry"
	"github.com/myta-ai/myta/internal/cache"
	"github.com/myta-ai/myta/internal/runtime"
	"github.com/myta-ai/myta/internal/store"
	"github.com/myta-ai/myta/internal/youtube"
)

// Run wires the full backend and serves it on addr (config default when
// empty).
func Run(cfgPath, addr string) error {
	cfg := appconfig.LoadConfig(cfgPath)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	// Unified HTTP error handler with structured JSON and logging
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, HTTPError{Error: msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx := context.Background()

	if err := Migrate("file://migrations", cfg.Storage.Postgres.DSN(), "up", 0); err != nil {
		baseLogger.Printf("migrations: %v", err)
	}
	st, err := store.New(ctx, cfg.Storage.Postgres)
	if err != nil {
		return err
	}

	tele := agenttele.NewTelemetry(cfg.Telemetry)

	providers, err := core.NewProviderSet(cfg.LLM)
	if err != nil {
		return err
	}
	classifyProvider, classifyOpts, err := resolveRoute(providers, cfg.LLM.Routing.Classification, cfg.LLM.Routing.Fallback)
	if err != nil {
		return err
	}
	analysisProvider, analysisOpts, err := resolveRoute(providers, cfg.LLM.Routing.Analysis, cfg.LLM.Routing.Fallback)
	if err != nil {
		return err
	}
	synthProvider, synthOpts, err := resolveRoute(providers, cfg.LLM.Routing.Synthesis, cfg.LLM.Routing.Fallback)
	if err != nil {
		return err
	}

	metrics := youtube.NewClient(cfg.YouTube)

	var rdb *redis.Client
	if cfg.Storage.Redis.Host != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.Redis.Addr(),
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis connection failed (%s): %w", cfg.Storage.Redis.Addr(), err)
		}
	}

	var responseCache core.ResponseCache
	switch cfg.Cache.Backend {
	case "redis":
		if rdb == nil {
			return fmt.Errorf("cache.backend redis requires storage.redis")
		}
		responseCache = cache.NewRedis(rdb, cfg.Cache.ResponseTTL)
	default:
		responseCache = cache.NewMemory(cfg.Cache.ResponseTTL)
	}

	bossToken := uuid.New().String()
	agents := core.NewAgents(analysisProvider, analysisOpts,
		metrics, core.NewOrchestratorAuth(bossToken), tele)
	classifier := core.NewIntentClassifier(classifyProvider, classifyOpts.Model, tele)
	boss := core.NewBossAgent(cfg.Agents, tele, classifier, agents,
		synthProvider, synthOpts, responseCache, st, bossToken)

	secret, err := runtime.LoadJWTSecret(cfg)
	if err != nil {
		return err
	}
	authMW := runtime.EchoAuthMiddleware(secret)

	api := e.Group("/api")
	(&AuthHandler{Store: st, Secret: secret}).Register(api.Group("/auth"))
	(&ChatHandler{Boss: boss, Store: st, Logger: baseLogger}).Register(api, authMW)

	me := api.Group("/me")
	me.Use(authMW)
	me.GET("", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"user_id": c.Get("user_id").(string)})
	})

	sched := &Scheduler{
		Store:     st,
		Cache:     responseCache,
		Metrics:   metrics,
		Rdb:       rdb,
		SweepCron: cfg.Cache.SweepCron,
		StaleAge:  cfg.YouTube.RefreshEvery,
		Stop:      make(chan struct{}),
	}
	sched.Start()

	if addr == "" {
		addr = cfg.Server.Address
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}

func resolveRoute(set *core.ProviderSet, route, fallback string) (core.CompletionProvider, core.CompletionOptions, error) {
	if route == "" {
		route = fallback
	}
	if route == "" {
		return nil, core.CompletionOptions{}, fmt.Errorf("llm.routing not configured")
	}
	return set.Resolve(route)
}
