package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/geocoder89/eventboard/internal/config"
	"github.com/geocoder89/eventboard/internal/gateway"
	"github.com/geocoder89/eventboard/internal/http/handlers"
	"github.com/geocoder89/eventboard/internal/http/middlewares"
	"github.com/geocoder89/eventboard/internal/observability"
	"github.com/geocoder89/eventboard/internal/redisclient"
	"github.com/geocoder89/eventboard/internal/upstream"
	"github.com/geocoder89/eventboard/internal/web"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps are the process-level dependencies built in main.
type Deps struct {
	// Registry gets the app metrics and is served on /metrics. nil creates a fresh one.
	Registry *prometheus.Registry
	// Redis is optional, without it the rate limiter is per process.
	Redis *redisclient.Client
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	prom := observability.NewProm(reg)

	handlers.UseJSONFieldNames()

	r := gin.New()
	r.SetHTMLTemplate(web.Templates())

	// middleware
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(observability.ServiceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(prom.GinHandleMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware([]string{cfg.AppURL}))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))

	// health
	var ping func(ctx context.Context) error
	if deps.Redis != nil {
		ping = deps.Redis.Ping
	}

	health := handlers.NewHealthHandler(ping)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	// wire up the upstream client and gateways
	api := upstream.New(upstream.Config{
		BaseURL: cfg.UpstreamBaseURL,
		APIKey:  cfg.APIKey,
		Timeout: cfg.UpstreamTimeout,
	}, prom)

	events := gateway.NewEvents(api)
	registrations := gateway.NewRegistrations(api)

	// one limiter for both registration routes, keys differ by route
	limiter := newLimiter(cfg, deps.Redis)
	registerLimit := middlewares.RateLimit(limiter, middlewares.KeyByIP, prom, log)

	// pages
	pages := web.NewHandler(events, registrations, log)
	pageRegisterLimit := middlewares.RateLimitWith(limiter, middlewares.KeyByIP, prom, log, pages.RegisterRateLimited)

	r.StaticFS("/static", http.FS(web.Static()))
	r.GET("/", pages.Index)
	r.GET("/fragments/events", pages.EventsFragment)
	r.GET("/events/:id", pages.EventDetail)
	r.POST("/events/:id/register", pageRegisterLimit, pages.Register)

	// json api
	eventsHandler := handlers.NewEventsHandler(events, log)
	registrationHandler := handlers.NewRegistrationHandler(registrations, log)

	apiGroup := r.Group("/api")
	apiGroup.GET("/events", eventsHandler.ListEvents)
	apiGroup.GET("/events/:id", eventsHandler.GetEventByID)
	apiGroup.POST("/events/:id/register", middlewares.RequireJSON(), registerLimit, registrationHandler.Register)

	r.NoRoute(func(ctx *gin.Context) {
		if strings.HasPrefix(ctx.Request.URL.Path, "/api/") {
			handlers.RespondNotFound(ctx, "Route not found")
			return
		}
		web.NotFound(ctx)
	})

	return r
}

func newLimiter(cfg config.Config, rdb *redisclient.Client) middlewares.Limiter {
	if rdb != nil {
		return middlewares.NewRedisLimiter(rdb.Raw(), cfg.RegisterRateLimit, cfg.RegisterRateWindow)
	}
	return middlewares.NewMemoryLimiter(cfg.RegisterRateLimit, cfg.RegisterRateWindow)
}
