package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/MarlinZapp/wishes-server/internal/config"
	"github.com/MarlinZapp/wishes-server/internal/http/handlers"
	"github.com/MarlinZapp/wishes-server/internal/http/middlewares"
	"github.com/MarlinZapp/wishes-server/internal/observability"
	"github.com/MarlinZapp/wishes-server/internal/session"
)

// Deps are the collaborators the router wires into handlers. Ping and Prom
// may be nil; AuthLimiter may be nil to disable rate limiting (tests).
type Deps struct {
	Guard       *session.Guard
	Wishes      handlers.WishStore
	Identity    handlers.IdentityService
	Prom        *observability.Prom
	Ping        func(ctx context.Context) error
	AuthLimiter *middlewares.RateLimiter
}

func NewRouter(log *slog.Logger, cfg config.Config, d Deps) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())

	if len(cfg.AllowedOrigins) > 0 {
		r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	}

	r.Use(middlewares.MaxBodyBytes(1 << 20))
	r.Use(middlewares.RequireJSON())

	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware("wishes-server"))
	}

	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	// health
	h := handlers.NewHealthHandler(d.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	r.GET("/", handlers.Index)

	authHandler := handlers.NewAuthHandler(d.Identity)
	wishesHandler := handlers.NewWishesHandler(d.Guard, d.Wishes, d.Prom)

	api := r.Group("/api")

	// unauthenticated endpoints, rate limited by client IP
	open := api.Group("")
	if d.AuthLimiter != nil {
		open.Use(d.AuthLimiter.Middleware(middlewares.KeyByIP))
	}
	open.POST("/register", authHandler.Register)
	open.POST("/login", authHandler.Login)

	// bearer-protected endpoints; the credential is only extracted here, the
	// session guard verifies it when binding
	protected := api.Group("")
	protected.Use(middlewares.RequireCredential())

	protected.GET("/check/auth", authHandler.CheckAuth)
	protected.POST("/wish", wishesHandler.CreateWish)
	protected.POST("/wish/:id", wishesHandler.CreateWishWithID)
	protected.GET("/wish/:id", wishesHandler.GetWish)
	protected.PATCH("/wish/:id/status/progress", wishesHandler.ProgressWish)
	protected.DELETE("/wish/:id", wishesHandler.DeleteWish)
	protected.GET("/wishes", wishesHandler.ListWishes)

	return r
}

// DefaultAuthLimiter builds the limiter for /api/register and /api/login from
// config, Redis-backed when an address is configured.
func DefaultAuthLimiter(cfg config.Config, store middlewares.CounterStore, log *slog.Logger) *middlewares.RateLimiter {
	window := time.Duration(cfg.AuthRateWindowSeconds) * time.Second

	return middlewares.NewRateLimiter(store, cfg.AuthRateLimit, window, log)
}
