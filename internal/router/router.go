package router // package router defines how HTTP routes are registered for the API

import (
	"database/sql"

	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/venue-reservation-bot/internal/config"
	"github.com/iliyamo/venue-reservation-bot/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/venue-reservation-bot/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/iliyamo/venue-reservation-bot/internal/ticket"
	"github.com/iliyamo/venue-reservation-bot/internal/utils"
)

// RegisterRoutes registers the unauthenticated probes.  /healthz only says
// the process is up; /readyz pings the database and Redis.
func RegisterRoutes(e *echo.Echo, db *sql.DB, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Readiness(db, rdb))
}

// RegisterWebhook mounts the messaging callback behind the per-sender
// token bucket.  With a nil Redis client the limiter is a no-op.
func RegisterWebhook(e *echo.Echo, w *handler.WebhookHandler, rl config.RateLimitConfig, rdb *redis.Client) {
	e.POST("/webhook", w.Receive, middleware.NewTokenBucket(rl, rdb))
}

// RegisterTickets mounts the public ticket validation page at the path
// embedded in every QR code.
func RegisterTickets(e *echo.Echo, t *handler.TicketHandler) {
	e.GET(ticket.ValidatePath, t.Validate)
}

// RegisterOperator mounts the operator surfaces: the live panel behind
// basic auth, the token exchange, and the stats API which requires an
// OPERATOR bearer token and is served through the Redis response cache.
func RegisterOperator(e *echo.Echo, o *handler.OperatorHandler, p *handler.PanelHandler, s *handler.StatsHandler,
	jwtSecret string, cache config.CacheConfig, rdb *redis.Client) {
	e.GET("/panel", p.Show, echomw.BasicAuth(o.Authorize))

	e.POST("/v1/operator/token", o.Token)

	ops := e.Group("/v1")
	ops.Use(middleware.JWTAuth(jwtSecret))
	ops.Use(middleware.RequireRole(utils.RoleOperator))
	ops.GET("/stats", s.Get, middleware.NewRedisCache(cache, rdb))
}
