package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4" // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/venue-reservation-bot/internal/attribution"
	"github.com/iliyamo/venue-reservation-bot/internal/bot"
	"github.com/iliyamo/venue-reservation-bot/internal/capacity"
	"github.com/iliyamo/venue-reservation-bot/internal/config" // Internal config loader
	"github.com/iliyamo/venue-reservation-bot/internal/database"
	"github.com/iliyamo/venue-reservation-bot/internal/handler"
	"github.com/iliyamo/venue-reservation-bot/internal/middleware"
	"github.com/iliyamo/venue-reservation-bot/internal/queue"
	"github.com/iliyamo/venue-reservation-bot/internal/repository"
	"github.com/iliyamo/venue-reservation-bot/internal/router" // Internal router setup
	"github.com/iliyamo/venue-reservation-bot/internal/service"
	"github.com/iliyamo/venue-reservation-bot/internal/session"
	"github.com/iliyamo/venue-reservation-bot/internal/ticket"
	"github.com/iliyamo/venue-reservation-bot/internal/utils"
)

func main() {
	_ = godotenv.Load() // .env is optional; real environment wins

	cfg := config.Load()
	log := utils.NewLogger(cfg.Env, cfg.LogLevel)

	db, err := database.Open(database.Options{
		Driver: cfg.DB.Driver,
		User:   cfg.DB.User,
		Pass:   cfg.DB.Pass,
		Host:   cfg.DB.Host,
		Port:   cfg.DB.Port,
		Name:   cfg.DB.Name,
		Path:   cfg.DB.Path,
	})
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer db.Close()
	log.WithFields(logrus.Fields{"driver": cfg.DB.Driver, "target": cfg.DB.DSNSummary()}).Info("database ready")

	// Redis is optional: without it sessions and attribution live in
	// memory and the rate limiter and stats cache pass through.
	rdb, err := config.NewRedisClient(config.LoadRedisConfig())
	if err != nil {
		log.WithError(err).Warn("redis unavailable; running without it")
		rdb = nil
	} else {
		defer rdb.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions, table := stores(cfg, rdb, log)
	go session.RunSweeper(ctx, sessions, cfg.Sessions.SweepInterval, cfg.Sessions.TTL, log)

	repo := repository.NewReservationRepo(db)
	guard := capacity.NewGuard(repo, cfg.Venue.Capacity, cfg.Venue.LowStock)
	issuer := ticket.NewIssuer(cfg.JWTSecret, cfg.PublicBaseURL, cfg.QREndpoint)

	log.WithField("partners", cfg.Referrals.Keys()).Info("referral directory loaded")

	deps := bot.Deps{
		Store:    repo,
		Sessions: sessions,
		Resolver: attribution.NewResolver(cfg.Referrals, table),
		Guard:    guard,
		Tickets:  issuer,
		Log:      log,
	}
	if cfg.Events.Enabled {
		deps.Events = service.NewPublisher(cfg.Events.URL, log)
		consumer := &queue.Consumer{URL: cfg.Events.URL, LogDir: cfg.Events.LogDir, Log: log}
		go func() {
			if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("event consumer stopped")
			}
		}()
	}
	engine := bot.New(deps, bot.Settings{
		VenueName:       cfg.Venue.Name,
		FlyerURL:        cfg.Venue.FlyerURL,
		AdminTrigger:    cfg.Admin.Trigger,
		AdminPassword:   cfg.Admin.Password,
		HardResetPhrase: cfg.Admin.HardResetPhrase,
		EscapeWords:     cfg.Admin.EscapeWords,
		MaxGuests:       cfg.Venue.MaxGuests,
	})

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))

	router.RegisterRoutes(e, db, rdb)
	router.RegisterWebhook(e, handler.NewWebhookHandler(engine, log), config.LoadRateLimitConfig(), rdb)
	router.RegisterTickets(e, handler.NewTicketHandler(issuer, repo, cfg.Venue.Name, log))
	router.RegisterOperator(e,
		handler.NewOperatorHandler(cfg.PanelUser, cfg.PanelPasswordHash, cfg.JWTSecret, cfg.AccessTTLMin),
		handler.NewPanelHandler(repo, guard, cfg.Venue.Name, log),
		handler.NewStatsHandler(repo, guard),
		cfg.JWTSecret, config.LoadCacheConfig(), rdb,
	)
	if cfg.PanelPasswordHash == "" {
		log.Warn("PANEL_PASSWORD_HASH not set; panel and operator API are locked")
	}

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	engine.Wait()
}

// stores picks the session and attribution backends.  Redis is used when
// requested and reachable; otherwise both fall back to memory.
func stores(cfg config.Config, rdb *redis.Client, log logrus.FieldLogger) (session.Store, attribution.Table) {
	if cfg.Sessions.Backend == "redis" {
		if rdb != nil {
			return session.NewRedisStore(rdb, "session", cfg.Sessions.TTL), attribution.NewRedisTable(rdb, "attribution")
		}
		log.Warn("SESSION_BACKEND=redis but redis is unavailable; using memory")
	}
	return session.NewMemoryStore(), attribution.NewMemoryTable()
}
