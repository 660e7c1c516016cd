// Package web wires the HTTP API: fiber app, middleware, metrics and the
// handler services.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/bandsync/bandsync/internal/auth"
	chatservice "github.com/bandsync/bandsync/internal/chat"
	"github.com/bandsync/bandsync/internal/config"
	fiberlogger "github.com/bandsync/bandsync/internal/logger/adapter/fiber"
	"github.com/bandsync/bandsync/internal/membership"
	"github.com/bandsync/bandsync/internal/subscribe"
	"github.com/bandsync/bandsync/internal/web/handler/account"
	chathandler "github.com/bandsync/bandsync/internal/web/handler/chat"
	contacthandler "github.com/bandsync/bandsync/internal/web/handler/contact"
	eventhandler "github.com/bandsync/bandsync/internal/web/handler/event"
	financehandler "github.com/bandsync/bandsync/internal/web/handler/finance"
	grouphandler "github.com/bandsync/bandsync/internal/web/handler/group"
	setlisthandler "github.com/bandsync/bandsync/internal/web/handler/setlist"
	statehandler "github.com/bandsync/bandsync/internal/web/handler/state"
	userhandler "github.com/bandsync/bandsync/internal/web/handler/user"
)

const checkAlivePath = "/checkalive"

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
	hub          *subscribe.Hub
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the web service.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, db *gorm.DB, hub *subscribe.Hub) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
		},
	)

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New())
	}

	// access logging
	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: checkAlivePath,
	}))

	service := &Service{
		cfg: cfg,
		App: app,
		db:  db,
		hub: hub,
	}
	service.alive.Store(true)

	// liveness endpoint for load balancers
	app.Get(checkAlivePath, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendString("OK")
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// domain services shared by the handlers
	authService := auth.NewService(db, cfg.Auth)
	membershipService := membership.NewService(db, hub)
	chatService := chatservice.NewService(db, hub)

	// init handlers (they register their own routes)
	initErr := errors.Join(
		account.Handler.Init(app, cfg, db, authService),
		userhandler.Handler.Init(app, cfg, db),
		statehandler.Handler.Init(app, cfg, db),
		grouphandler.Handler.Init(app, cfg, db, membershipService),
		chathandler.Handler.Init(app, cfg, db, chatService, hub),
		eventhandler.Handler.Init(app, cfg, db),
		setlisthandler.Handler.Init(app, cfg, db),
		financehandler.Handler.Init(app, cfg, db),
		contacthandler.Handler.Init(app, cfg, db),
	)
	if initErr != nil {
		log.Fatal().Err(initErr).Msg("handler initialization failed")
	}

	return service
}
