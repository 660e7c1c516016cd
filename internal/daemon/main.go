// Package daemon boots the application: database, migrations, seed data and
// the web service.
package daemon

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/bandsync/bandsync/internal/config"
	"github.com/bandsync/bandsync/internal/db/dsn"
	"github.com/bandsync/bandsync/internal/db/models"
	"github.com/bandsync/bandsync/internal/subscribe"
	"github.com/bandsync/bandsync/internal/web"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start starts the Daemon's web service and blocks until shutdown.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	db, err := gorm.Open(dsn.Dialector(cfg), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	if err = db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Membership{},
		&models.Chat{},
		&models.ChatParticipant{},
		&models.Message{},
		&models.Event{},
		&models.Setlist{},
		&models.SetlistSong{},
		&models.Transaction{},
		&models.Contact{},
		&models.DeviceToken{},
		&models.PasswordReset{},
	); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}

	seed(cfg, db)

	hub := subscribe.NewHub()

	return &Daemon{
		cfg:        cfg,
		webService: web.New(cfg, db, hub),
	}
}
