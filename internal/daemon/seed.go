package daemon

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/bandsync/bandsync/internal/config"
	"github.com/bandsync/bandsync/internal/db/models"
)

func seed(cfg *config.Config, db *gorm.DB) {
	// Seed a first account in dev mode if the user table is empty,
	// so a fresh checkout is usable without registering through the API.
	if !cfg.DevMode {
		return
	}

	var count int64
	db.Model(&models.User{}).Count(&count)
	if count == 0 {
		db.Create(
			&models.User{
				ID:       uuid.NewString(),
				Email:    "admin@bandsync.local",
				Password: models.HashPassword("changeme"),
				Name:     "Dev Admin",
				Active:   true,
				Role:     models.RoleMember,
			},
		)

		log.Warn().Msg("seeded dev account admin@bandsync.local (password: changeme)")
	}
}
