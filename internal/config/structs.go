package config

import (
	"time"

	"github.com/bandsync/bandsync/internal/logger"
)

// Auth holds the token and password-reset settings.
type Auth struct {
	TokenSecret      string        // HMAC secret for signing access tokens
	TokenExpiry      time.Duration // access token lifetime
	ResetTokenExpiry time.Duration // password reset token lifetime
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Auth      Auth
	Webserver Webserver
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath      bool   // use clean path middleware to allow multi slash requests
	DisableRecover bool   // disable recover middleware
	Domain         string // domain name for the webserver
	Port           int    // listening port for the webserver
	ShutDownTime   int    // wait time for shutdown
	URL            string // base url for the webserver
}
