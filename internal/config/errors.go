package config

import (
	"errors"
)

var (
	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrTokenSecretEmpty error if config auth.tokensecret is empty.
	ErrTokenSecretEmpty = errors.New("toml config auth.tokensecret can not be empty")
)
