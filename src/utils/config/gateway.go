package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

type Gateway struct {
	// REST API address
	ServerListenAddress string

	// Max time a request handler may take
	ServerRequestTimeout time.Duration

	// HS256 secret for bearer tokens. Empty disables authentication and the caller is taken from the request body,
	// which is only allowed in development.
	AuthSecret string

	// How long issued tokens are valid
	AuthTokenTTL time.Duration

	// Sustained requests per second accepted by the server, 0 disables limiting
	RateLimit float64

	// Max burst of requests
	RateLimitBurst int

	// How long responses are remembered for a repeated Idempotency-Key
	IdempotencyTTL time.Duration
}

func setGatewayDefaults() {
	viper.SetDefault("Gateway.ServerListenAddress", "0.0.0.0:4000")
	viper.SetDefault("Gateway.ServerRequestTimeout", "30s")
	viper.SetDefault("Gateway.AuthSecret", "")
	viper.SetDefault("Gateway.AuthTokenTTL", "24h")
	viper.SetDefault("Gateway.RateLimit", "100")
	viper.SetDefault("Gateway.RateLimitBurst", "200")
	viper.SetDefault("Gateway.IdempotencyTTL", "10m")
}

var ErrMissingAuthSecret = errors.New("Gateway.AuthSecret is required outside of development")

// Serving without a secret trusts whatever caller the request names
func (self *Gateway) Validate(isDevelopment bool) error {
	if self.AuthSecret == "" && !isDevelopment {
		return ErrMissingAuthSecret
	}
	return nil
}
