package config

import (
	"time"

	"github.com/spf13/viper"
)

type Client struct {
	// Gateway base url
	Url string

	// Bearer token sent with every request
	Token string

	// Timeout for HTTP requests
	RequestTimeout time.Duration

	// Max requests per second sent by the client
	MaxRequestsPerSecond int
}

func setClientDefaults() {
	viper.SetDefault("Client.Url", "http://localhost:4000")
	viper.SetDefault("Client.Token", "")
	viper.SetDefault("Client.RequestTimeout", "30s")
	viper.SetDefault("Client.MaxRequestsPerSecond", "10")
}
