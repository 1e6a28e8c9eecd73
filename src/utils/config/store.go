package config

import (
	"time"

	"github.com/spf13/viper"
)

type Store struct {
	// Max number of events inserted in one transaction
	BatchSize int

	// Events are flushed at least this often
	FlushInterval time.Duration

	// Max time flush is retried, 0 means no limit
	MaxBackoffElapsedTime time.Duration

	// Max time between flush retries
	MaxBackoffInterval time.Duration
}

func setStoreDefaults() {
	viper.SetDefault("Store.BatchSize", "100")
	viper.SetDefault("Store.FlushInterval", "1s")
	viper.SetDefault("Store.MaxBackoffElapsedTime", "0")
	viper.SetDefault("Store.MaxBackoffInterval", "10s")
}
