package config

import (
	"github.com/spf13/viper"
)

type Auditor struct {
	// Cron spec of the invariant check, empty disables it
	Schedule string

	// Max length of the ops/minute history kept by the monitor
	MonitorHistorySize int
}

func setAuditorDefaults() {
	viper.SetDefault("Auditor.Schedule", "@every 1m")
	viper.SetDefault("Auditor.MonitorHistorySize", "30")
}
