package config

import "time"

// Quick-mode intervals.
const (
	QuickMinReport = 60 * time.Second
	QuickBattery   = 5 * time.Minute
	QuickClimate   = 60 * time.Second
	QuickLight     = 2 * time.Minute
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Transport.MQTT.ClientID == "" {
		cfg.Transport.MQTT.ClientID = defaultClientID(cfg.Node.ID)
	}

	if !cfg.Quick {
		return
	}
	cfg.Schedule.MinReport = Duration(QuickMinReport)
	cfg.Schedule.Battery = Duration(QuickBattery)
	cfg.Schedule.Climate = Duration(QuickClimate)
	cfg.Schedule.Light = Duration(QuickLight)
}
