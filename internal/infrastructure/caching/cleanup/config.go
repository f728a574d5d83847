package cleanup

import (
	"time"

	"github.com/AtRiskMedia/spotlight-go/pkg/config"
)

// Config holds cleanup worker configuration, sourced from the central config package.
type Config struct {
	CleanupInterval  time.Duration
	SessionTTL       time.Duration
	VerboseReporting bool
}

// NewConfig reads the already-initialized values in /pkg/config.
func NewConfig() *Config {
	return &Config{
		CleanupInterval:  config.SessionCleanupInterval,
		SessionTTL:       config.SessionTTL,
		VerboseReporting: config.SessionCleanupVerbose,
	}
}
