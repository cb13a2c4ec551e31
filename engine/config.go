package engine

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Config holds configuration for the Service.
type Config struct {
	// Logger receives structured operation logs.
	// Default: slog.Default()
	Logger *slog.Logger

	// Metrics observes every operation.
	// Default: a recorder that discards observations.
	Metrics MetricsRecorder

	// Clock supplies creation and completion timestamps. Timestamps are
	// truncated to milliseconds, the precision every backend persists.
	// Default: time.Now
	Clock func() time.Time

	// NewID generates record IDs.
	// Default: uuid.NewString
	NewID func() string

	// MaxWrites caps the writes committed by one unit of work. Operations
	// that plan more are committed in consecutive units. A backend that
	// implements store.WriteLimiter lowers the cap to its own limit.
	// Default: 0 (no cap)
	MaxWrites int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Logger:  slog.Default(),
		Metrics: noopMetrics{},
		Clock:   time.Now,
		NewID:   uuid.NewString,
	}
}

// validate fills defaults for unset fields.
func (c *Config) validate() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.Metrics == nil {
		c.Metrics = noopMetrics{}
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.NewID == nil {
		c.NewID = uuid.NewString
	}
	if c.MaxWrites < 0 {
		c.MaxWrites = 0
	}
}
