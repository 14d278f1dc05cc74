package coordinator

import (
	"log/slog"
	"time"

	"github.com/aretw0/muster/pkg/domain"
)

// DefaultGatewayTimeout bounds every single call to the chat platform.
const DefaultGatewayTimeout = 10 * time.Second

// DefaultTimeSlots are announced when a session starts.
var DefaultTimeSlots = []string{"3 PM EST", "9 PM CET"}

// Config holds the externally configurable values of a coordinator.
type Config struct {
	// MaxPlayers caps the opt-in set.
	MaxPlayers int
	// CoordinationChannelID receives the summary of every finalized game.
	CoordinationChannelID string
	// CategoryID is the parent of newly created game channels (optional).
	CategoryID string
	// TimeSlots lists the canonical play times announced on start.
	TimeSlots []string
	// ChannelPrefix prefixes every game channel name.
	ChannelPrefix string
	// GatewayTimeout bounds each chat-platform call. Zero disables the bound.
	GatewayTimeout time.Duration
}

// finalizeCalls is the number of chat-platform calls Finalize makes under the scope lock.
const finalizeCalls = 4

// LockBudget is the longest a single operation waits on the chat platform while
// holding the scope lock. A distributed lock must outlive it. Zero means unbounded.
func (c Config) LockBudget() time.Duration {
	return finalizeCalls * c.GatewayTimeout
}

func (c Config) withDefaults() Config {
	if c.MaxPlayers <= 0 {
		c.MaxPlayers = domain.DefaultMaxPlayers
	}
	if len(c.TimeSlots) == 0 {
		c.TimeSlots = DefaultTimeSlots
	}
	if c.ChannelPrefix == "" {
		c.ChannelPrefix = domain.DefaultChannelPrefix
	}
	return c
}

// Option configures the Coordinator.
type Option func(*Coordinator)

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *Coordinator) {
		c.hooks = hooks
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		c.now = now
	}
}
