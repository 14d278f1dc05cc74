package muster

import (
	"log/slog"
	"time"

	"github.com/aretw0/muster/internal/logging"
	"github.com/aretw0/muster/pkg/adapters/memory"
	"github.com/aretw0/muster/pkg/coordinator"
	"github.com/aretw0/muster/pkg/domain"
	"github.com/aretw0/muster/pkg/observability"
	"github.com/aretw0/muster/pkg/ports"
	"github.com/aretw0/muster/pkg/registry"
	"github.com/aretw0/muster/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
)

// Bot is the high-level entry point for the muster library.
// It wires the session manager, the coordinator, the command registry and the
// metrics together so dispatchers only need a Registry.
type Bot struct {
	coordinator *coordinator.Coordinator
	registry    *registry.Registry
	sessions    *session.Manager
	metrics     *observability.Metrics

	store   ports.SessionStore
	locker  ports.DistributedLocker
	lockTTL time.Duration
	hooks   domain.LifecycleHooks
	promReg *prometheus.Registry
	logger  *slog.Logger
}

// Option defines a functional option for configuring the Bot.
type Option func(*Bot)

// WithStore replaces the default in-memory session store.
func WithStore(store ports.SessionStore) Option {
	return func(b *Bot) {
		b.store = store
	}
}

// WithLocker enables distributed locking across replicas. Pair it with WithStore on a
// store the replicas share; ttl must outlive coordinator.Config.LockBudget.
func WithLocker(locker ports.DistributedLocker, ttl time.Duration) Option {
	return func(b *Bot) {
		b.locker = locker
		b.lockTTL = ttl
	}
}

// WithLifecycleHooks registers additional observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(b *Bot) {
		b.hooks = hooks
	}
}

// WithPrometheusRegistry registers the bot metrics on reg instead of a private registry.
func WithPrometheusRegistry(reg *prometheus.Registry) Option {
	return func(b *Bot) {
		b.promReg = reg
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bot) {
		b.logger = logger
	}
}

// New assembles a Bot around the given chat platform.
func New(gateway ports.Gateway, grantor ports.PermissionGrantor, cfg coordinator.Config, opts ...Option) *Bot {
	b := &Bot{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(b)
	}
	if b.store == nil {
		b.store = memory.NewStore()
	}

	sessionOpts := []session.Option{session.WithLogger(b.logger)}
	if b.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(b.locker), session.WithLockTTL(b.lockTTL))
	}
	b.sessions = session.NewManager(b.store, sessionOpts...)

	b.metrics = observability.NewMetrics(b.promReg)
	b.coordinator = coordinator.New(b.sessions, gateway, grantor, cfg,
		coordinator.WithLogger(b.logger),
		coordinator.WithLifecycleHooks(observability.Chain(b.metrics.Hooks(), b.hooks)),
	)
	b.registry = registry.ForCoordinator(b.coordinator)
	return b
}

// Coordinator returns the underlying state machine.
func (b *Bot) Coordinator() *coordinator.Coordinator {
	return b.coordinator
}

// Registry returns the command table shared by dispatchers.
func (b *Bot) Registry() *registry.Registry {
	return b.registry
}

// Metrics returns the Prometheus collectors.
func (b *Bot) Metrics() *observability.Metrics {
	return b.metrics
}
