package observability

import (
	"context"
	"net/http"

	"github.com/aretw0/muster/pkg/coordinator"
	"github.com/aretw0/muster/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Metrics holds the Prometheus collectors fed by coordinator hooks.
type Metrics struct {
	gatherer prometheus.Gatherer

	commands        *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	optedIn         *prometheus.GaugeVec
	active          *prometheus.GaugeVec
	gatewayCalls    *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg uses a fresh private registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		gatherer: reg,
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "muster_commands_total",
				Help: "Total number of coordination commands by outcome",
			},
			[]string{"operation", "outcome"},
		),
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "muster_command_duration_seconds",
				Help:    "Duration of coordination commands, gateway calls included",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		optedIn: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "muster_opted_in_players",
				Help: "Players currently opted in, per scope",
			},
			[]string{"scope"},
		),
		active: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "muster_session_active",
				Help: "1 while a coordination is in progress, per scope",
			},
			[]string{"scope"},
		),
		gatewayCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "muster_gateway_calls_total",
				Help: "Total number of chat platform calls by outcome",
			},
			[]string{"call", "outcome"},
		),
		gatewayDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "muster_gateway_call_duration_seconds",
				Help:    "Duration of chat platform calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"call"},
		),
	}
	reg.MustRegister(m.commands, m.commandDuration, m.optedIn, m.active, m.gatewayCalls, m.gatewayDuration)
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCommand: func(ctx context.Context, e *domain.CommandEvent) {
			op := string(e.Operation)
			m.commands.WithLabelValues(op, outcome(e.Err)).Inc()
			m.commandDuration.WithLabelValues(op).Observe(e.Duration.Seconds())
			if e.Err == nil {
				m.optedIn.WithLabelValues(e.Scope).Set(float64(e.OptedIn))
				m.active.WithLabelValues(e.Scope).Set(boolGauge(e.Active))
			}
		},
		OnGateway: func(ctx context.Context, e *domain.GatewayEvent) {
			result := OutcomeOK
			if e.Err != nil {
				result = OutcomeFailed
			}
			m.gatewayCalls.WithLabelValues(e.Call, result).Inc()
			m.gatewayDuration.WithLabelValues(e.Call).Observe(e.Duration.Seconds())
		},
	}
}

// Handler serves the collected metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case coordinator.IsUserError(err):
		return OutcomeRejected
	default:
		return OutcomeFailed
	}
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
