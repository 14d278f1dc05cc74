package domain

import (
	"context"
	"time"
)

// Operation names a coordinator operation. The values double as command names.
type Operation string

const (
	OpStart       Operation = "start_game"
	OpOptIn       Operation = "opt_in"
	OpOptOut      Operation = "opt_out"
	OpFinishOptIn Operation = "finish_optin"
	OpFinalize    Operation = "set_game_id"
	OpCancel      Operation = "cancel_game"
)

// CommandEvent is emitted after every coordinator operation.
type CommandEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Operation Operation     `json:"operation"`
	Scope     string        `json:"scope"`
	UserID    string        `json:"user_id"`
	Err       error         `json:"-"`
	OptedIn   int           `json:"opted_in"`
	Active    bool          `json:"active"`
	Duration  time.Duration `json:"duration"`
}

// GatewayEvent is emitted after every call to the chat platform.
type GatewayEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Call      string        `json:"call"`
	Scope     string        `json:"scope"`
	Err       error         `json:"-"`
	Duration  time.Duration `json:"duration"`
}

// LifecycleHooks defines callbacks for coordinator observability.
type LifecycleHooks struct {
	OnCommand func(context.Context, *CommandEvent)
	OnGateway func(context.Context, *GatewayEvent)
}
