package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/muster/internal/logging"
	"github.com/aretw0/muster/pkg/domain"
	"github.com/aretw0/muster/pkg/ports"
	"github.com/aretw0/muster/pkg/session"
)

// FinalizeArgs carries the game identity assigned by the initiator.
type FinalizeArgs struct {
	GameID    string `json:"game_id" mapstructure:"game_id"`
	Continent string `json:"continent" mapstructure:"continent"`
	Codename  string `json:"codename" mapstructure:"codename"`
}

func (a FinalizeArgs) normalized() (FinalizeArgs, error) {
	a.GameID = strings.TrimSpace(a.GameID)
	a.Continent = strings.TrimSpace(a.Continent)
	a.Codename = strings.TrimSpace(a.Codename)
	if a.GameID == "" || a.Continent == "" || a.Codename == "" {
		return a, fmt.Errorf("%w: game_id, continent and codename are required", domain.ErrInvalidArgument)
	}
	return a, nil
}

// Coordinator drives the coordination state machine of every scope.
// Safe for concurrent use: each operation runs under the scope lock of the Manager.
type Coordinator struct {
	sessions *session.Manager
	gateway  ports.Gateway
	grantor  ports.PermissionGrantor
	cfg      Config

	logger *slog.Logger
	hooks  domain.LifecycleHooks
	now    func() time.Time
}

// New creates a Coordinator.
func New(sessions *session.Manager, gateway ports.Gateway, grantor ports.PermissionGrantor, cfg Config, opts ...Option) *Coordinator {
	c := &Coordinator{
		sessions: sessions,
		gateway:  gateway,
		grantor:  grantor,
		cfg:      cfg.withDefaults(),
		logger:   logging.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config returns the effective configuration.
func (c *Coordinator) Config() Config {
	return c.cfg
}

// Start opens a new session in inv.Scope with inv.UserID as initiator.
// It fails with domain.ErrAlreadyActive while another session is in progress.
func (c *Coordinator) Start(ctx context.Context, inv domain.Invocation) (domain.Message, error) {
	var reply domain.Message
	err := c.run(ctx, domain.OpStart, inv, func(ctx context.Context, s *domain.Session) (bool, error) {
		if s.Active {
			return false, domain.ErrAlreadyActive
		}
		*s = *domain.NewSession(inv, c.now())
		reply = startedMessage(inv.UserID, c.cfg.TimeSlots)
		return true, nil
	})
	return reply, err
}

// OptIn adds the caller to the opt-in set.
func (c *Coordinator) OptIn(ctx context.Context, inv domain.Invocation) (domain.Message, error) {
	var reply domain.Message
	err := c.run(ctx, domain.OpOptIn, inv, func(ctx context.Context, s *domain.Session) (bool, error) {
		if !s.Active {
			return false, domain.ErrNotActive
		}
		if s.HasOptedIn(inv.UserID) {
			return false, domain.ErrAlreadyOptedIn
		}
		if len(s.OptedIn) >= c.cfg.MaxPlayers {
			return false, domain.ErrFull
		}
		s.AddOptIn(inv.UserID)
		reply = domain.Message{
			Content: fmt.Sprintf("%s opted in. (%d/%d)", domain.MentionUser(inv.UserID), len(s.OptedIn), c.cfg.MaxPlayers),
		}
		return true, nil
	})
	return reply, err
}

// OptOut removes the caller from the opt-in set and records the opt-out.
// It succeeds whether or not the caller had opted in.
func (c *Coordinator) OptOut(ctx context.Context, inv domain.Invocation) (domain.Message, error) {
	var reply domain.Message
	err := c.run(ctx, domain.OpOptOut, inv, func(ctx context.Context, s *domain.Session) (bool, error) {
		if !s.Active {
			return false, domain.ErrNotActive
		}
		s.RemoveOptIn(inv.UserID)
		s.AddOptOut(inv.UserID)
		reply = domain.Message{Content: fmt.Sprintf("%s opted out.", domain.MentionUser(inv.UserID))}
		return true, nil
	})
	return reply, err
}

// FinishOptIn announces that the opt-in phase is over. It does not change the session.
func (c *Coordinator) FinishOptIn(ctx context.Context, inv domain.Invocation) (domain.Message, error) {
	var reply domain.Message
	err := c.run(ctx, domain.OpFinishOptIn, inv, func(ctx context.Context, s *domain.Session) (bool, error) {
		if !s.IsInitiator(inv.UserID) {
			return false, domain.ErrNotAuthorized
		}
		if !s.Active {
			return false, domain.ErrNotActive
		}
		reply = domain.Message{
			Content: fmt.Sprintf("Opt-in phase closed. Initiator can now assign a game ID using /%s.", domain.OpFinalize),
		}
		return false, nil
	})
	return reply, err
}

// Finalize assigns the game identity, creates the private game channel and posts the
// summary to the coordination channel. The session only leaves Active once all of
// that succeeded; on a gateway failure it stays Active and Finalize can be retried.
func (c *Coordinator) Finalize(ctx context.Context, inv domain.Invocation, args FinalizeArgs) (domain.Message, error) {
	var reply domain.Message
	err := c.run(ctx, domain.OpFinalize, inv, func(ctx context.Context, s *domain.Session) (bool, error) {
		if !s.IsInitiator(inv.UserID) {
			return false, domain.ErrNotAuthorized
		}
		if !s.Active {
			return false, domain.ErrNotActive
		}
		args, err := args.normalized()
		if err != nil {
			return false, err
		}
		if len(s.OptedIn) == 0 {
			return false, domain.ErrNoParticipants
		}

		var coord *domain.Channel
		err = c.call(ctx, inv.Scope, "get_channel", func(ctx context.Context) error {
			var err error
			coord, err = c.gateway.GetChannel(ctx, inv.Scope, c.cfg.CoordinationChannelID)
			return err
		})
		if err != nil {
			return false, err
		}

		name := domain.ChannelSlug(c.cfg.ChannelPrefix, args.GameID, args.Continent, args.Codename)
		created := false
		if s.GameChannelID == "" || s.GameChannelName != name {
			if s.GameChannelID != "" {
				c.logger.Warn("Abandoning game channel from an earlier finalize attempt",
					"scope", inv.Scope,
					"channel_id", s.GameChannelID,
					"channel_name", s.GameChannelName,
					"new_name", name,
				)
			}
			var access domain.AccessList
			err = c.call(ctx, inv.Scope, "grant", func(ctx context.Context) error {
				var err error
				access, err = c.grantor.Grant(ctx, inv.Scope, s.OptedIn)
				return err
			})
			if err != nil {
				return false, err
			}

			var ch *domain.Channel
			err = c.call(ctx, inv.Scope, "create_channel", func(ctx context.Context) error {
				var err error
				ch, err = c.gateway.CreatePrivateChannel(ctx, domain.ChannelSpec{
					Scope:      inv.Scope,
					Name:       name,
					CategoryID: c.cfg.CategoryID,
					Access:     access,
				})
				return err
			})
			if err != nil {
				return false, err
			}
			s.GameChannelID = ch.ID
			s.GameChannelName = name
			created = true
		} else {
			c.logger.Info("Reusing game channel from an earlier finalize attempt",
				"scope", inv.Scope,
				"channel_id", s.GameChannelID,
			)
		}

		s.GameID, s.Continent, s.Codename = args.GameID, args.Continent, args.Codename
		channelMention := domain.MentionChannel(s.GameChannelID)

		err = c.call(ctx, inv.Scope, "send_summary", func(ctx context.Context) error {
			return c.gateway.SendMessage(ctx, coord.ID, summaryMessage(s, channelMention))
		})
		if err != nil {
			// Keep the created channel on record so a retry does not duplicate it.
			return created, err
		}

		s.Active = false
		reply = domain.Message{Content: fmt.Sprintf("Game ID set. Created game channel %s.", channelMention)}
		return true, nil
	})
	return reply, err
}

// Cancel ends the active session without creating anything.
func (c *Coordinator) Cancel(ctx context.Context, inv domain.Invocation) (domain.Message, error) {
	var reply domain.Message
	err := c.run(ctx, domain.OpCancel, inv, func(ctx context.Context, s *domain.Session) (bool, error) {
		if !s.IsInitiator(inv.UserID) {
			return false, domain.ErrNotAuthorized
		}
		if !s.Active {
			return false, domain.ErrNotActive
		}
		s.Active = false
		reply = domain.Message{Content: "❌ Game coordination has been cancelled."}
		return true, nil
	})
	return reply, err
}

// Snapshot returns a copy of the scope's session. Idle scopes yield an inactive session.
func (c *Coordinator) Snapshot(ctx context.Context, scope string) (*domain.Session, error) {
	return c.sessions.Load(ctx, scope)
}

// Scopes lists every scope that has held a session.
func (c *Coordinator) Scopes(ctx context.Context) ([]string, error) {
	return c.sessions.List(ctx)
}

// run applies fn under the scope lock and reports the outcome to logs and hooks.
func (c *Coordinator) run(ctx context.Context, op domain.Operation, inv domain.Invocation, fn session.Mutation) error {
	start := c.now()
	var optedIn int
	var active bool

	err := c.sessions.Update(ctx, inv.Scope, func(ctx context.Context, s *domain.Session) (bool, error) {
		save, err := fn(ctx, s)
		optedIn, active = len(s.OptedIn), s.Active
		return save, err
	})

	switch {
	case err == nil:
		c.logger.Info("Command applied", "op", op, "scope", inv.Scope, "user_id", inv.UserID, "opted_in", optedIn, "active", active)
	case IsUserError(err):
		c.logger.Debug("Command rejected", "op", op, "scope", inv.Scope, "user_id", inv.UserID, "err", err)
	default:
		c.logger.Warn("Command failed", "op", op, "scope", inv.Scope, "user_id", inv.UserID, "err", err)
	}

	if c.hooks.OnCommand != nil {
		c.hooks.OnCommand(ctx, &domain.CommandEvent{
			Timestamp: start,
			Operation: op,
			Scope:     inv.Scope,
			UserID:    inv.UserID,
			Err:       err,
			OptedIn:   optedIn,
			Active:    active,
			Duration:  c.now().Sub(start),
		})
	}
	return err
}

// call runs a single chat-platform call with the configured timeout and wraps
// any failure in domain.ErrGateway.
func (c *Coordinator) call(ctx context.Context, scope, name string, fn func(context.Context) error) error {
	if c.cfg.GatewayTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.GatewayTimeout)
		defer cancel()
	}

	start := c.now()
	err := fn(ctx)
	if c.hooks.OnGateway != nil {
		c.hooks.OnGateway(ctx, &domain.GatewayEvent{
			Timestamp: start,
			Call:      name,
			Scope:     scope,
			Err:       err,
			Duration:  c.now().Sub(start),
		})
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrGateway, name, err)
	}
	return nil
}

// IsUserError reports whether err is a rejection caused by the caller rather than a
// failure of the system.
func IsUserError(err error) bool {
	for _, target := range []error{
		domain.ErrNotActive,
		domain.ErrAlreadyActive,
		domain.ErrAlreadyOptedIn,
		domain.ErrFull,
		domain.ErrNotAuthorized,
		domain.ErrNoParticipants,
		domain.ErrInvalidArgument,
		domain.ErrUnknownCommand,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
