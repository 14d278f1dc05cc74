package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/muster/internal/logging"
	"github.com/aretw0/muster/pkg/coordinator"
	"github.com/aretw0/muster/pkg/domain"
	"github.com/aretw0/muster/pkg/registry"
	"github.com/bwmarrin/discordgo"
)

// Responder is the subset of *discordgo.Session used to answer interactions.
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionResponseDelete(interaction *discordgo.Interaction, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Dispatcher routes slash-command interactions to a registry and answers them.
type Dispatcher struct {
	session  *discordgo.Session
	registry *registry.Registry
	guildID  string
	logger   *slog.Logger

	ctx    context.Context
	remove func()
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithGuild registers the commands in a single guild instead of globally.
// Guild commands are available immediately, global ones may take up to an hour.
func WithGuild(guildID string) DispatcherOption {
	return func(d *Dispatcher) {
		d.guildID = guildID
	}
}

// WithDispatcherLogger sets the logger.
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a Dispatcher on an unopened session.
func NewDispatcher(session *discordgo.Session, reg *registry.Registry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		session:  session,
		registry: reg,
		logger:   logging.NewNop(),
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open connects to the Discord gateway and registers the slash commands.
// ctx bounds the command handlers until Close is called.
func (d *Dispatcher) Open(ctx context.Context) error {
	d.ctx = ctx
	d.session.Identify.Intents = discordgo.IntentsGuilds
	d.remove = d.session.AddHandler(d.onInteraction)

	if err := d.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}

	appID := d.session.State.User.ID
	cmds := ApplicationCommands(d.registry.Commands())
	if _, err := d.session.ApplicationCommandBulkOverwrite(appID, d.guildID, cmds, discordgo.WithContext(ctx)); err != nil {
		return errors.Join(fmt.Errorf("failed to register commands: %w", err), d.session.Close())
	}
	d.logger.Info("Discord dispatcher ready", "user", d.session.State.User.Username, "commands", len(cmds), "guild_id", d.guildID)
	return nil
}

// Close removes the interaction handler and disconnects.
func (d *Dispatcher) Close() error {
	if d.remove != nil {
		d.remove()
	}
	return d.session.Close()
}

func (d *Dispatcher) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	d.dispatch(d.ctx, s, i)
}

// dispatch acknowledges i before running its command, since Discord drops interactions
// not answered within three seconds and finalizing a game takes several REST calls.
// The deferred reply is then edited with the result; errors replace it with an
// ephemeral followup only the invoker sees.
func (d *Dispatcher) dispatch(ctx context.Context, r Responder, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()

	if i.GuildID == "" {
		d.respond(ctx, r, i, domain.Message{Content: "This command only works in a server.", Ephemeral: true})
		return
	}

	err := r.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}, discordgo.WithContext(ctx))
	if err != nil {
		d.logger.Error("Failed to acknowledge interaction", "err", err, "interaction_id", i.ID)
		return
	}

	inv := invocation(i)
	msg, err := d.registry.Reply(ctx, data.Name, inv, options(data.Options))
	if err != nil && !coordinator.IsUserError(err) {
		d.logger.Error("Command failed", "err", err, "command", data.Name, "scope", inv.Scope, "user_id", inv.UserID)
	}

	if !msg.Ephemeral {
		content := msg.Content
		_, err := r.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
			Content:         &content,
			AllowedMentions: allowedMentions(msg),
		}, discordgo.WithContext(ctx))
		if err != nil {
			d.logger.Error("Failed to deliver command reply", "err", err, "interaction_id", i.ID)
		}
		return
	}

	// The deferred reply is public, so drop it and answer privately.
	if err := r.InteractionResponseDelete(i.Interaction, discordgo.WithContext(ctx)); err != nil {
		d.logger.Warn("Failed to delete deferred reply", "err", err, "interaction_id", i.ID)
	}
	_, err = r.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content:         msg.Content,
		Flags:           discordgo.MessageFlagsEphemeral,
		AllowedMentions: allowedMentions(msg),
	}, discordgo.WithContext(ctx))
	if err != nil {
		d.logger.Error("Failed to deliver ephemeral reply", "err", err, "interaction_id", i.ID)
	}
}

func (d *Dispatcher) respond(ctx context.Context, r Responder, i *discordgo.InteractionCreate, msg domain.Message) {
	if err := r.InteractionRespond(i.Interaction, response(msg), discordgo.WithContext(ctx)); err != nil {
		d.logger.Error("Failed to respond to interaction", "err", err, "interaction_id", i.ID)
	}
}

func invocation(i *discordgo.InteractionCreate) domain.Invocation {
	inv := domain.Invocation{Scope: i.GuildID, ChannelID: i.ChannelID}
	switch {
	case i.Member != nil && i.Member.User != nil:
		inv.UserID = i.Member.User.ID
	case i.User != nil:
		inv.UserID = i.User.ID
	}
	return inv
}

func options(opts []*discordgo.ApplicationCommandInteractionDataOption) map[string]any {
	args := make(map[string]any, len(opts))
	for _, opt := range opts {
		args[opt.Name] = opt.Value
	}
	return args
}

func response(msg domain.Message) *discordgo.InteractionResponse {
	data := &discordgo.InteractionResponseData{
		Content:         msg.Content,
		AllowedMentions: allowedMentions(msg),
	}
	if msg.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}
}
