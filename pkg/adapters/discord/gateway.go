package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/muster/pkg/domain"
	"github.com/bwmarrin/discordgo"
)

// API is the subset of *discordgo.Session used by the adapter.
type API interface {
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
}

// Permissions granted to every member of a private game channel.
const memberPermissions = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionReadMessageHistory

// Gateway implements ports.Gateway with the Discord REST API.
type Gateway struct {
	api API
}

// NewGateway creates a Gateway. api is usually a *discordgo.Session.
func NewGateway(api API) *Gateway {
	return &Gateway{api: api}
}

// SendMessage posts msg to channelID. User mentions only ping when msg.Mentions is set.
func (g *Gateway) SendMessage(ctx context.Context, channelID string, msg domain.Message) error {
	_, err := g.api.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content:         msg.Content,
		AllowedMentions: allowedMentions(msg),
	}, discordgo.WithContext(ctx))
	return err
}

// CreatePrivateChannel creates a text channel hidden from @everyone and visible to spec.Access.
func (g *Gateway) CreatePrivateChannel(ctx context.Context, spec domain.ChannelSpec) (*domain.Channel, error) {
	ch, err := g.api.GuildChannelCreateComplex(spec.Scope, discordgo.GuildChannelCreateData{
		Name:                 spec.Name,
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             spec.CategoryID,
		PermissionOverwrites: overwrites(spec.Access),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return toChannel(ch), nil
}

// GetChannel looks up channelID and checks that it belongs to the guild scope.
func (g *Gateway) GetChannel(ctx context.Context, scope, channelID string) (*domain.Channel, error) {
	ch, err := g.api.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrChannelNotFound, channelID)
		}
		return nil, err
	}
	if scope != "" && ch.GuildID != scope {
		return nil, fmt.Errorf("%w: %s is not in guild %s", domain.ErrChannelNotFound, channelID, scope)
	}
	return toChannel(ch), nil
}

// overwrites denies the guild's @everyone role (whose ID equals the guild ID)
// and allows each member of access.
func overwrites(access domain.AccessList) []*discordgo.PermissionOverwrite {
	out := make([]*discordgo.PermissionOverwrite, 0, len(access.Members)+1)
	out = append(out, &discordgo.PermissionOverwrite{
		ID:   access.Scope,
		Type: discordgo.PermissionOverwriteTypeRole,
		Deny: discordgo.PermissionViewChannel,
	})
	for _, id := range access.Members {
		out = append(out, &discordgo.PermissionOverwrite{
			ID:    id,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: memberPermissions,
		})
	}
	return out
}

func allowedMentions(msg domain.Message) *discordgo.MessageAllowedMentions {
	if !msg.Mentions {
		return &discordgo.MessageAllowedMentions{Parse: []discordgo.AllowedMentionType{}}
	}
	return &discordgo.MessageAllowedMentions{
		Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers},
	}
}

func toChannel(ch *discordgo.Channel) *domain.Channel {
	return &domain.Channel{ID: ch.ID, Name: ch.Name, Mention: ch.Mention()}
}

func isNotFound(err error) bool {
	var restErr *discordgo.RESTError
	return errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound
}
