package discord

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/muster"
	"github.com/aretw0/muster/pkg/adapters/memory"
	"github.com/aretw0/muster/pkg/coordinator"
	"github.com/aretw0/muster/pkg/domain"
	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	channels map[string]*discordgo.Channel
	members  map[string]bool
	sent     []*discordgo.MessageSend
	created  []discordgo.GuildChannelCreateData
	fail     error
}

func notFound() error {
	return &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound, Status: "404 Not Found"}}
}

func (f *fakeAPI) Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, notFound()
	}
	return ch, nil
}

func (f *fakeAPI) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.sent = append(f.sent, data)
	return &discordgo.Message{ChannelID: channelID, Content: data.Content}, nil
}

func (f *fakeAPI) GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	f.created = append(f.created, data)
	return &discordgo.Channel{ID: "new-1", GuildID: guildID, Name: data.Name}, nil
}

func (f *fakeAPI) GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	if !f.members[userID] {
		return nil, notFound()
	}
	return &discordgo.Member{GuildID: guildID, User: &discordgo.User{ID: userID}}, nil
}

func TestGateway_GetChannel(t *testing.T) {
	api := &fakeAPI{channels: map[string]*discordgo.Channel{
		"coord": {ID: "coord", GuildID: "g1", Name: "game-coordination"},
	}}
	gw := NewGateway(api)
	ctx := context.Background()

	ch, err := gw.GetChannel(ctx, "g1", "coord")
	require.NoError(t, err)
	assert.Equal(t, "<#coord>", ch.Mention)
	assert.Equal(t, "game-coordination", ch.Name)

	_, err = gw.GetChannel(ctx, "g1", "missing")
	assert.ErrorIs(t, err, domain.ErrChannelNotFound)

	_, err = gw.GetChannel(ctx, "other-guild", "coord")
	assert.ErrorIs(t, err, domain.ErrChannelNotFound)

	api.fail = errors.New("boom")
	_, err = gw.GetChannel(ctx, "g1", "coord")
	assert.EqualError(t, err, "boom")
}

func TestGateway_CreatePrivateChannel(t *testing.T) {
	api := &fakeAPI{}
	gw := NewGateway(api)

	ch, err := gw.CreatePrivateChannel(context.Background(), domain.ChannelSpec{
		Scope:      "g1",
		Name:       "gm53-europe-eagle",
		CategoryID: "cat",
		Access:     domain.AccessList{Scope: "g1", Members: []string{"u2", "u3"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "new-1", ch.ID)

	require.Len(t, api.created, 1)
	data := api.created[0]
	assert.Equal(t, "gm53-europe-eagle", data.Name)
	assert.Equal(t, "cat", data.ParentID)
	assert.Equal(t, discordgo.ChannelTypeGuildText, data.Type)

	require.Len(t, data.PermissionOverwrites, 3)
	everyone := data.PermissionOverwrites[0]
	assert.Equal(t, "g1", everyone.ID)
	assert.Equal(t, discordgo.PermissionOverwriteTypeRole, everyone.Type)
	assert.Equal(t, int64(discordgo.PermissionViewChannel), everyone.Deny)
	for i, id := range []string{"u2", "u3"} {
		ow := data.PermissionOverwrites[i+1]
		assert.Equal(t, id, ow.ID)
		assert.Equal(t, discordgo.PermissionOverwriteTypeMember, ow.Type)
		assert.NotZero(t, ow.Allow&discordgo.PermissionViewChannel)
		assert.NotZero(t, ow.Allow&discordgo.PermissionSendMessages)
	}
}

func TestGateway_SendMessageMentions(t *testing.T) {
	api := &fakeAPI{}
	gw := NewGateway(api)
	ctx := context.Background()

	require.NoError(t, gw.SendMessage(ctx, "coord", domain.Message{Content: "hi <@u1>", Mentions: true}))
	require.NoError(t, gw.SendMessage(ctx, "coord", domain.Message{Content: "quiet <@u1>"}))

	require.Len(t, api.sent, 2)
	assert.Equal(t, []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers}, api.sent[0].AllowedMentions.Parse)
	assert.Empty(t, api.sent[1].AllowedMentions.Parse)
}

func TestGrantor_SkipsMissingMembers(t *testing.T) {
	api := &fakeAPI{members: map[string]bool{"u1": true, "u3": true}}
	g := NewGrantor(api, nil)

	access, err := g.Grant(context.Background(), "g1", []string{"u1", "u2", "u3"})
	require.NoError(t, err)
	assert.Equal(t, "g1", access.Scope)
	assert.Equal(t, []string{"u1", "u3"}, access.Members)

	_, err = g.Grant(context.Background(), "g1", []string{"u2"})
	assert.Error(t, err)

	api.fail = errors.New("rate limited")
	_, err = g.Grant(context.Background(), "g1", []string{"u1"})
	assert.EqualError(t, err, "rate limited")
}

func TestApplicationCommands(t *testing.T) {
	bot := muster.New(memory.NewGateway(), memory.Grantor{}, coordinator.Config{})
	cmds := ApplicationCommands(bot.Registry().Commands())

	names := make([]string, 0, len(cmds))
	for _, c := range cmds {
		names = append(names, c.Name)
		assert.NotEmpty(t, c.Description)
	}
	assert.Equal(t, []string{"start_game", "opt_in", "opt_out", "finish_optin", "set_game_id", "cancel_game"}, names)

	finalize := cmds[4]
	require.Len(t, finalize.Options, 3)
	for _, opt := range finalize.Options {
		assert.Equal(t, discordgo.ApplicationCommandOptionString, opt.Type)
		assert.True(t, opt.Required)
	}
}

func slashCommand(guildID, userID, name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:        "i-1",
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   guildID,
		ChannelID: "coord",
		Member:    &discordgo.Member{User: &discordgo.User{ID: userID}},
		Data:      discordgo.ApplicationCommandInteractionData{Name: name, Options: opts},
	}}
}

func stringOption(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{
		Name:  name,
		Type:  discordgo.ApplicationCommandOptionString,
		Value: value,
	}
}

// recorder is a Responder that logs every answer into a shared event list.
type recorder struct {
	mu     sync.Mutex
	events *[]string

	responses []*discordgo.InteractionResponse
	edits     []*discordgo.WebhookEdit
	followups []*discordgo.WebhookParams
}

func (r *recorder) log(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.events = append(*r.events, event)
}

func (r *recorder) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	r.responses = append(r.responses, resp)
	if resp.Type == discordgo.InteractionResponseDeferredChannelMessageWithSource {
		r.log("defer")
	} else {
		r.log("respond")
	}
	return nil
}

func (r *recorder) InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	r.edits = append(r.edits, newresp)
	r.log("edit")
	return &discordgo.Message{}, nil
}

func (r *recorder) InteractionResponseDelete(interaction *discordgo.Interaction, options ...discordgo.RequestOption) error {
	r.log("delete")
	return nil
}

func (r *recorder) FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	r.followups = append(r.followups, data)
	r.log("followup")
	return &discordgo.Message{}, nil
}

func newDispatcherFixture() (*Dispatcher, *memory.Gateway, *recorder, *[]string) {
	var events []string
	rec := &recorder{events: &events}
	gw := memory.NewGateway("coord")
	gw.OnMessage = func(channelID string, msg domain.Message) {
		time.Sleep(20 * time.Millisecond)
		rec.log("summary")
	}
	bot := muster.New(gw, memory.Grantor{}, coordinator.Config{CoordinationChannelID: "coord"})
	return NewDispatcher(nil, bot.Registry()), gw, rec, &events
}

func TestDispatcher_DefersBeforeSlowFinalize(t *testing.T) {
	d, gw, rec, events := newDispatcherFixture()
	ctx := context.Background()

	d.dispatch(ctx, rec, slashCommand("g1", "u1", "start_game"))
	d.dispatch(ctx, rec, slashCommand("g1", "u2", "opt_in"))
	*events = nil

	d.dispatch(ctx, rec, slashCommand("g1", "u1", "set_game_id",
		stringOption("game_id", "12353"),
		stringOption("continent", "Europe"),
		stringOption("codename", "Eagle"),
	))

	assert.Equal(t, []string{"defer", "summary", "edit"}, *events)
	last := rec.edits[len(rec.edits)-1]
	require.NotNil(t, last.Content)
	assert.Contains(t, *last.Content, "Game ID set.")

	created := gw.Created()
	require.Len(t, created, 1)
	assert.Equal(t, "gm53-europe-eagle", created[0].Name)
}

func TestDispatcher_RepliesThroughDeferredResponse(t *testing.T) {
	d, _, rec, events := newDispatcherFixture()
	ctx := context.Background()

	d.dispatch(ctx, rec, slashCommand("g1", "u1", "start_game"))
	assert.Equal(t, []string{"defer", "edit"}, *events)
	assert.Contains(t, *rec.edits[0].Content, "New game coordination started by <@u1>!")
	assert.Equal(t, []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeUsers}, rec.edits[0].AllowedMentions.Parse)

	d.dispatch(ctx, rec, slashCommand("g1", "u2", "opt_in"))
	assert.Equal(t, "<@u2> opted in. (1/5)", *rec.edits[1].Content)
}

func TestDispatcher_ErrorsAreEphemeralFollowups(t *testing.T) {
	d, _, rec, events := newDispatcherFixture()
	ctx := context.Background()

	d.dispatch(ctx, rec, slashCommand("g1", "u1", "start_game"))
	*events = nil

	d.dispatch(ctx, rec, slashCommand("g1", "u2", "cancel_game"))
	assert.Equal(t, []string{"defer", "delete", "followup"}, *events)
	require.Len(t, rec.followups, 1)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, rec.followups[0].Flags)
	assert.Equal(t, "Only the game initiator can cancel the game coordination.", rec.followups[0].Content)
}

func TestDispatcher_OutsideGuild(t *testing.T) {
	d, _, rec, events := newDispatcherFixture()

	i := slashCommand("", "u1", "start_game")
	i.Member = nil
	i.User = &discordgo.User{ID: "u1"}

	d.dispatch(context.Background(), rec, i)
	assert.Equal(t, []string{"respond"}, *events)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, rec.responses[0].Data.Flags)

	d.dispatch(context.Background(), rec, &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{Type: discordgo.InteractionPing}})
	assert.Len(t, *events, 1)
}

func TestInvocation(t *testing.T) {
	i := slashCommand("g1", "u1", "opt_in")
	assert.Equal(t, domain.Invocation{Scope: "g1", ChannelID: "coord", UserID: "u1"}, invocation(i))

	i.Member = nil
	i.User = &discordgo.User{ID: "u9"}
	assert.Equal(t, "u9", invocation(i).UserID)
}
