package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/aretw0/muster/pkg/domain"
)

// SentMessage is a message recorded by Gateway.
type SentMessage struct {
	ChannelID string
	Message   domain.Message
}

// Gateway implements ports.Gateway without any network.
// It is used by the console dispatcher and by tests.
// Safe for concurrent use.
type Gateway struct {
	mu       sync.Mutex
	channels map[string]*domain.Channel
	created  []domain.ChannelSpec
	sent     []SentMessage
	nextID   int

	// Failure injection. A non-nil error is returned by the matching call.
	FailGet    error
	FailCreate error
	FailSend   error

	// OnMessage, if set, observes every message sent.
	OnMessage func(channelID string, msg domain.Message)
}

// NewGateway creates a gateway that knows the given channels (e.g. the coordination channel).
func NewGateway(knownChannels ...string) *Gateway {
	g := &Gateway{channels: make(map[string]*domain.Channel)}
	for _, id := range knownChannels {
		g.AddChannel(id, id)
	}
	return g
}

// AddChannel registers an existing channel.
func (g *Gateway) AddChannel(id, name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.channels[id] = &domain.Channel{ID: id, Name: name, Mention: domain.MentionChannel(id)}
}

// SendMessage records msg.
func (g *Gateway) SendMessage(ctx context.Context, channelID string, msg domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	if g.FailSend != nil {
		err := g.FailSend
		g.mu.Unlock()
		return err
	}
	g.sent = append(g.sent, SentMessage{ChannelID: channelID, Message: msg})
	hook := g.OnMessage
	g.mu.Unlock()

	if hook != nil {
		hook(channelID, msg)
	}
	return nil
}

// CreatePrivateChannel records spec and returns a new channel.
func (g *Gateway) CreatePrivateChannel(ctx context.Context, spec domain.ChannelSpec) (*domain.Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailCreate != nil {
		return nil, g.FailCreate
	}

	g.nextID++
	id := fmt.Sprintf("mem-%d", g.nextID)
	ch := &domain.Channel{ID: id, Name: spec.Name, Mention: domain.MentionChannel(id)}
	g.channels[id] = ch
	spec.Access.Members = slices.Clone(spec.Access.Members)
	g.created = append(g.created, spec)

	c := *ch
	return &c, nil
}

// GetChannel returns a known channel.
func (g *Gateway) GetChannel(ctx context.Context, scope, channelID string) (*domain.Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailGet != nil {
		return nil, g.FailGet
	}
	ch, ok := g.channels[channelID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrChannelNotFound, channelID)
	}
	c := *ch
	return &c, nil
}

// Created returns the specs of every channel created so far.
func (g *Gateway) Created() []domain.ChannelSpec {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.created)
}

// Sent returns every message sent so far.
func (g *Gateway) Sent() []SentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.sent)
}

// Grantor implements ports.PermissionGrantor by granting every requested user.
type Grantor struct{}

// Grant returns an access list containing userIDs.
func (Grantor) Grant(ctx context.Context, scope string, userIDs []string) (domain.AccessList, error) {
	return domain.AccessList{Scope: scope, Members: slices.Clone(userIDs)}, nil
}
