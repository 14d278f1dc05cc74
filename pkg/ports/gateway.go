package ports

import (
	"context"

	"github.com/aretw0/muster/pkg/domain"
)

// Gateway is the chat platform as seen by the coordinator.
// Every method is a blocking network call; implementations must honour ctx.
type Gateway interface {
	// SendMessage posts msg to channelID.
	SendMessage(ctx context.Context, channelID string, msg domain.Message) error

	// CreatePrivateChannel creates a text channel visible only to spec.Access.
	CreatePrivateChannel(ctx context.Context, spec domain.ChannelSpec) (*domain.Channel, error)

	// GetChannel looks up a channel in scope.
	// Returns domain.ErrChannelNotFound if it does not exist.
	GetChannel(ctx context.Context, scope, channelID string) (*domain.Channel, error)
}

// PermissionGrantor resolves which users may see a private game channel.
// It decouples the coordinator from the platform's permission model.
type PermissionGrantor interface {
	Grant(ctx context.Context, scope string, userIDs []string) (domain.AccessList, error)
}
