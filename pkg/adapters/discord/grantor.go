package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/muster/internal/logging"
	"github.com/aretw0/muster/pkg/domain"
	"github.com/bwmarrin/discordgo"
)

// Grantor implements ports.PermissionGrantor by resolving each user as a guild member.
// Users that left the guild are skipped.
type Grantor struct {
	api    API
	logger *slog.Logger
}

// NewGrantor creates a Grantor. A nil logger discards output.
func NewGrantor(api API, logger *slog.Logger) *Grantor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Grantor{api: api, logger: logger}
}

// Grant returns the members of scope among userIDs.
func (g *Grantor) Grant(ctx context.Context, scope string, userIDs []string) (domain.AccessList, error) {
	access := domain.AccessList{Scope: scope}
	for _, id := range userIDs {
		if _, err := g.api.GuildMember(scope, id, discordgo.WithContext(ctx)); err != nil {
			if isNotFound(err) {
				g.logger.Warn("Skipping user that is no longer a guild member", "scope", scope, "user_id", id)
				continue
			}
			return access, err
		}
		access.Members = append(access.Members, id)
	}
	if len(access.Members) == 0 {
		return access, fmt.Errorf("none of %d opted-in users is a member of guild %s", len(userIDs), scope)
	}
	return access, nil
}
