package coordinator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/muster/pkg/domain"
)

func joinSlots(slots []string) string {
	switch len(slots) {
	case 0:
		return ""
	case 1:
		return slots[0]
	default:
		return strings.Join(slots[:len(slots)-1], ", ") + " or " + slots[len(slots)-1]
	}
}

func mentions(userIDs []string) string {
	parts := make([]string, len(userIDs))
	for i, id := range userIDs {
		parts[i] = domain.MentionUser(id)
	}
	return strings.Join(parts, " ")
}

func startedMessage(initiatorID string, slots []string) domain.Message {
	return domain.Message{
		Content: fmt.Sprintf("New game coordination started by %s!\n\n"+
			"Players can now opt in using /%s.\n"+
			"Time slots will be %s.",
			domain.MentionUser(initiatorID), domain.OpOptIn, joinSlots(slots)),
		Mentions: true,
	}
}

func summaryMessage(s *domain.Session, channelMention string) domain.Message {
	return domain.Message{
		Content: fmt.Sprintf("✅ Game coordination complete: %s\n"+
			"Game ID: `%s`\nContinent: `%s`\nCodename: `%s`\nParticipants: %s",
			channelMention, s.GameID, s.Continent, s.Codename, mentions(s.OptedIn)),
		Mentions: true,
	}
}

var privilegedActions = map[domain.Operation]string{
	domain.OpFinishOptIn: "finish the opt-in phase",
	domain.OpFinalize:    "set the game ID",
	domain.OpCancel:      "cancel the game coordination",
}

// ErrorMessage renders err as the ephemeral reply shown to the user who invoked op.
func (c *Coordinator) ErrorMessage(op domain.Operation, err error) domain.Message {
	var text string
	switch {
	case errors.Is(err, domain.ErrAlreadyActive):
		text = "A game coordination is already in progress."
	case errors.Is(err, domain.ErrNotActive):
		text = "No game coordination in progress."
	case errors.Is(err, domain.ErrAlreadyOptedIn):
		text = "You already opted in."
	case errors.Is(err, domain.ErrFull):
		text = fmt.Sprintf("Opt-in is already full (%d players).", c.cfg.MaxPlayers)
	case errors.Is(err, domain.ErrNotAuthorized):
		action, ok := privilegedActions[op]
		if !ok {
			action = "do that"
		}
		text = "Only the game initiator can " + action + "."
	case errors.Is(err, domain.ErrNoParticipants):
		text = "Nobody has opted in yet."
	case errors.Is(err, domain.ErrInvalidArgument):
		text = "Game ID, continent and codename are all required."
	case errors.Is(err, domain.ErrGateway):
		text = "Could not reach the chat platform, please try again."
	case errors.Is(err, domain.ErrUnknownCommand):
		text = "Unknown command."
	default:
		text = "Something went wrong, please try again."
	}
	return domain.Message{Content: text, Ephemeral: true}
}
