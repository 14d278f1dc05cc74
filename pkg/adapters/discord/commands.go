package discord

import (
	"github.com/aretw0/muster/pkg/registry"
	"github.com/bwmarrin/discordgo"
)

// ApplicationCommands converts registry commands to Discord slash-command definitions.
func ApplicationCommands(cmds []registry.Command) []*discordgo.ApplicationCommand {
	out := make([]*discordgo.ApplicationCommand, 0, len(cmds))
	for _, cmd := range cmds {
		ac := &discordgo.ApplicationCommand{
			Name:        cmd.Name,
			Description: cmd.Description,
		}
		for _, opt := range cmd.Options {
			ac.Options = append(ac.Options, &discordgo.ApplicationCommandOption{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        opt.Name,
				Description: opt.Description,
				Required:    opt.Required,
			})
		}
		out = append(out, ac)
	}
	return out
}
