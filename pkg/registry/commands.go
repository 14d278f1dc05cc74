package registry

import (
	"context"

	"github.com/aretw0/muster/pkg/coordinator"
	"github.com/aretw0/muster/pkg/domain"
)

// ForCoordinator returns a registry holding the six coordination commands.
func ForCoordinator(c *coordinator.Coordinator) *Registry {
	r := NewRegistry()
	r.SetErrorRenderer(c.ErrorMessage)

	simple := func(fn func(context.Context, domain.Invocation) (domain.Message, error)) Handler {
		return func(ctx context.Context, inv domain.Invocation, _ map[string]any) (domain.Message, error) {
			return fn(ctx, inv)
		}
	}

	r.Register(Command{
		Name:        string(domain.OpStart),
		Description: "Start a new game coordination.",
		Handler:     simple(c.Start),
	})
	r.Register(Command{
		Name:        string(domain.OpOptIn),
		Description: "Opt in to the current game.",
		Handler:     simple(c.OptIn),
	})
	r.Register(Command{
		Name:        string(domain.OpOptOut),
		Description: "Opt out of the current game.",
		Handler:     simple(c.OptOut),
	})
	r.Register(Command{
		Name:        string(domain.OpFinishOptIn),
		Description: "Finish the opt-in phase before the game is full.",
		Handler:     simple(c.FinishOptIn),
	})
	r.Register(Command{
		Name:        string(domain.OpFinalize),
		Description: "Set the game ID and create a dedicated channel.",
		Options: []Option{
			{Name: "game_id", Description: "The full game ID (e.g., 2053)", Required: true},
			{Name: "continent", Description: "Continent (e.g., Europe)", Required: true},
			{Name: "codename", Description: "Military codename (e.g., Eagle)", Required: true},
		},
		Handler: func(ctx context.Context, inv domain.Invocation, args map[string]any) (domain.Message, error) {
			var fa coordinator.FinalizeArgs
			if err := Decode(args, &fa); err != nil {
				return domain.Message{}, err
			}
			return c.Finalize(ctx, inv, fa)
		},
	})
	r.Register(Command{
		Name:        string(domain.OpCancel),
		Description: "Cancel the ongoing game coordination.",
		Handler:     simple(c.Cancel),
	})
	return r
}
