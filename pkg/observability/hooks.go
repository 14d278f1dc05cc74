package observability

import (
	"context"

	"github.com/aretw0/muster/pkg/domain"
)

// Chain merges several hook sets; each callback runs in the given order.
func Chain(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		if h.OnCommand != nil {
			prev, next := out.OnCommand, h.OnCommand
			out.OnCommand = func(ctx context.Context, e *domain.CommandEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				next(ctx, e)
			}
		}
		if h.OnGateway != nil {
			prev, next := out.OnGateway, h.OnGateway
			out.OnGateway = func(ctx context.Context, e *domain.GatewayEvent) {
				if prev != nil {
					prev(ctx, e)
				}
				next(ctx, e)
			}
		}
	}
	return out
}
