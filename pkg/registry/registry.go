package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/aretw0/muster/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Handler executes a command on behalf of inv. args holds the command options by name.
type Handler func(ctx context.Context, inv domain.Invocation, args map[string]any) (domain.Message, error)

// ErrorRenderer turns a failed command into the reply shown to the invoker.
type ErrorRenderer func(op domain.Operation, err error) domain.Message

// Option describes a string argument of a command.
type Option struct {
	Name        string
	Description string
	Required    bool
}

// Command is a named, described entry of the registry.
type Command struct {
	Name        string
	Description string
	Options     []Option
	Handler     Handler
}

// Registry manages the available commands. It is the command dispatcher shared by
// every front-end (Discord, console, MCP).
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
	order    []string
	render   ErrorRenderer
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
		render: func(op domain.Operation, err error) domain.Message {
			return domain.Message{Content: "Something went wrong, please try again.", Ephemeral: true}
		},
	}
}

// SetErrorRenderer replaces the default error replies.
func (r *Registry) SetErrorRenderer(render ErrorRenderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.render = render
}

// Register adds a command to the registry.
// If a command with the same name exists, it is overwritten.
func (r *Registry) Register(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.commands[cmd.Name]; !exists {
		r.order = append(r.order, cmd.Name)
	}
	r.commands[cmd.Name] = cmd
}

// Commands returns the registered commands in registration order.
func (r *Registry) Commands() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Command, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.commands[name])
	}
	return out
}

// Execute looks up a command by name and executes it.
// Returns domain.ErrUnknownCommand if the command is not found.
func (r *Registry) Execute(ctx context.Context, name string, inv domain.Invocation, args map[string]any) (domain.Message, error) {
	r.mu.RLock()
	cmd, ok := r.commands[name]
	r.mu.RUnlock()

	if !ok {
		return domain.Message{}, fmt.Errorf("%w: %s", domain.ErrUnknownCommand, name)
	}
	if args == nil {
		args = map[string]any{}
	}
	for _, opt := range cmd.Options {
		if v, ok := args[opt.Name]; opt.Required && (!ok || v == nil) {
			return domain.Message{}, fmt.Errorf("%w: missing option %q", domain.ErrInvalidArgument, opt.Name)
		}
	}

	return cmd.Handler(ctx, inv, args)
}

// Reply executes a command and always returns the message to show the invoker:
// the command reply on success, the rendered error otherwise. The error is returned
// as well so dispatchers can log it.
func (r *Registry) Reply(ctx context.Context, name string, inv domain.Invocation, args map[string]any) (domain.Message, error) {
	msg, err := r.Execute(ctx, name, inv, args)
	if err != nil {
		r.mu.RLock()
		render := r.render
		r.mu.RUnlock()
		return render(domain.Operation(name), err), err
	}
	return msg, nil
}

// Decode maps loosely typed command arguments onto out using their mapstructure tags.
func Decode(args map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(args); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}
	return nil
}
