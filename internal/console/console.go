// Package console is a local dispatcher: it reads commands from a terminal and
// prints replies and channel traffic, so a coordination can be played without Discord.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"

	"github.com/aretw0/muster/pkg/domain"
	"github.com/aretw0/muster/pkg/registry"
)

// ContentRenderer turns markdown into terminal output.
type ContentRenderer func(string) (string, error)

var mentionPattern = regexp.MustCompile(`<([@#])([^>\s]+)>`)

// Console runs a read-eval-print loop over a registry.
type Console struct {
	registry *registry.Registry
	reader   *bufio.Reader
	mu       sync.Mutex
	writer   io.Writer
	renderer ContentRenderer
	scope    string
	channel  string
}

// Option configures a Console.
type Option func(*Console)

// WithRenderer renders every printed message, e.g. with glamour.
func WithRenderer(r ContentRenderer) Option {
	return func(c *Console) {
		c.renderer = r
	}
}

// WithScope sets the guild the console plays in.
func WithScope(scope string) Option {
	return func(c *Console) {
		c.scope = scope
	}
}

// WithChannel sets the channel commands are issued from.
func WithChannel(channelID string) Option {
	return func(c *Console) {
		c.channel = channelID
	}
}

// New creates a console reading r and writing w.
func New(reg *registry.Registry, r io.Reader, w io.Writer, opts ...Option) *Console {
	c := &Console{
		registry: reg,
		reader:   bufio.NewReader(r),
		writer:   w,
		scope:    "console",
		channel:  "console",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Announce prints a message posted to a channel. It matches memory.Gateway.OnMessage.
func (c *Console) Announce(channelID string, msg domain.Message) {
	c.print(fmt.Sprintf("[#%s] %s", channelID, msg.Content))
}

// Run reads lines until EOF, "quit" or ctx cancellation.
func (c *Console) Run(ctx context.Context) error {
	c.print(fmt.Sprintf("Playing in scope %q. Type `help` for commands.", c.scope))
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		c.mu.Lock()
		fmt.Fprint(c.writer, "> ")
		c.mu.Unlock()

		line, err := c.reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		eof := errors.Is(err, io.EOF)

		quit, execErr := c.Exec(ctx, line)
		if execErr != nil {
			c.print("error: " + execErr.Error())
		}
		if quit || eof {
			return nil
		}
	}
}

// Exec runs a single console line. It reports true when the console should stop.
func (c *Console) Exec(ctx context.Context, line string) (bool, error) {
	clean, err := SanitizeInput(line)
	if err != nil {
		return false, err
	}
	fields := strings.Fields(clean)
	if len(fields) == 0 {
		return false, nil
	}

	switch fields[0] {
	case "quit", "exit":
		return true, nil
	case "help":
		c.print(c.help())
		return false, nil
	case "as":
	default:
		return false, fmt.Errorf("unknown input %q, expected `as <user> <command> [args...]`", fields[0])
	}

	if len(fields) < 3 {
		return false, errors.New("usage: as <user> <command> [args...]")
	}
	user, name, rest := fields[1], fields[2], fields[3:]

	args, err := c.arguments(name, rest)
	if err != nil {
		return false, err
	}

	inv := domain.Invocation{Scope: c.scope, ChannelID: c.channel, UserID: user}
	msg, _ := c.registry.Reply(ctx, name, inv, args)
	prefix := fmt.Sprintf("[reply to %s]", user)
	if msg.Ephemeral {
		prefix = fmt.Sprintf("[only %s sees]", user)
	}
	c.print(prefix + " " + msg.Content)
	return false, nil
}

// arguments accepts key=value pairs or positional values in option order.
func (c *Console) arguments(name string, rest []string) (map[string]any, error) {
	var options []registry.Option
	for _, cmd := range c.registry.Commands() {
		if cmd.Name == name {
			options = cmd.Options
			break
		}
	}

	args := make(map[string]any, len(rest))
	for i, tok := range rest {
		if key, value, ok := strings.Cut(tok, "="); ok {
			args[key] = value
			continue
		}
		if i >= len(options) {
			return nil, fmt.Errorf("%s takes %d arguments", name, len(options))
		}
		args[options[i].Name] = tok
	}
	return args, nil
}

func (c *Console) help() string {
	var b strings.Builder
	b.WriteString("Usage: `as <user> <command> [args...]`\n\n")
	for _, cmd := range c.registry.Commands() {
		b.WriteString("- `" + cmd.Name)
		for _, opt := range cmd.Options {
			b.WriteString(" <" + opt.Name + ">")
		}
		b.WriteString("`: " + cmd.Description + "\n")
	}
	b.WriteString("\n`quit` leaves the console.")
	return b.String()
}

func (c *Console) print(text string) {
	text = mentionPattern.ReplaceAllString(text, "$1$2")
	if c.renderer != nil {
		if rendered, err := c.renderer(text); err == nil {
			text = rendered
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.writer, strings.TrimSpace(text))
}
