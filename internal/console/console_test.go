package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/muster"
	"github.com/aretw0/muster/pkg/adapters/memory"
	"github.com/aretw0/muster/pkg/coordinator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsole_Run(t *testing.T) {
	gw := memory.NewGateway("coord")
	bot := muster.New(gw, memory.Grantor{}, coordinator.Config{CoordinationChannelID: "coord"})

	input := strings.Join([]string{
		"as alice start_game",
		"as bob opt_in",
		"as bob opt_in",
		"as bob cancel_game",
		"as alice set_game_id 2053 Europe Eagle",
		"quit",
		"as carol opt_in",
	}, "\n")
	var out bytes.Buffer
	c := New(bot.Registry(), strings.NewReader(input), &out, WithScope("g1"), WithChannel("coord"))
	gw.OnMessage = c.Announce

	require.NoError(t, c.Run(context.Background()))

	got := out.String()
	assert.Contains(t, got, "[reply to alice] New game coordination started by @alice!")
	assert.Contains(t, got, "[reply to bob] @bob opted in. (1/5)")
	assert.Contains(t, got, "[only bob sees] You already opted in.")
	assert.Contains(t, got, "[only bob sees] Only the game initiator can cancel the game coordination.")
	assert.Contains(t, got, "[#coord] ✅ Game coordination complete: #mem-1")
	assert.Contains(t, got, "Game ID set.")
	assert.NotContains(t, got, "carol")

	require.Len(t, gw.Created(), 1)
	assert.Equal(t, "gm53-europe-eagle", gw.Created()[0].Name)
}

func TestConsole_Exec(t *testing.T) {
	bot := muster.New(memory.NewGateway("coord"), memory.Grantor{}, coordinator.Config{CoordinationChannelID: "coord"})
	var out bytes.Buffer
	c := New(bot.Registry(), strings.NewReader(""), &out)
	ctx := context.Background()

	quit, err := c.Exec(ctx, "   ")
	assert.False(t, quit)
	assert.NoError(t, err)

	_, err = c.Exec(ctx, "start_game")
	assert.Error(t, err)

	_, err = c.Exec(ctx, "as alice")
	assert.Error(t, err)

	_, err = c.Exec(ctx, "as alice opt_in extra")
	assert.Error(t, err)

	_, err = c.Exec(ctx, "help")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "`set_game_id <game_id> <continent> <codename>`")

	_, err = c.Exec(ctx, "as alice start_game")
	require.NoError(t, err)
	_, err = c.Exec(ctx, "as bob opt_in")
	require.NoError(t, err)
	out.Reset()
	_, err = c.Exec(ctx, "as alice set_game_id codename=Eagle continent=Asia game_id=77")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Game ID set.")

	quit, _ = c.Exec(ctx, "exit")
	assert.True(t, quit)
}

func TestConsole_Renderer(t *testing.T) {
	bot := muster.New(memory.NewGateway(), memory.Grantor{}, coordinator.Config{})
	var out bytes.Buffer
	c := New(bot.Registry(), strings.NewReader(""), &out, WithRenderer(func(s string) (string, error) {
		return "**" + s + "**", nil
	}))

	c.Announce("coord", bot.Coordinator().ErrorMessage("opt_in", nil))
	assert.Equal(t, "**[#coord] Something went wrong, please try again.**\n", out.String())
}

func TestSanitizeInput(t *testing.T) {
	clean, err := SanitizeInput("as \x1b[31malice\x07 opt_in\n")
	require.NoError(t, err)
	assert.Equal(t, "as [31malice opt_in\n", clean)

	_, err = SanitizeInput(strings.Repeat("a", MaxInputSize+1))
	assert.ErrorIs(t, err, ErrInputTooLarge)

	_, err = SanitizeInput("\xff")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}
