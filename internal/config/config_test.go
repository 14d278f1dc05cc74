package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "muster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Coordination.MaxPlayers)
	assert.Equal(t, []string{"3 PM EST", "9 PM CET"}, cfg.Coordination.TimeSlots)
	assert.Equal(t, "gm", cfg.Coordination.ChannelPrefix)
	assert.Equal(t, 10*time.Second, cfg.Coordination.GatewayTimeout)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "muster:", cfg.Redis.Prefix)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeFile(t, `
coordination:
  max_players: 4
  channel_id: "111"
  time_slots: ["6 PM UTC"]
  gateway_timeout: 3s
discord:
  token: from-file
redis:
  addr: localhost:6379
log:
  level: debug
`)
	t.Setenv("MUSTER_DISCORD_TOKEN", "from-env")
	t.Setenv("MUSTER_TIME_SLOTS", "1 PM EST,7 PM CET")
	t.Setenv("MUSTER_REDIS_LOCK_TTL", "1m")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Coordination.MaxPlayers)
	assert.Equal(t, "111", cfg.Coordination.ChannelID)
	assert.Equal(t, 3*time.Second, cfg.Coordination.GatewayTimeout)
	assert.Equal(t, "from-env", cfg.Discord.Token)
	assert.Equal(t, []string{"1 PM EST", "7 PM CET"}, cfg.Coordination.TimeSlots)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, time.Minute, cfg.Redis.LockTTL)
	assert.Equal(t, "debug", cfg.Log.Level)

	cc := cfg.CoordinatorConfig()
	assert.Equal(t, 4, cc.MaxPlayers)
	assert.Equal(t, "111", cc.CoordinationChannelID)
	assert.NoError(t, cfg.ValidateDiscord())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "coordination: [not, a, map]"))
	assert.ErrorContains(t, err, "failed to parse config file")

	_, err = Load(writeFile(t, "coordination:\n  max_players: 0\nlog:\n  level: loud\n"))
	assert.ErrorContains(t, err, "max_players")
	assert.ErrorContains(t, err, "log.level")
}

func TestValidateDiscord(t *testing.T) {
	err := Default().ValidateDiscord()
	assert.ErrorContains(t, err, "discord.token")
	assert.ErrorContains(t, err, "coordination.channel_id")
}

func TestValidate_LockOutlivesGatewayBudget(t *testing.T) {
	cfg := Default()
	cfg.Redis.Addr = "localhost:6379"
	assert.NoError(t, cfg.Validate())

	cfg.Redis.LockTTL = 30 * time.Second
	assert.ErrorContains(t, cfg.Validate(), "must exceed the coordinator lock budget (40s)")

	cfg.Redis.LockTTL = time.Minute
	cfg.Coordination.GatewayTimeout = 0
	assert.ErrorContains(t, cfg.Validate(), "gateway_timeout must be set")
}
