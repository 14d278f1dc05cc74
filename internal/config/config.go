// Package config loads the bot configuration from a YAML file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/aretw0/muster/internal/logging"
	"github.com/aretw0/muster/pkg/adapters/redis"
	"github.com/aretw0/muster/pkg/coordinator"
	"github.com/aretw0/muster/pkg/domain"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = "muster.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "MUSTER_"

// DefaultLockTTL outlives the default coordinator lock budget (4 x 10s).
const DefaultLockTTL = time.Minute

// Config is the full bot configuration.
type Config struct {
	Coordination Coordination `yaml:"coordination"`
	Discord      Discord      `yaml:"discord"`
	HTTP         HTTP         `yaml:"http"`
	Redis        Redis        `yaml:"redis"`
	Log          Log          `yaml:"log"`
}

// Coordination configures the session coordinator.
type Coordination struct {
	MaxPlayers     int           `yaml:"max_players" env:"MAX_PLAYERS"`
	ChannelID      string        `yaml:"channel_id" env:"COORDINATION_CHANNEL_ID"`
	CategoryID     string        `yaml:"category_id" env:"CATEGORY_ID"`
	TimeSlots      []string      `yaml:"time_slots" env:"TIME_SLOTS" envSeparator:","`
	ChannelPrefix  string        `yaml:"channel_prefix" env:"CHANNEL_PREFIX"`
	GatewayTimeout time.Duration `yaml:"gateway_timeout" env:"GATEWAY_TIMEOUT"`
}

// Discord holds the bot credentials.
type Discord struct {
	Token string `yaml:"token" env:"DISCORD_TOKEN"`
	// GuildID registers commands in one guild. Empty registers them globally.
	GuildID string `yaml:"guild_id" env:"DISCORD_GUILD_ID"`
}

// HTTP configures the introspection server. An empty Addr disables it.
type HTTP struct {
	Addr string `yaml:"addr" env:"HTTP_ADDR"`
}

// Redis shares sessions and locks them across replicas when Addr is set.
type Redis struct {
	Addr     string        `yaml:"addr" env:"REDIS_ADDR"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB"`
	Prefix   string        `yaml:"prefix" env:"REDIS_PREFIX"`
	LockTTL  time.Duration `yaml:"lock_ttl" env:"REDIS_LOCK_TTL"`

	// SessionTTL expires shared sessions after their last change.
	SessionTTL time.Duration `yaml:"session_ttl" env:"REDIS_SESSION_TTL"`
}

// Log configures the logger.
type Log struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Coordination: Coordination{
			MaxPlayers:     domain.DefaultMaxPlayers,
			TimeSlots:      append([]string(nil), coordinator.DefaultTimeSlots...),
			ChannelPrefix:  domain.DefaultChannelPrefix,
			GatewayTimeout: coordinator.DefaultGatewayTimeout,
		},
		HTTP:  HTTP{Addr: ":8080"},
		Redis: Redis{Prefix: redis.DefaultPrefix, LockTTL: DefaultLockTTL, SessionTTL: redis.DefaultSessionTTL},
		Log:   Log{Level: "info"},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// A missing file is not an error when path is DefaultPath.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate checks values that are wrong in every mode.
func (c Config) Validate() error {
	var errs []error
	if c.Coordination.MaxPlayers < 1 {
		errs = append(errs, fmt.Errorf("coordination.max_players must be at least 1, got %d", c.Coordination.MaxPlayers))
	}
	if c.Coordination.GatewayTimeout < 0 {
		errs = append(errs, errors.New("coordination.gateway_timeout must not be negative"))
	}
	if c.Redis.LockTTL < 0 || c.Redis.SessionTTL < 0 {
		errs = append(errs, errors.New("redis.lock_ttl and redis.session_ttl must not be negative"))
	}
	if c.Redis.Addr != "" {
		budget := c.CoordinatorConfig().LockBudget()
		switch {
		case budget == 0:
			errs = append(errs, errors.New("coordination.gateway_timeout must be set when redis is enabled"))
		case c.Redis.LockTTL <= budget:
			errs = append(errs, fmt.Errorf("redis.lock_ttl (%s) must exceed the coordinator lock budget (%s)", c.Redis.LockTTL, budget))
		}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	return errors.Join(errs...)
}

// ValidateDiscord checks the settings needed to connect to Discord.
func (c Config) ValidateDiscord() error {
	var errs []error
	if c.Discord.Token == "" {
		errs = append(errs, fmt.Errorf("discord.token is required (or %sDISCORD_TOKEN)", EnvPrefix))
	}
	if c.Coordination.ChannelID == "" {
		errs = append(errs, fmt.Errorf("coordination.channel_id is required (or %sCOORDINATION_CHANNEL_ID)", EnvPrefix))
	}
	return errors.Join(errs...)
}

// CoordinatorConfig converts the coordination section.
func (c Config) CoordinatorConfig() coordinator.Config {
	return coordinator.Config{
		MaxPlayers:            c.Coordination.MaxPlayers,
		CoordinationChannelID: c.Coordination.ChannelID,
		CategoryID:            c.Coordination.CategoryID,
		TimeSlots:             c.Coordination.TimeSlots,
		ChannelPrefix:         c.Coordination.ChannelPrefix,
		GatewayTimeout:        c.Coordination.GatewayTimeout,
	}
}
