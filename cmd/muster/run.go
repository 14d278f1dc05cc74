package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/muster"
	"github.com/aretw0/muster/internal/config"
	"github.com/aretw0/muster/pkg/adapters/discord"
	httpAdapter "github.com/aretw0/muster/pkg/adapters/http"
	"github.com/aretw0/muster/pkg/adapters/redis"
	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to Discord and serve slash commands",
	Long: `Connects the bot to Discord, registers the slash commands and serves them until
interrupted. When http.addr is set, health, metrics and session introspection are
served over HTTP. When redis.addr is set, sessions are stored in Redis and locked
there, so several replicas can serve the same guilds.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.ValidateDiscord(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runBot(ctx, cfg, logger)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runBot(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	dg, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return fmt.Errorf("failed to create discord session: %w", err)
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	streams := httpAdapter.NewStreamManager(httpAdapter.WithStreamLogger(logger))

	opts := []muster.Option{
		muster.WithLogger(logger),
		muster.WithPrometheusRegistry(promReg),
		muster.WithLifecycleHooks(streams.Hooks()),
	}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer client.Close()

		locker := redis.NewLocker(client, cfg.Redis.Prefix)
		if err := locker.Ping(ctx); err != nil {
			return fmt.Errorf("redis unreachable at %s: %w", cfg.Redis.Addr, err)
		}
		// Locking only means something when every replica reads the same sessions.
		opts = append(opts,
			muster.WithStore(redis.NewStore(client, cfg.Redis.Prefix, redis.WithTTL(cfg.Redis.SessionTTL))),
			muster.WithLocker(locker, cfg.Redis.LockTTL),
		)
		logger.Info("Shared sessions enabled", "addr", cfg.Redis.Addr, "prefix", cfg.Redis.Prefix, "lock_ttl", cfg.Redis.LockTTL)
	}

	bot := muster.New(discord.NewGateway(dg), discord.NewGrantor(dg, logger), cfg.CoordinatorConfig(), opts...)

	dispatcher := discord.NewDispatcher(dg, bot.Registry(),
		discord.WithGuild(cfg.Discord.GuildID),
		discord.WithDispatcherLogger(logger),
	)
	if err := dispatcher.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if err := dispatcher.Close(); err != nil {
			logger.Warn("Discord session did not close cleanly", "err", err)
		}
	}()

	serverErrors := make(chan error, 1)
	var srv *http.Server
	if cfg.HTTP.Addr != "" {
		srv = &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           httpAdapter.NewHandler(bot.Coordinator(), streams, bot.Metrics().Handler(), logger),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("HTTP server listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErrors <- err
			}
		}()
	}

	logger.Info("Muster is running", "version", muster.Version)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			_ = srv.Close()
		}
	}
	logger.Info("Muster stopped gracefully")
	return nil
}
