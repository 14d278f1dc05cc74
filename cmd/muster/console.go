package main

import (
	"os"
	"os/signal"

	"github.com/aretw0/muster"
	"github.com/aretw0/muster/internal/console"
	"github.com/aretw0/muster/pkg/adapters/memory"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const consoleChannel = "coordination"

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Play a coordination locally without Discord",
	Long: `Runs the coordinator against an in-memory chat platform. Every line names the
user issuing the command:

  as alice start_game
  as bob opt_in
  as alice set_game_id 2053 Europe Eagle`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		scope, _ := cmd.Flags().GetString("scope")
		plain, _ := cmd.Flags().GetBool("plain")

		coordCfg := cfg.CoordinatorConfig()
		if coordCfg.CoordinationChannelID == "" {
			coordCfg.CoordinationChannelID = consoleChannel
		}
		gw := memory.NewGateway(coordCfg.CoordinationChannelID)
		bot := muster.New(gw, memory.Grantor{}, coordCfg, muster.WithLogger(logger))

		out := cmd.OutOrStdout()
		opts := []console.Option{console.WithScope(scope), console.WithChannel(coordCfg.CoordinationChannelID)}
		if !plain && term.IsTerminal(int(os.Stdout.Fd())) {
			console.PrintBanner(out)
			if r, err := console.NewRenderer(); err == nil {
				opts = append(opts, console.WithRenderer(r))
			}
		}

		c := console.New(bot.Registry(), cmd.InOrStdin(), out, opts...)
		gw.OnMessage = c.Announce

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return c.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.Flags().String("scope", "console", "Guild ID the console plays in")
	consoleCmd.Flags().Bool("plain", false, "Disable banner and markdown rendering")
}
