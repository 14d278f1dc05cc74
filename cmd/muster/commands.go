package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/aretw0/muster"
	"github.com/aretw0/muster/pkg/adapters/memory"
	"github.com/aretw0/muster/pkg/coordinator"
	"github.com/spf13/cobra"
)

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List the slash commands registered by the bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		bot := muster.New(memory.NewGateway(), memory.Grantor{}, coordinator.Config{})

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "COMMAND\tOPTIONS\tDESCRIPTION")
		for _, c := range bot.Registry().Commands() {
			names := make([]string, 0, len(c.Options))
			for _, opt := range c.Options {
				names = append(names, opt.Name)
			}
			fmt.Fprintf(w, "/%s\t%s\t%s\n", c.Name, strings.Join(names, " "), c.Description)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(commandsCmd)
}
