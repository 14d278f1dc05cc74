package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/muster"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of muster",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "muster version %s\n", strings.TrimSpace(muster.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
