// Command combo runs a demo game server for the Combo webhooks and offers
// helpers for signing requests and checking tokens.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "combo",
		Short:         "Combo server SDK tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("COMBO_CONFIG_FILE"), "YAML config file")

	root.AddCommand(
		newServeCmd(&configPath),
		newSignCmd(),
		newVerifyTokenCmd(&configPath),
		newCreateOrderCmd(&configPath),
	)
	return root
}
