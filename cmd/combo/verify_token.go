package main

import (
	"fmt"
	"io"

	"github.com/seayoo-io/combo-sdk-go/internal/config"
	"github.com/seayoo-io/combo-sdk-go/verify"
	"github.com/spf13/cobra"
)

func newVerifyTokenCmd(configPath *string) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "verify-token TOKEN",
		Short: "Verify an identity or ad token and print its payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			v, err := verify.NewTokenVerifier(cfg.Combo.SDK())
			if err != nil {
				return err
			}
			return runVerifyToken(cmd.OutOrStdout(), v, kind, args[0])
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "identity", "token kind: identity or ad")
	return cmd
}

func runVerifyToken(out io.Writer, v *verify.TokenVerifier, kind, token string) error {
	var (
		payload any
		err     error
	)
	switch kind {
	case "identity":
		payload, err = v.VerifyIdentityToken(token)
	case "ad":
		payload, err = v.VerifyAdToken(token)
	default:
		return fmt.Errorf("unknown token kind %q", kind)
	}
	if err != nil {
		return err
	}
	return printJSON(out, payload)
}
