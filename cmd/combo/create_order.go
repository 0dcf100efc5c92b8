package main

import (
	"encoding/json"
	"io"

	combo "github.com/seayoo-io/combo-sdk-go"
	"github.com/seayoo-io/combo-sdk-go/api"
	"github.com/seayoo-io/combo-sdk-go/internal/config"
	"github.com/seayoo-io/combo-sdk-go/internal/logger"
	"github.com/spf13/cobra"
)

func newCreateOrderCmd(configPath *string) *cobra.Command {
	var (
		in       api.CreateOrderInput
		platform string
	)
	cmd := &cobra.Command{
		Use:   "create-order",
		Short: "Create an order through the Combo API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			log, err := logger.New(logger.Config{Env: cfg.Primary.Env, Level: cfg.Logger.Level})
			if err != nil {
				return err
			}
			client, err := api.NewClient(cfg.Combo.SDK(), api.WithLogger(log))
			if err != nil {
				return err
			}
			in.Platform = combo.Platform(platform)
			if in.NotifyURL == "" {
				in.NotifyURL = cfg.Server.PublicNotifyURL
			}
			out, err := client.CreateOrder(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&in.ReferenceID, "reference-id", "", "game side order id")
	cmd.Flags().StringVar(&in.ComboID, "combo-id", "", "player combo id")
	cmd.Flags().StringVar(&in.ProductID, "product-id", "", "product id")
	cmd.Flags().StringVar(&platform, "platform", string(combo.PlatformAndroid), "client platform")
	cmd.Flags().StringVar(&in.NotifyURL, "notify-url", "", "ship_order callback, defaults to server.public_notify_url")
	cmd.Flags().Int64Var(&in.Quantity, "quantity", 1, "quantity")
	cmd.Flags().StringVar(&in.Context, "context", "", "opaque value echoed in the notification")
	return cmd
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
