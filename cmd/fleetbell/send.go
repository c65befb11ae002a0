package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/fleetbell/internal/logger"
	"github.com/nhle/fleetbell/internal/model"
	"github.com/nhle/fleetbell/internal/push/amqp"
)

// sendOptions are the flags of `fleetbell send`.
type sendOptions struct {
	title   string
	body    string
	email   string
	user    string
	vehicle string
	to      string
}

func (o sendOptions) payload() model.PushPayload {
	return model.PushPayload{
		Notification: &model.PushNotification{Title: o.title, Body: o.body},
		Data: &model.PushData{
			EmailAddress:          o.email,
			Username:              o.user,
			VehicleRegistrationNo: o.vehicle,
		},
	}
}

func (c *cli) newSendCmd() *cobra.Command {
	var opts sendOptions

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Publish a push notification to running consoles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			to := opts.to
			if to == "" {
				to = c.cfg.Push.AppKey
			}

			err := amqp.Publish(cmd.Context(), c.cfg.Push.AMQPURL, c.cfg.Push.Exchange, to, opts.payload())
			if err != nil {
				return err
			}

			logger.L().Info("Push notification sent", zap.String("routing_key", to), zap.String("title", opts.title))
			fmt.Fprintln(cmd.OutOrStdout(), "sent to", to)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.title, "title", "", "notification title")
	f.StringVar(&opts.body, "body", "", "notification body")
	f.StringVar(&opts.email, "email", "", "email address of the user concerned")
	f.StringVar(&opts.user, "user", "", "username of the user concerned")
	f.StringVar(&opts.vehicle, "vehicle", "", "vehicle registration number")
	f.StringVar(&opts.to, "to", "", "routing key: a device token, or the app key (default) for every console")

	return cmd
}
