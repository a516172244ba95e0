package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "send <message>",
		Short: "Publish one message to the channel",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			body := strings.TrimSpace(strings.Join(args, " "))
			if body == "" {
				return fmt.Errorf("message is empty")
			}

			profile, err := a.profiles.EnsureProfile(cmd.Context())
			if err != nil {
				return err
			}

			bus, err := a.messaging(cmd.Context())
			if err != nil {
				return err
			}

			tt, err := bus.Publish(cmd.Context(), a.cfg.Channel, profile.DeviceID, body)
			if err != nil {
				return fmt.Errorf("send message: %w", err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "sent to %s (timetoken %d)\n", a.cfg.Channel, tt)
			return err
		}),
	}
}
