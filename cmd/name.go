package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newNameCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "name",
		Short: "Show or change the name other members see",
	}

	cmd.AddCommand(newNameShowCmd(a), newNameSetCmd(a))
	return cmd
}

func newNameShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show this device's id and display name",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			profile, err := a.profiles.EnsureProfile(cmd.Context())
			if err != nil {
				return err
			}

			name := profile.FriendlyName
			if name == "" {
				name = "(not set, members see the device id)"
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "device id: %s\ndisplay name: %s\n", profile.DeviceID, name)
			return err
		}),
	}
}

func newNameSetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "set <name>",
		Short: "Change the display name and publish it",
		Args:  cobra.MinimumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			profile, changed, err := a.profiles.SetFriendlyName(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("set display name: %w", err)
			}

			if !changed {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "display name unchanged: %s\n", profile.FriendlyName)
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "display name set to %s\n", profile.FriendlyName)
			return err
		}),
	}
}
