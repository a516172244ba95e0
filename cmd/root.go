package cmd

import (
	"errors"

	"github.com/bnema/groupchat-cli/internal/config"
	"github.com/spf13/cobra"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	a := newApp()

	rootCmd := &cobra.Command{
		Use:           "gchat",
		Short:         "Group chat from the terminal",
		Long:          "gchat joins a shared group chat channel: it shows who is online, merges recent history with live messages and lets you pick the name others see.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("redis-url", "", "Messaging service URL (default redis://localhost:6379/0)")
	flags.String("channel", "", "Channel to join (default group_chat)")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("log-file", "", "Log file used by the chat window (default ~/.gchat/gchat.log)")
	bindFlag(a.v, rootCmd, config.KeyRedisURL, "redis-url")
	bindFlag(a.v, rootCmd, config.KeyChannel, "channel")
	bindFlag(a.v, rootCmd, config.KeyLogLevel, "log-level")
	bindFlag(a.v, rootCmd, config.KeyLogFile, "log-file")

	rootCmd.AddCommand(
		newVersionCmd(),
		newChatCmd(a),
		newSendCmd(a),
		newHistoryCmd(a),
		newWhoCmd(a),
		newNameCmd(a),
	)

	return rootCmd
}

// run wires a before fn and releases its resources afterwards.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		if err := a.wire(cmd); err != nil {
			return err
		}
		defer func() {
			if closeErr := a.close(); closeErr != nil {
				err = errors.Join(err, closeErr)
			}
		}()

		return fn(cmd, args)
	}
}
