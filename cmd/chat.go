package cmd

import (
	"context"
	"fmt"

	"github.com/bnema/groupchat-cli/internal/adapters/render/chatui"
	"github.com/bnema/groupchat-cli/internal/application"
	"github.com/bnema/groupchat-cli/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newChatCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "chat",
		Short:       "Open the interactive chat window",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationLogToFile: "true"},
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			return runChat(cmd, a)
		}),
	}

	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. 127.0.0.1:9464")
	cmd.Flags().Int("history-limit", 0, "Messages loaded when joining (1-100, default 8)")
	bindFlag(a.v, cmd, config.KeyMetricsAddr, "metrics-addr")
	bindFlag(a.v, cmd, config.KeyHistoryLimit, "history-limit")

	return cmd
}

func runChat(cmd *cobra.Command, a *app) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	profile, err := a.profiles.EnsureProfile(ctx)
	if err != nil {
		return err
	}

	bus, err := a.messaging(ctx)
	if err != nil {
		return err
	}

	session := application.NewSession(bus, application.SessionConfig{
		Channel:      a.cfg.Channel,
		Self:         profile.DeviceID,
		SelfName:     profile.FriendlyName,
		HistoryLimit: a.cfg.HistoryLimit,
		MissingKeys:  a.cfg.MissingKeys(),
	}, a.log, a.metrics)

	a.log.WithFields(logrus.Fields{
		"channel": a.cfg.Channel,
		"member":  profile.DeviceID,
	}).Info("starting chat")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return session.Run(gctx)
	})
	if addr := a.cfg.MetricsAddr; addr != "" {
		g.Go(func() error {
			return a.metrics.Serve(gctx, addr)
		})
	}
	g.Go(func() error {
		defer cancel()

		saveName := func(ctx context.Context, name string) error {
			_, _, err := a.profiles.RememberFriendlyName(ctx, name)
			return err
		}
		return runChatUI(gctx, session, saveName, chatui.Options{
			Input:     cmd.InOrStdin(),
			Output:    cmd.OutOrStdout(),
			AltScreen: true,
		})
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("chat: %w", err)
	}

	return nil
}
