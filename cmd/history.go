package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bnema/groupchat-cli/internal/adapters/render/transcript"
	"github.com/bnema/groupchat-cli/internal/application"
	"github.com/bnema/groupchat-cli/internal/domain"
	"github.com/spf13/cobra"
)

type historyEntry struct {
	Timetoken   domain.Timetoken `json:"timetoken"`
	Sender      domain.MemberID  `json:"sender"`
	Name        string           `json:"name"`
	Body        string           `json:"body"`
	PublishedAt time.Time        `json:"published_at"`
}

func newHistoryCmd(a *app) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the most recent messages of the channel",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("limit") {
				limit = a.cfg.HistoryLimit
			}
			if limit < 1 || limit > application.MaxHistoryLimit {
				return fmt.Errorf("--limit must be between 1 and %d", application.MaxHistoryLimit)
			}

			return runHistory(cmd, a, limit, asJSON)
		}),
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Number of messages to show (1-100, default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func runHistory(cmd *cobra.Command, a *app, limit int, asJSON bool) error {
	profile, err := a.profiles.EnsureProfile(cmd.Context())
	if err != nil {
		return err
	}

	bus, err := a.messaging(cmd.Context())
	if err != nil {
		return err
	}

	var msgs []domain.ChatMessage
	var names map[domain.MemberID]string
	fetch := loadStep{label: "Fetching history...", run: func(ctx context.Context) error {
		msgs, err = bus.FetchRecent(ctx, a.cfg.Channel, limit)
		if err != nil {
			return fmt.Errorf("fetch history: %w", err)
		}
		return nil
	}}
	lookup := loadStep{label: "Resolving names...", run: func(ctx context.Context) error {
		senders := make([]domain.MemberID, 0, len(msgs))
		for _, msg := range msgs {
			senders = append(senders, msg.Sender)
		}
		names, err = resolveNames(ctx, bus, a.log, senders)
		return err
	}}
	summary := func() string {
		senders := map[domain.MemberID]struct{}{}
		for _, msg := range msgs {
			senders[msg.Sender] = struct{}{}
		}
		return fmt.Sprintf("%s from %s on #%s", plural(len(msgs), "message"), plural(len(senders), "member"), a.cfg.Channel)
	}

	if err := load(cmd.Context(), cmd.ErrOrStderr(), asJSON, summary, fetch, lookup); err != nil {
		return err
	}

	if asJSON {
		entries := make([]historyEntry, 0, len(msgs))
		for _, msg := range msgs {
			entries = append(entries, historyEntry{
				Timetoken:   msg.Timetoken,
				Sender:      msg.Sender,
				Name:        label(names, msg.Sender),
				Body:        msg.Body,
				PublishedAt: msg.PublishedAt,
			})
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	view := application.View{
		Channel:  a.cfg.Channel,
		Heading:  heading(a),
		Messages: make([]application.MessageView, 0, len(msgs)),
	}
	for _, msg := range msgs {
		view.Messages = append(view.Messages, application.MessageView{
			ChatMessage: msg,
			SenderName:  label(names, msg.Sender),
			Mine:        msg.Sender == profile.DeviceID,
		})
	}

	return writeView(cmd, a, view, transcript.SectionMessages)
}

func heading(a *app) string {
	if a.cfg.MissingKeys() {
		return application.HeadingMissingKeys
	}
	return application.HeadingReady
}

func writeView(cmd *cobra.Command, a *app, view application.View, section transcript.Section) error {
	rendered, err := a.render(view, transcript.RenderOptions{Section: section})
	if err != nil {
		return fmt.Errorf("render transcript: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
