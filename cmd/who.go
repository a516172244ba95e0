package cmd

import (
	"context"
	"fmt"

	"github.com/bnema/groupchat-cli/internal/adapters/render/transcript"
	"github.com/bnema/groupchat-cli/internal/application"
	"github.com/bnema/groupchat-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newWhoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "who",
		Short: "List members currently online",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, _ []string) error {
			bus, err := a.messaging(cmd.Context())
			if err != nil {
				return err
			}

			var ids []domain.MemberID
			var names map[domain.MemberID]string
			query := loadStep{label: "Querying presence...", run: func(ctx context.Context) error {
				ids, err = bus.QueryPresence(ctx, a.cfg.Channel)
				if err != nil {
					return fmt.Errorf("query presence: %w", err)
				}
				return nil
			}}
			lookup := loadStep{label: "Resolving names...", run: func(ctx context.Context) error {
				names, err = resolveNames(ctx, bus, a.log, ids)
				return err
			}}
			summary := func() string {
				return fmt.Sprintf("%s online on #%s, %d named", plural(len(ids), "member"), a.cfg.Channel, len(names))
			}

			if err := load(cmd.Context(), cmd.ErrOrStderr(), false, summary, query, lookup); err != nil {
				return err
			}

			view := application.View{Channel: a.cfg.Channel, Heading: heading(a)}
			for _, id := range ids {
				view.Members = append(view.Members, application.MemberView{
					Member: domain.Member{ID: id, DisplayName: names[id]},
				})
			}

			return writeView(cmd, a, view, transcript.SectionMembers)
		}),
	}
}
