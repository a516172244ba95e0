package cmd

import (
	"context"
	"sync"

	"github.com/bnema/groupchat-cli/internal/domain"
	"github.com/bnema/groupchat-cli/internal/ports"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const lookupConcurrency = 8

// resolveNames looks up display names for ids. Ids without a name, or whose
// lookup failed, are missing from the result.
func resolveNames(ctx context.Context, store ports.MetadataStore, log logrus.FieldLogger, ids []domain.MemberID) (map[domain.MemberID]string, error) {
	names := make(map[domain.MemberID]string, len(ids))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)

	seen := make(map[domain.MemberID]struct{}, len(ids))
	for _, id := range ids {
		id := id
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}

		g.Go(func() error {
			name, found, err := store.GetIdentityMetadata(gctx, id)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.WithError(err).WithField("member", id).Warn("identity lookup failed")
				return nil
			}
			if !found || name == "" {
				return nil
			}

			mu.Lock()
			names[id] = name
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return names, nil
}

func label(names map[domain.MemberID]string, id domain.MemberID) string {
	return domain.Member{ID: id, DisplayName: names[id]}.Label()
}
