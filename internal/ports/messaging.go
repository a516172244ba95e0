package ports

import (
	"context"

	"github.com/bnema/groupchat-cli/internal/domain"
)

type Publisher interface {
	Publish(ctx context.Context, channel string, sender domain.MemberID, body string) (domain.Timetoken, error)
}

// HistoryFetcher returns at most limit of the newest messages, oldest first.
type HistoryFetcher interface {
	FetchRecent(ctx context.Context, channel string, limit int) ([]domain.ChatMessage, error)
}

type PresenceQuerier interface {
	QueryPresence(ctx context.Context, channel string) ([]domain.MemberID, error)
}

type MetadataStore interface {
	GetIdentityMetadata(ctx context.Context, id domain.MemberID) (name string, found bool, err error)
	SetIdentityMetadata(ctx context.Context, id domain.MemberID, name string) error
}

type MembershipStore interface {
	SetMembership(ctx context.Context, id domain.MemberID, channel string) error
}

// Subscription delivers events for one channel in the order the service
// emits them. Close unsubscribes and announces the leave.
type Subscription interface {
	Events() <-chan domain.Event
	Close() error
}

type Subscriber interface {
	Subscribe(ctx context.Context, channel string, self domain.MemberID) (Subscription, error)
}

type MessagingService interface {
	Publisher
	HistoryFetcher
	PresenceQuerier
	MetadataStore
	MembershipStore
	Subscriber
}
