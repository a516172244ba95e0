package redisbus

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/groupchat-cli/internal/domain"
)

const (
	envelopeMessage  = "message"
	envelopePresence = "presence"
	envelopeIdentity = "identity"

	actionJoin     = "join"
	actionLeave    = "leave"
	actionTimeout  = "timeout"
	actionInterval = "interval"
)

var (
	errUnknownEnvelope = errors.New("unknown envelope type")
	errUnknownAction   = errors.New("unknown presence action")
	errEmptyPayload    = errors.New("envelope without payload")
)

type envelope struct {
	Type     string           `json:"type"`
	Channel  string           `json:"channel,omitempty"`
	Message  *messagePayload  `json:"message,omitempty"`
	Presence *presencePayload `json:"presence,omitempty"`
	Identity *identityPayload `json:"identity,omitempty"`
}

type messagePayload struct {
	Body        string    `json:"body"`
	Sender      string    `json:"sender"`
	Timetoken   int64     `json:"timetoken"`
	PublishedAt time.Time `json:"published_at"`
}

type presencePayload struct {
	Action    string   `json:"action"`
	UUID      string   `json:"uuid,omitempty"`
	Joined    []string `json:"joined,omitempty"`
	Left      []string `json:"left,omitempty"`
	Occupancy int      `json:"occupancy,omitempty"`
	Refresh   bool     `json:"here_now_refresh,omitempty"`
}

type identityPayload struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

func (p messagePayload) toDomain(origin domain.Origin) domain.ChatMessage {
	return domain.ChatMessage{
		Body:        p.Body,
		Sender:      domain.MemberID(p.Sender),
		Timetoken:   domain.Timetoken(p.Timetoken),
		PublishedAt: p.PublishedAt,
		Origin:      origin,
	}
}

func decodeEvent(data []byte) (domain.Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	switch env.Type {
	case envelopeMessage:
		if env.Message == nil {
			return nil, errEmptyPayload
		}
		return domain.MessageEvent{Channel: env.Channel, Message: env.Message.toDomain(domain.OriginLive)}, nil
	case envelopePresence:
		if env.Presence == nil {
			return nil, errEmptyPayload
		}
		presence, err := decodePresence(*env.Presence)
		if err != nil {
			return nil, err
		}
		return domain.PresenceChange{Channel: env.Channel, Presence: presence}, nil
	case envelopeIdentity:
		if env.Identity == nil {
			return nil, errEmptyPayload
		}
		return domain.IdentityChange{ID: domain.MemberID(env.Identity.UUID), Name: env.Identity.Name}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownEnvelope, env.Type)
	}
}

func decodePresence(p presencePayload) (domain.PresenceEvent, error) {
	switch p.Action {
	case actionJoin:
		return domain.JoinEvent{ID: domain.MemberID(p.UUID)}, nil
	case actionLeave:
		return domain.LeaveEvent{ID: domain.MemberID(p.UUID)}, nil
	case actionTimeout:
		return domain.LeaveEvent{ID: domain.MemberID(p.UUID), Timeout: true}, nil
	case actionInterval:
		return domain.IntervalEvent{
			Joined:  memberIDs(p.Joined),
			Left:    memberIDs(p.Left),
			Refresh: p.Refresh,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownAction, p.Action)
	}
}

func memberIDs(raw []string) []domain.MemberID {
	if len(raw) == 0 {
		return nil
	}

	ids := make([]domain.MemberID, 0, len(raw))
	for _, id := range raw {
		ids = append(ids, domain.MemberID(id))
	}
	return ids
}

func encode(env envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s envelope: %w", env.Type, err)
	}
	return data, nil
}
