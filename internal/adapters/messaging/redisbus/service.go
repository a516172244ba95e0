package redisbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bnema/groupchat-cli/internal/domain"
	"github.com/bnema/groupchat-cli/internal/ports"
	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	DefaultAnnounceMax = 20
	DefaultPresenceTTL = 30 * time.Second
	pingTimeout        = 3 * time.Second
	closeTimeout       = 2 * time.Second
	identityField      = "name"
)

var _ ports.MessagingService = (*Service)(nil)

type Options struct {
	// Namespace prefixes every key and topic. It is the subscribe key.
	Namespace   string
	PublishKey  string
	AnnounceMax int
	// PresenceTTL is how long a member stays present without a heartbeat.
	PresenceTTL time.Duration
	Clock       ports.Clock
	Logger      logrus.FieldLogger
}

// Service implements the messaging service on top of Redis keys and
// pub/sub topics.
type Service struct {
	client      *redis.Client
	ns          string
	publishKey  string
	announceMax int
	presenceTTL time.Duration
	clock       ports.Clock
	log         logrus.FieldLogger
}

// Dial connects to redisURL and checks the connection.
func Dial(ctx context.Context, redisURL string, opts Options) (*Service, error) {
	parsed, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(parsed)
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	svc, err := New(client, opts)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return svc, nil
}

func New(client *redis.Client, opts Options) (*Service, error) {
	ns := strings.TrimSpace(opts.Namespace)
	if ns == "" {
		return nil, domain.ErrMissingSubscribeKey
	}
	if opts.AnnounceMax <= 0 {
		opts.AnnounceMax = DefaultAnnounceMax
	}
	if opts.PresenceTTL <= 0 {
		opts.PresenceTTL = DefaultPresenceTTL
	}
	if opts.Clock == nil {
		opts.Clock = ports.SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}

	return &Service{
		client:      client,
		ns:          ns,
		publishKey:  strings.TrimSpace(opts.PublishKey),
		announceMax: opts.AnnounceMax,
		presenceTTL: opts.PresenceTTL,
		clock:       opts.Clock,
		log:         opts.Logger.WithField("component", "redisbus"),
	}, nil
}

func (s *Service) Close() error {
	return s.client.Close()
}

func (s *Service) Publish(ctx context.Context, channel string, sender domain.MemberID, body string) (domain.Timetoken, error) {
	if s.publishKey == "" {
		return 0, domain.ErrMissingPublishKey
	}

	tt, err := s.client.Incr(ctx, timetokenKey(s.ns, channel)).Result()
	if err != nil {
		return 0, fmt.Errorf("allocate timetoken: %w", err)
	}

	payload := messagePayload{
		Body:        body,
		Sender:      string(sender),
		Timetoken:   tt,
		PublishedAt: s.clock.Now().UTC(),
	}
	stored, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("encode message: %w", err)
	}
	live, err := encode(envelope{Type: envelopeMessage, Channel: channel, Message: &payload})
	if err != nil {
		return 0, err
	}

	key := historyKey(s.ns, channel)
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(tt), Member: string(stored)})
		pipe.ZRemRangeByRank(ctx, key, 0, -(HistoryCap + 1))
		pipe.Publish(ctx, channelTopic(s.ns, channel), live)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("publish message: %w", err)
	}

	return domain.Timetoken(tt), nil
}

func (s *Service) FetchRecent(ctx context.Context, channel string, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		return nil, nil
	}

	results, err := s.client.ZRevRange(ctx, historyKey(s.ns, channel), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	msgs := make([]domain.ChatMessage, 0, len(results))
	for i := len(results) - 1; i >= 0; i-- {
		var payload messagePayload
		if err := json.Unmarshal([]byte(results[i]), &payload); err != nil {
			s.log.WithError(err).WithField("channel", channel).Warn("skipped undecodable history entry")
			continue
		}
		msgs = append(msgs, payload.toDomain(domain.OriginHistory))
	}

	return msgs, nil
}

func (s *Service) QueryPresence(ctx context.Context, channel string) ([]domain.MemberID, error) {
	raw, err := s.client.SMembers(ctx, presenceKey(s.ns, channel)).Result()
	if err != nil {
		return nil, fmt.Errorf("query presence: %w", err)
	}

	sort.Strings(raw)
	ids := memberIDs(raw)
	if ids == nil {
		ids = []domain.MemberID{}
	}
	return ids, nil
}

func (s *Service) GetIdentityMetadata(ctx context.Context, id domain.MemberID) (string, bool, error) {
	name, err := s.client.HGet(ctx, identityKey(s.ns, string(id)), identityField).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get identity metadata: %w", err)
	}

	return name, true, nil
}

// SetIdentityMetadata stores name and notifies every subscriber.
func (s *Service) SetIdentityMetadata(ctx context.Context, id domain.MemberID, name string) error {
	if s.publishKey == "" {
		return domain.ErrMissingPublishKey
	}

	data, err := encode(envelope{Type: envelopeIdentity, Identity: &identityPayload{UUID: string(id), Name: name}})
	if err != nil {
		return err
	}

	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, identityKey(s.ns, string(id)), identityField, name)
		pipe.Publish(ctx, objectsTopic(s.ns), data)
		return nil
	})
	if err != nil {
		return fmt.Errorf("set identity metadata: %w", err)
	}

	return nil
}

func (s *Service) SetMembership(ctx context.Context, id domain.MemberID, channel string) error {
	if err := s.client.SAdd(ctx, membershipsKey(s.ns, string(id)), channel).Err(); err != nil {
		return fmt.Errorf("set membership: %w", err)
	}

	return nil
}

func (s *Service) memberships(ctx context.Context, id domain.MemberID) ([]string, error) {
	channels, err := s.client.SMembers(ctx, membershipsKey(s.ns, string(id))).Result()
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}

	sort.Strings(channels)
	return channels, nil
}

func (s *Service) publishPresence(ctx context.Context, channel string, presence presencePayload) error {
	data, err := encode(envelope{Type: envelopePresence, Channel: channel, Presence: &presence})
	if err != nil {
		return err
	}

	if err := s.client.Publish(ctx, channelTopic(s.ns, channel), data).Err(); err != nil {
		return fmt.Errorf("announce %s: %w", presence.Action, err)
	}
	return nil
}
