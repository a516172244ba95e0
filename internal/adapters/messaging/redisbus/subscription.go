package redisbus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/groupchat-cli/internal/domain"
	"github.com/bnema/groupchat-cli/internal/ports"
	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	eventBuffer      = 64
	heartbeatsPerTTL = 3
)

var _ ports.Subscription = (*subscription)(nil)

type subscription struct {
	svc     *Service
	pubsub  *redis.PubSub
	channel string
	self    domain.MemberID
	events  chan domain.Event
	done    chan struct{}
	once    sync.Once
	log     logrus.FieldLogger
}

// Subscribe listens on channel and on identity updates, then records self
// as present and announces it. Events are delivered in publish order.
func (s *Service) Subscribe(ctx context.Context, channel string, self domain.MemberID) (ports.Subscription, error) {
	pubsub := s.client.Subscribe(ctx, channelTopic(s.ns, channel), objectsTopic(s.ns))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	occupancy, err := s.join(ctx, channel, self)
	if err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	sub := &subscription{
		svc:     s,
		pubsub:  pubsub,
		channel: channel,
		self:    self,
		events:  make(chan domain.Event, eventBuffer),
		done:    make(chan struct{}),
		log:     s.log.WithFields(logrus.Fields{"channel": channel, "member": self}),
	}
	go sub.run(pubsub.Channel())
	go sub.keepAlive(s.presenceTTL / heartbeatsPerTTL)

	sub.log.WithField("occupancy", occupancy).Debug("subscribed")
	return sub, nil
}

func (s *subscription) Events() <-chan domain.Event {
	return s.events
}

// Close unsubscribes, removes self from the channel and announces the leave.
// Above announceMax the leave goes out as an interval like the join did.
func (s *subscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)

		if closeErr := s.pubsub.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close pubsub: %w", closeErr))
		}

		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if leaveErr := s.svc.leave(ctx, s.channel, s.self); leaveErr != nil {
			err = errors.Join(err, leaveErr)
		}
	})

	return err
}

func (s *subscription) run(messages <-chan *redis.Message) {
	defer close(s.events)

	for {
		select {
		case <-s.done:
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}

			ev, err := decodeEvent([]byte(msg.Payload))
			if err != nil {
				s.log.WithError(err).WithField("topic", msg.Channel).Warn("dropped undecodable event")
				continue
			}

			select {
			case s.events <- ev:
			case <-s.done:
				return
			}
		}
	}
}

// keepAlive refreshes self's heartbeat and expires members that stopped
// sending theirs, until the subscription closes.
func (s *subscription) keepAlive(every time.Duration) {
	if every <= 0 {
		every = time.Second
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *subscription) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	if err := s.svc.beat(ctx, s.channel, s.self); err != nil {
		s.log.WithError(err).Warn("presence heartbeat failed")
	}
	expired, err := s.svc.sweep(ctx, s.channel)
	if err != nil {
		s.log.WithError(err).Warn("presence sweep failed")
	}
	if len(expired) > 0 {
		s.log.WithField("expired", expired).Info("expired silent members")
	}
}
