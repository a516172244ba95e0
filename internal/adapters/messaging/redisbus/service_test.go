package redisbus

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bnema/groupchat-cli/internal/domain"
	"github.com/bnema/groupchat-cli/internal/ports"
	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/suite"
)

const (
	testChannel  = "group_chat"
	eventTimeout = 2 * time.Second
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type ServiceSuite struct {
	suite.Suite
	server *miniredis.Miniredis
	client *redis.Client
	svc    *Service
	now    time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.server = miniredis.RunT(s.T())
	s.client = redis.NewClient(&redis.Options{Addr: s.server.Addr()})
	client := s.client
	s.T().Cleanup(func() { _ = client.Close() })
	s.now = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	s.svc = s.newService(Options{})
}

func (s *ServiceSuite) newService(opts Options) *Service {
	log := logrus.New()
	log.SetOutput(io.Discard)

	if opts.Namespace == "" {
		opts.Namespace = "sub-key"
	}
	if opts.PublishKey == "" {
		opts.PublishKey = "pub-key"
	}
	opts.Clock = fixedClock{now: s.now}
	opts.Logger = log

	svc, err := New(s.client, opts)
	s.Require().NoError(err)
	return svc
}

func (s *ServiceSuite) subscribe(svc *Service, self domain.MemberID) ports.Subscription {
	sub, err := svc.Subscribe(context.Background(), testChannel, self)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = sub.Close() })
	return sub
}

func (s *ServiceSuite) nextEvent(sub ports.Subscription) domain.Event {
	select {
	case ev, ok := <-sub.Events():
		s.Require().True(ok, "subscription closed")
		return ev
	case <-time.After(eventTimeout):
		s.FailNow("timed out waiting for event")
		return nil
	}
}

func (s *ServiceSuite) TestNewRequiresNamespace() {
	_, err := New(s.client, Options{})
	s.ErrorIs(err, domain.ErrMissingSubscribeKey)
}

func (s *ServiceSuite) TestPublishAssignsIncreasingTimetokens() {
	ctx := context.Background()

	first, err := s.svc.Publish(ctx, testChannel, "A", "hi")
	s.Require().NoError(err)
	second, err := s.svc.Publish(ctx, testChannel, "B", "yo")
	s.Require().NoError(err)

	s.Less(first, second)
}

func (s *ServiceSuite) TestPublishWithoutPublishKey() {
	svc, err := New(s.client, Options{Namespace: "sub-key"})
	s.Require().NoError(err)

	_, err = svc.Publish(context.Background(), testChannel, "A", "hi")
	s.ErrorIs(err, domain.ErrMissingPublishKey)
	s.ErrorIs(svc.SetIdentityMetadata(context.Background(), "A", "Alice"), domain.ErrMissingPublishKey)
}

func (s *ServiceSuite) TestFetchRecentReturnsNewestOldestFirst() {
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		_, err := s.svc.Publish(ctx, testChannel, "A", fmt.Sprintf("m%d", i))
		s.Require().NoError(err)
	}

	msgs, err := s.svc.FetchRecent(ctx, testChannel, 3)
	s.Require().NoError(err)
	s.Require().Len(msgs, 3)

	s.Equal("m3", msgs[0].Body)
	s.Equal("m5", msgs[2].Body)
	s.Equal(domain.OriginHistory, msgs[0].Origin)
	s.Equal(domain.MemberID("A"), msgs[0].Sender)
	s.True(msgs[0].PublishedAt.Equal(s.now))
	s.Less(msgs[0].Timetoken, msgs[1].Timetoken)
}

func (s *ServiceSuite) TestFetchRecentSkipsUndecodableEntries() {
	ctx := context.Background()
	_, err := s.svc.Publish(ctx, testChannel, "A", "ok")
	s.Require().NoError(err)
	s.Require().NoError(s.client.ZAdd(ctx, historyKey("sub-key", testChannel), redis.Z{Score: 99, Member: "not json"}).Err())

	msgs, err := s.svc.FetchRecent(ctx, testChannel, 10)
	s.Require().NoError(err)
	s.Require().Len(msgs, 1)
	s.Equal("ok", msgs[0].Body)
}

func (s *ServiceSuite) TestHistoryIsCapped() {
	ctx := context.Background()
	for i := 0; i < HistoryCap+5; i++ {
		_, err := s.svc.Publish(ctx, testChannel, "A", fmt.Sprintf("m%d", i))
		s.Require().NoError(err)
	}

	count, err := s.client.ZCard(ctx, historyKey("sub-key", testChannel)).Result()
	s.Require().NoError(err)
	s.Equal(int64(HistoryCap), count)

	msgs, err := s.svc.FetchRecent(ctx, testChannel, HistoryCap+5)
	s.Require().NoError(err)
	s.Equal("m5", msgs[0].Body)
}

func (s *ServiceSuite) TestFetchRecentEmptyChannel() {
	msgs, err := s.svc.FetchRecent(context.Background(), "quiet", 8)
	s.Require().NoError(err)
	s.Empty(msgs)
}

func (s *ServiceSuite) TestIdentityMetadataRoundTrip() {
	ctx := context.Background()

	_, found, err := s.svc.GetIdentityMetadata(ctx, "A")
	s.Require().NoError(err)
	s.False(found)

	s.Require().NoError(s.svc.SetIdentityMetadata(ctx, "A", "Alice"))
	name, found, err := s.svc.GetIdentityMetadata(ctx, "A")
	s.Require().NoError(err)
	s.True(found)
	s.Equal("Alice", name)
}

func (s *ServiceSuite) TestSetMembership() {
	ctx := context.Background()
	s.Require().NoError(s.svc.SetMembership(ctx, "A", testChannel))
	s.Require().NoError(s.svc.SetMembership(ctx, "A", testChannel))

	channels, err := s.svc.memberships(ctx, "A")
	s.Require().NoError(err)
	s.Equal([]string{testChannel}, channels)
}

func (s *ServiceSuite) TestSubscribeRecordsPresenceAndAnnouncesJoin() {
	sub := s.subscribe(s.svc, "A")

	s.Equal(domain.PresenceChange{Channel: testChannel, Presence: domain.JoinEvent{ID: "A"}}, s.nextEvent(sub))

	ids, err := s.svc.QueryPresence(context.Background(), testChannel)
	s.Require().NoError(err)
	s.Equal([]domain.MemberID{"A"}, ids)
}

func (s *ServiceSuite) TestSubscriptionDeliversMessagesInOrder() {
	ctx := context.Background()
	sub := s.subscribe(s.svc, "A")
	s.nextEvent(sub)

	_, err := s.svc.Publish(ctx, testChannel, "B", "one")
	s.Require().NoError(err)
	_, err = s.svc.Publish(ctx, testChannel, "B", "two")
	s.Require().NoError(err)

	first, ok := s.nextEvent(sub).(domain.MessageEvent)
	s.Require().True(ok)
	second, ok := s.nextEvent(sub).(domain.MessageEvent)
	s.Require().True(ok)

	s.Equal("one", first.Message.Body)
	s.Equal("two", second.Message.Body)
	s.Equal(domain.OriginLive, second.Message.Origin)
	s.Equal(testChannel, second.Channel)
}

func (s *ServiceSuite) TestCloseRemovesPresenceAndAnnouncesLeave() {
	ctx := context.Background()
	watcher := s.subscribe(s.svc, "A")
	s.nextEvent(watcher)

	other, err := s.svc.Subscribe(ctx, testChannel, "B")
	s.Require().NoError(err)
	s.Equal(domain.JoinEvent{ID: "B"}, s.nextEvent(watcher).(domain.PresenceChange).Presence)

	s.Require().NoError(other.Close())
	s.Require().NoError(other.Close())
	s.Equal(domain.LeaveEvent{ID: "B"}, s.nextEvent(watcher).(domain.PresenceChange).Presence)

	ids, err := s.svc.QueryPresence(ctx, testChannel)
	s.Require().NoError(err)
	s.Equal([]domain.MemberID{"A"}, ids)

	_, open := <-other.Events()
	s.False(open)
}

func (s *ServiceSuite) TestIdentityChangesReachSubscribers() {
	sub := s.subscribe(s.svc, "A")
	s.nextEvent(sub)

	s.Require().NoError(s.svc.SetIdentityMetadata(context.Background(), "B", "Bob"))
	s.Equal(domain.IdentityChange{ID: "B", Name: "Bob"}, s.nextEvent(sub))
}

func (s *ServiceSuite) TestUndecodableEventsAreDropped() {
	ctx := context.Background()
	sub := s.subscribe(s.svc, "A")
	s.nextEvent(sub)

	topic := channelTopic("sub-key", testChannel)
	s.Require().NoError(s.client.Publish(ctx, topic, "garbage").Err())
	s.Require().NoError(s.client.Publish(ctx, topic, `{"type":"presence","channel":"group_chat","presence":{"action":"state-change"}}`).Err())
	s.Require().NoError(s.client.Publish(ctx, topic, `{"type":"presence","channel":"group_chat","presence":{"action":"timeout","uuid":"C"}}`).Err())

	s.Equal(domain.LeaveEvent{ID: "C", Timeout: true}, s.nextEvent(sub).(domain.PresenceChange).Presence)
}

func (s *ServiceSuite) TestAnnounceMaxSwitchesToIntervalRefresh() {
	svc := s.newService(Options{AnnounceMax: 1})
	watcher := s.subscribe(svc, "A")
	s.nextEvent(watcher)

	s.subscribe(svc, "B")
	s.Equal(domain.IntervalEvent{Refresh: true}, s.nextEvent(watcher).(domain.PresenceChange).Presence)
}

func (s *ServiceSuite) TestCloseAboveAnnounceMaxSendsIntervalLeave() {
	svc := s.newService(Options{AnnounceMax: 1})
	watcher := s.subscribe(svc, "A")
	s.nextEvent(watcher)

	other, err := svc.Subscribe(context.Background(), testChannel, "B")
	s.Require().NoError(err)
	s.Equal(domain.IntervalEvent{Refresh: true}, s.nextEvent(watcher).(domain.PresenceChange).Presence)

	s.Require().NoError(other.Close())
	s.Equal(domain.IntervalEvent{Left: []domain.MemberID{"B"}}, s.nextEvent(watcher).(domain.PresenceChange).Presence)
	s.False(s.server.Exists(heartbeatKey("sub-key", testChannel, "B")))
}

func (s *ServiceSuite) seedSilentMember(id string) {
	ctx := context.Background()
	s.Require().NoError(s.client.SAdd(ctx, presenceKey("sub-key", testChannel), id).Err())
	s.Require().NoError(s.client.Set(ctx, heartbeatKey("sub-key", testChannel, id), 1, DefaultPresenceTTL).Err())
}

func (s *ServiceSuite) TestSubscribeStartsHeartbeat() {
	s.subscribe(s.svc, "A")

	key := heartbeatKey("sub-key", testChannel, "A")
	s.True(s.server.Exists(key))
	s.Equal(DefaultPresenceTTL, s.server.TTL(key))
}

func (s *ServiceSuite) TestSweepTimesOutMembersWithoutHeartbeat() {
	ctx := context.Background()
	watcher := s.subscribe(s.svc, "A")
	s.nextEvent(watcher)
	s.seedSilentMember("B")

	expired, err := s.svc.sweep(ctx, testChannel)
	s.Require().NoError(err)
	s.Empty(expired)

	s.server.FastForward(DefaultPresenceTTL + time.Second)
	s.Require().NoError(s.svc.beat(ctx, testChannel, "A"))

	expired, err = s.svc.sweep(ctx, testChannel)
	s.Require().NoError(err)
	s.Equal([]domain.MemberID{"B"}, expired)
	s.Equal(domain.LeaveEvent{ID: "B", Timeout: true}, s.nextEvent(watcher).(domain.PresenceChange).Presence)

	ids, err := s.svc.QueryPresence(ctx, testChannel)
	s.Require().NoError(err)
	s.Equal([]domain.MemberID{"A"}, ids)

	expired, err = s.svc.sweep(ctx, testChannel)
	s.Require().NoError(err)
	s.Empty(expired)
}

func (s *ServiceSuite) TestSweepAboveAnnounceMaxSendsIntervalLeave() {
	ctx := context.Background()
	svc := s.newService(Options{AnnounceMax: 1})
	watcher := s.subscribe(svc, "A")
	s.nextEvent(watcher)
	s.seedSilentMember("B")
	s.seedSilentMember("C")

	s.server.FastForward(DefaultPresenceTTL + time.Second)
	s.Require().NoError(svc.beat(ctx, testChannel, "A"))

	expired, err := svc.sweep(ctx, testChannel)
	s.Require().NoError(err)
	s.Equal([]domain.MemberID{"B", "C"}, expired)
	s.Equal(domain.IntervalEvent{Left: []domain.MemberID{"B", "C"}}, s.nextEvent(watcher).(domain.PresenceChange).Presence)
}
