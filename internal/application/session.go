package application

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bnema/groupchat-cli/internal/domain"
	"github.com/bnema/groupchat-cli/internal/ports"
	"github.com/sirupsen/logrus"
)

const (
	DefaultHistoryLimit = 8
	MaxHistoryLimit     = 100
	updateQueueSize     = 256
)

var errSessionRunning = errors.New("session already running")

type SessionConfig struct {
	Channel      string
	Self         domain.MemberID
	SelfName     string
	HistoryLimit int
	MissingKeys  bool
}

// Session coordinates one device's participation in a channel. All state is
// owned by the goroutine running Run; public methods post closures to it.
type Session struct {
	svc     ports.MessagingService
	cfg     SessionConfig
	log     logrus.FieldLogger
	metrics ports.SessionMetrics

	updates  chan func()
	changes  chan struct{}
	stopping chan struct{}
	done     chan struct{}
	running  atomic.Bool
	view     atomic.Pointer[View]
	// inflight counts subscribe, membership and unsubscribe calls that
	// must finish before Run returns.
	inflight sync.WaitGroup

	// loop-owned
	ctx           context.Context
	epoch         uint64
	sub           ports.Subscription
	membershipSet bool
	directory     *Directory
	presence      *PresenceTracker
	timeline      *TimelineMerger
	liveSeq       uint64
	notice        string
}

func NewSession(svc ports.MessagingService, cfg SessionConfig, log logrus.FieldLogger, metrics ports.SessionMetrics) *Session {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	if cfg.HistoryLimit > MaxHistoryLimit {
		cfg.HistoryLimit = MaxHistoryLimit
	}

	s := &Session{
		svc:       svc,
		cfg:       cfg,
		log:       log.WithField("channel", cfg.Channel),
		metrics:   metrics,
		updates:   make(chan func(), updateQueueSize),
		changes:   make(chan struct{}, 1),
		stopping:  make(chan struct{}),
		done:      make(chan struct{}),
		ctx:       context.Background(),
		directory: NewDirectory(),
		presence:  NewPresenceTracker(),
		timeline:  NewTimelineMerger(),
	}
	if name := strings.TrimSpace(cfg.SelfName); name != "" {
		s.directory.Override(cfg.Self, name)
	}
	s.publishView()

	return s
}

// Run processes updates until ctx is cancelled. It must be called once. Run
// returns only after the subscription is closed and the leave announced.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return errSessionRunning
	}
	s.ctx = ctx
	defer close(s.done)
	defer s.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-s.updates:
			fn()
			s.publishView()
		}
	}
}

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Changes signals that View has a newer snapshot. Signals coalesce.
func (s *Session) Changes() <-chan struct{} {
	return s.changes
}

func (s *Session) View() View {
	return *s.view.Load()
}

func (s *Session) Activate() {
	s.post(s.activate)
}

func (s *Session) Deactivate() {
	s.post(s.deactivate)
}

// Send publishes body. The message shows up once the service echoes it on
// the live stream.
func (s *Session) Send(body string) {
	body = strings.TrimSpace(body)
	if body == "" {
		return
	}

	s.post(func() {
		ctx := s.ctx
		go func() {
			tt, err := s.svc.Publish(ctx, s.cfg.Channel, s.cfg.Self, body)
			if err != nil {
				s.log.WithError(err).Warn("publish message failed")
				s.post(func() { s.notice = "message not sent: " + err.Error() })
				return
			}
			s.log.WithField("timetoken", tt).Debug("message published")
		}()
	})
}

// Rename updates this device's display name locally at once and publishes
// it as identity metadata in the background.
func (s *Session) Rename(name string) error {
	normalized, err := domain.NormalizeDisplayName(name)
	if err != nil {
		return err
	}

	s.post(func() {
		if current, ok := s.directory.Name(s.cfg.Self); ok && current == normalized {
			return
		}
		s.directory.Override(s.cfg.Self, normalized)

		ctx := s.ctx
		go func() {
			if err := s.svc.SetIdentityMetadata(ctx, s.cfg.Self, normalized); err != nil {
				s.log.WithError(err).Warn("publish display name failed")
				s.post(func() { s.notice = "display name not published: " + err.Error() })
				return
			}
			s.log.WithField("name", normalized).Info("display name published")
		}()
	})

	return nil
}

// Resolve returns the current display value for id, starting a metadata
// lookup the first time an unnamed id is seen.
func (s *Session) Resolve(ctx context.Context, id domain.MemberID) (string, error) {
	var label string
	err := s.call(ctx, func() {
		label = s.observe(id)
	})

	return label, err
}

// Override sets the display name of id. Blank names are ignored.
func (s *Session) Override(id domain.MemberID, name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}

	s.post(func() {
		s.directory.Override(id, name)
	})
}

func (s *Session) post(fn func()) bool {
	select {
	case <-s.stopping:
		return false
	default:
	}

	select {
	case s.updates <- fn:
		return true
	case <-s.stopping:
		return false
	}
}

func (s *Session) call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !s.post(func() {
		fn()
		close(finished)
	}) {
		return domain.ErrSessionClosed
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return domain.ErrSessionClosed
	}
}

func (s *Session) activate() {
	if !s.presence.Activate() {
		return
	}
	s.epoch++
	epoch := s.epoch
	s.notice = ""
	s.log.WithField("epoch", epoch).Info("session activated")

	s.presence.Join(s.cfg.Self)
	s.observe(s.cfg.Self)
	s.metrics.RosterSize(s.presence.Len())

	if !s.membershipSet {
		s.membershipSet = true
		s.setMembership()
	}
	s.subscribe(epoch)
}

func (s *Session) deactivate() {
	if !s.presence.Deactivate() {
		return
	}
	s.epoch++
	cancelled := s.directory.CancelLookups()
	s.log.WithFields(logrus.Fields{"epoch": s.epoch, "cancelled_lookups": cancelled}).Info("session deactivated")

	if sub := s.sub; sub != nil {
		s.sub = nil
		s.closeAsync(sub)
	}
}

// shutdown runs updates that were queued before the loop stopped, so a
// subscription handed over late is still closed, then waits for every
// tracked call.
func (s *Session) shutdown() {
	close(s.stopping)
	s.epoch++
	if sub := s.sub; sub != nil {
		s.sub = nil
		s.closeAsync(sub)
	}

	for {
		s.inflight.Wait()
		select {
		case fn := <-s.updates:
			fn()
		default:
			s.publishView()
			return
		}
	}
}

// background runs fn on its own goroutine and keeps shutdown waiting for it.
func (s *Session) background(fn func()) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		fn()
	}()
}

func (s *Session) closeAsync(sub ports.Subscription) {
	s.background(func() { s.closeSubscription(sub) })
}

func (s *Session) closeSubscription(sub ports.Subscription) {
	if err := sub.Close(); err != nil {
		s.log.WithError(err).Warn("close subscription failed")
	}
}

func (s *Session) current(epoch uint64, op string) bool {
	if epoch == s.epoch {
		return true
	}

	s.metrics.StaleDropped(op)
	s.log.WithFields(logrus.Fields{"op": op, "epoch": epoch, "current_epoch": s.epoch}).Debug("dropped stale update")
	return false
}

func (s *Session) setMembership() {
	ctx := s.ctx
	s.background(func() {
		if err := s.svc.SetMembership(ctx, s.cfg.Self, s.cfg.Channel); err != nil {
			s.log.WithError(err).Warn("set channel membership failed")
			return
		}
		s.log.Info("channel membership set")
	})
}

func (s *Session) subscribe(epoch uint64) {
	ctx := s.ctx
	s.background(func() {
		sub, err := s.svc.Subscribe(ctx, s.cfg.Channel, s.cfg.Self)
		posted := s.post(func() {
			if !s.current(epoch, "subscribe") {
				if sub != nil {
					s.closeAsync(sub)
				}
				return
			}
			if err != nil {
				s.log.WithError(err).Warn("subscribe failed")
				s.notice = "not connected: " + err.Error()
				return
			}

			s.sub = sub
			go s.pump(epoch, sub)
			s.refreshSnapshot(epoch)
			s.loadBackfill(epoch)
		})
		if !posted && sub != nil {
			s.closeSubscription(sub)
		}
	})
}

func (s *Session) pump(epoch uint64, sub ports.Subscription) {
	for ev := range sub.Events() {
		ev := ev
		if !s.post(func() { s.handleEvent(epoch, ev) }) {
			return
		}
	}
}

func (s *Session) handleEvent(epoch uint64, ev domain.Event) {
	if !s.current(epoch, "event") {
		return
	}

	switch e := ev.(type) {
	case domain.MessageEvent:
		if e.Channel != s.cfg.Channel {
			return
		}
		s.onLiveMessage(e.Message)
	case domain.PresenceChange:
		if e.Channel != s.cfg.Channel {
			return
		}
		s.onPresence(epoch, e.Presence)
	case domain.IdentityChange:
		name := strings.TrimSpace(e.Name)
		if name == "" {
			s.log.WithField("member", e.ID).Debug("ignored identity change without name")
			return
		}
		s.directory.Override(e.ID, name)
	default:
		s.log.WithError(domain.ErrUnknownEvent).Warnf("unhandled event %T", ev)
	}
}

func (s *Session) onLiveMessage(msg domain.ChatMessage) {
	if _, ok := s.timeline.OnLiveMessage(msg); !ok {
		s.metrics.DuplicateSuppressed(domain.OriginLive)
		s.log.WithField("timetoken", msg.Timetoken).Debug("duplicate live message")
		return
	}

	s.liveSeq++
	s.metrics.MessageMerged(domain.OriginLive)
	s.observe(msg.Sender)
}

func (s *Session) onPresence(epoch uint64, event domain.PresenceEvent) {
	out, err := s.presence.Apply(event)
	if err != nil {
		s.log.WithError(err).Warn("presence event dropped")
		return
	}
	if out.Heartbeat && !out.Refresh {
		s.log.Debug("presence heartbeat")
	}

	for _, id := range out.Added {
		s.observe(id)
	}
	if out.Changed() {
		s.metrics.RosterSize(s.presence.Len())
	}
	if out.Refresh {
		s.refreshSnapshot(epoch)
	}
}

// observe returns the display value for id and issues a lookup if needed.
func (s *Session) observe(id domain.MemberID) string {
	label, ticket, issue := s.directory.Resolve(id)
	if issue {
		s.lookup(ticket)
	}

	return label
}

// lookup fetches the name for ticket. Its result is checked against the
// ticket rather than the epoch: deactivate cancels outstanding tickets, and a
// lookup issued while inactive stays valid across the next activate.
func (s *Session) lookup(ticket LookupTicket) {
	epoch := s.epoch
	ctx := s.ctx
	go func() {
		name, found, err := s.svc.GetIdentityMetadata(ctx, ticket.ID)
		s.post(func() {
			outcome := s.directory.CompleteLookup(ticket, name, found, err)
			if outcome == LookupCancelled {
				s.metrics.StaleDropped("lookup")
				s.log.WithFields(logrus.Fields{"member": ticket.ID, "epoch": epoch, "current_epoch": s.epoch}).Debug("dropped stale lookup")
				return
			}

			s.metrics.LookupFinished(string(outcome))
			entry := s.log.WithFields(logrus.Fields{"member": ticket.ID, "outcome": outcome})
			if err != nil {
				entry = entry.WithError(err)
			}
			entry.Debug("identity lookup finished")
		})
	}()
}

func (s *Session) refreshSnapshot(epoch uint64) {
	ctx := s.ctx
	go func() {
		ids, err := s.svc.QueryPresence(ctx, s.cfg.Channel)
		s.post(func() {
			if !s.current(epoch, "snapshot") {
				return
			}
			if err != nil {
				s.log.WithError(err).Warn("presence snapshot failed")
				return
			}

			for _, id := range s.presence.ApplySnapshot(ids) {
				s.observe(id)
			}
			s.metrics.RosterSize(s.presence.Len())
		})
	}()
}

func (s *Session) loadBackfill(epoch uint64) {
	ctx := s.ctx
	limit := s.cfg.HistoryLimit
	go func() {
		msgs, err := s.svc.FetchRecent(ctx, s.cfg.Channel, limit)
		s.post(func() {
			if !s.current(epoch, "backfill") {
				return
			}
			if err != nil {
				s.log.WithError(err).Warn("history backfill failed")
				return
			}

			added, duplicates := s.timeline.LoadBackfill(msgs)
			for i := 0; i < added; i++ {
				s.metrics.MessageMerged(domain.OriginHistory)
			}
			for i := 0; i < duplicates; i++ {
				s.metrics.DuplicateSuppressed(domain.OriginHistory)
			}
			for _, msg := range msgs {
				s.observe(msg.Sender)
			}
			s.log.WithFields(logrus.Fields{"added": added, "duplicates": duplicates}).Debug("history backfill merged")
		})
	}()
}

func (s *Session) publishView() {
	view := s.buildView()
	s.view.Store(&view)

	select {
	case s.changes <- struct{}{}:
	default:
	}
}

func (s *Session) buildView() View {
	heading := HeadingReady
	if s.cfg.MissingKeys {
		heading = HeadingMissingKeys
	}

	ids := s.presence.IDs()
	members := make([]MemberView, 0, len(ids))
	for _, id := range ids {
		members = append(members, MemberView{
			Member: s.member(id),
			Self:   id == s.cfg.Self,
		})
	}

	msgs := s.timeline.Messages()
	messages := make([]MessageView, 0, len(msgs))
	for _, msg := range msgs {
		messages = append(messages, MessageView{
			ChatMessage: msg,
			SenderName:  s.directory.Label(msg.Sender),
			Mine:        msg.Sender == s.cfg.Self,
		})
	}

	return View{
		Channel:   s.cfg.Channel,
		Heading:   heading,
		Epoch:     s.epoch,
		Active:    s.presence.Active(),
		Connected: s.sub != nil,
		Self:      s.member(s.cfg.Self),
		Members:   members,
		Messages:  messages,
		LiveSeq:   s.liveSeq,
		Notice:    s.notice,
	}
}

func (s *Session) member(id domain.MemberID) domain.Member {
	name, _ := s.directory.Name(id)
	return domain.Member{ID: id, DisplayName: name}
}
