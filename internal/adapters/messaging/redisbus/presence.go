package redisbus

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/bnema/groupchat-cli/internal/domain"
	redis "github.com/redis/go-redis/v9"
)

// join records self as present, starts its heartbeat key and announces it.
// Above announceMax the announcement is an interval asking for a refresh.
func (s *Service) join(ctx context.Context, channel string, self domain.MemberID) (int64, error) {
	key := presenceKey(s.ns, channel)
	if err := s.beat(ctx, channel, self); err != nil {
		return 0, err
	}

	occupancy, err := s.client.SCard(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("count presence: %w", err)
	}

	presence := presencePayload{Action: actionJoin, UUID: string(self), Occupancy: int(occupancy)}
	if occupancy > int64(s.announceMax) {
		presence = presencePayload{Action: actionInterval, Occupancy: int(occupancy), Refresh: true}
	}
	if err := s.publishPresence(ctx, channel, presence); err != nil {
		return 0, err
	}

	return occupancy, nil
}

// beat refreshes self's heartbeat key and presence entry.
func (s *Service) beat(ctx context.Context, channel string, self domain.MemberID) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, presenceKey(s.ns, channel), string(self))
		pipe.Set(ctx, heartbeatKey(s.ns, channel, string(self)), s.clock.Now().Unix(), s.presenceTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record presence: %w", err)
	}

	return nil
}

// leave removes self and announces it the same way join did.
func (s *Service) leave(ctx context.Context, channel string, self domain.MemberID) error {
	key := presenceKey(s.ns, channel)
	var card *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, key, string(self))
		pipe.Del(ctx, heartbeatKey(s.ns, channel, string(self)))
		card = pipe.SCard(ctx, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("remove presence: %w", err)
	}

	remaining := card.Val()
	presence := presencePayload{Action: actionLeave, UUID: string(self), Occupancy: int(remaining)}
	if remaining+1 > int64(s.announceMax) {
		presence = presencePayload{Action: actionInterval, Left: []string{string(self)}, Occupancy: int(remaining)}
	}

	return s.publishPresence(ctx, channel, presence)
}

// sweep removes members whose heartbeat expired and announces them as timed
// out. Concurrent sweepers race on SREM so each member is announced once.
func (s *Service) sweep(ctx context.Context, channel string) ([]domain.MemberID, error) {
	key := presenceKey(s.ns, channel)
	ids, err := s.client.SMembers(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("list presence: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	exists := make([]*redis.IntCmd, len(ids))
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			exists[i] = pipe.Exists(ctx, heartbeatKey(s.ns, channel, id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("check heartbeats: %w", err)
	}

	var expired []string
	for i, id := range ids {
		if exists[i].Val() > 0 {
			continue
		}

		removed, err := s.client.SRem(ctx, key, id).Result()
		if err != nil {
			return nil, fmt.Errorf("expire presence: %w", err)
		}
		if removed == 1 {
			expired = append(expired, id)
		}
	}
	if len(expired) == 0 {
		return nil, nil
	}
	sort.Strings(expired)

	remaining := len(ids) - len(expired)
	var announceErr error
	if len(ids) > s.announceMax {
		announceErr = s.publishPresence(ctx, channel, presencePayload{Action: actionInterval, Left: expired, Occupancy: remaining})
	} else {
		for _, id := range expired {
			announceErr = errors.Join(announceErr, s.publishPresence(ctx, channel, presencePayload{Action: actionTimeout, UUID: id, Occupancy: remaining}))
		}
	}

	return memberIDs(expired), announceErr
}
