package storage

import "context"

const presenceKey = "presence:online"

// MarkOnline adds userID to the Redis presence set.
func (s *Service) MarkOnline(ctx context.Context, userID string) error {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.SAdd(ctx, presenceKey, userID).Err()
}

// MarkOffline removes userID from the Redis presence set.
func (s *Service) MarkOffline(ctx context.Context, userID string) error {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.SRem(ctx, presenceKey, userID).Err()
}

// OnlineUsers lists the users currently in the presence set.
func (s *Service) OnlineUsers(ctx context.Context) ([]string, error) {
	if s.Redis == nil {
		return nil, nil
	}
	return s.Redis.SMembers(ctx, presenceKey).Result()
}

// ResetPresence clears the presence set. A single backend instance owns it,
// so entries left behind by a previous run are stale.
func (s *Service) ResetPresence(ctx context.Context) error {
	if s.Redis == nil {
		return nil
	}
	return s.Redis.Del(ctx, presenceKey).Err()
}
