package ledger

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const leaderboardKey = "helpdesk:leaderboard"

// Cache mirrors the leaderboard into a Redis sorted set so the read surface
// does not need a document load per request. All operations are best-effort:
// a cache failure is logged and the caller falls back to the store.
type Cache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewCache creates a leaderboard cache. A nil client disables it.
func NewCache(client *redis.Client, logger *zap.Logger) *Cache {
	return &Cache{client: client, logger: logger}
}

// Refresh replaces the cached leaderboard with the given entries.
func (c *Cache) Refresh(ctx context.Context, entries []Entry) {
	if c == nil || c.client == nil {
		return
	}
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, leaderboardKey)
	if len(entries) > 0 {
		members := make([]redis.Z, 0, len(entries))
		for _, entry := range entries {
			members = append(members, redis.Z{Score: float64(entry.Points), Member: entry.HelperID})
		}
		pipe.ZAdd(ctx, leaderboardKey, members...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("leaderboard cache refresh failed", zap.Error(err))
	}
}

// Top reads the first n cached entries, highest score first. ok is false
// when the cache is unavailable or empty.
func (c *Cache) Top(ctx context.Context, n int) ([]Entry, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	members, err := c.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(n-1)).Result()
	if err != nil {
		c.logger.Warn("leaderboard cache read failed", zap.Error(err))
		return nil, false
	}
	if len(members) == 0 {
		return nil, false
	}
	entries := make([]Entry, 0, len(members))
	for _, member := range members {
		helperID, _ := member.Member.(string)
		entries = append(entries, Entry{HelperID: helperID, Points: int(member.Score)})
	}
	return entries, true
}
