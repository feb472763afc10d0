// Package cache keeps hot song counters in Redis so the public stats
// endpoint does not hit MySQL on every poll, and fans counter updates out
// to the live hub through pub/sub.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tunehub/db"
	"tunehub/model"

	"github.com/redis/go-redis/v9"
)

const (
	statsTTL = 30 * time.Second

	// StatsChannel carries StatsUpdate messages for the live feed.
	StatsChannel = "tunehub:song_stats"
)

// StatsUpdate is one counter change broadcast over pub/sub.
type StatsUpdate struct {
	SongID    int64 `json:"songId"`
	Plays     int64 `json:"plays"`
	Downloads int64 `json:"downloads"`
}

func statsKey(songID int64) string {
	return fmt.Sprintf("song:stats:%d", songID)
}

// GetSongStats reads cached counters. The second return value is false on a
// cache miss.
func GetSongStats(ctx context.Context, songID int64) (*model.SongStats, bool, error) {
	if db.RedisClient == nil {
		return nil, false, nil
	}

	data, err := db.RedisClient.Get(ctx, statsKey(songID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cached stats for song %d: %w", songID, err)
	}

	stats := &model.SongStats{}
	if err := json.Unmarshal(data, stats); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached stats for song %d: %w", songID, err)
	}
	return stats, true, nil
}

// SetSongStats caches the current counters for a song.
func SetSongStats(ctx context.Context, songID int64, stats *model.SongStats) error {
	if db.RedisClient == nil {
		return nil
	}

	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to encode stats for song %d: %w", songID, err)
	}
	if err := db.RedisClient.Set(ctx, statsKey(songID), data, statsTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache stats for song %d: %w", songID, err)
	}
	return nil
}

// PublishStatsUpdate refreshes the cache and notifies live subscribers.
func PublishStatsUpdate(ctx context.Context, update StatsUpdate) error {
	if db.RedisClient == nil {
		return nil
	}

	if err := SetSongStats(ctx, update.SongID, &model.SongStats{
		Plays:     update.Plays,
		Downloads: update.Downloads,
	}); err != nil {
		return err
	}

	data, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to encode stats update: %w", err)
	}
	if err := db.RedisClient.Publish(ctx, StatsChannel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish stats update: %w", err)
	}
	return nil
}

// SubscribeStats subscribes to the stats channel. The caller owns the
// returned subscription and must close it.
func SubscribeStats(ctx context.Context) *redis.PubSub {
	if db.RedisClient == nil {
		return nil
	}
	return db.RedisClient.Subscribe(ctx, StatsChannel)
}
