package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/adityaraj-spec/fullStack/internal/database"
	"github.com/adityaraj-spec/fullStack/internal/models"
)

const (
	// profileCacheKeyPrefix is the Redis key prefix for cached sanitized profiles
	profileCacheKeyPrefix = "profile:"
	// ProfileCacheTTL keeps current-user reads off Mongo between profile edits
	ProfileCacheTTL = 15 * time.Minute
)

// ProfileCache caches sanitized profiles in Redis, keyed by user id. Only the
// externally visible representation is ever cached; the credential hash and
// refresh token never enter Redis. All operations fail open — a cache error
// just means a Mongo read.
type ProfileCache struct{}

// Get retrieves a cached profile. The bool reports a hit.
func (c *ProfileCache) Get(ctx context.Context, userID string) (*models.PublicUser, bool) {
	val, err := database.RedisClient.Get(ctx, profileCacheKeyPrefix+userID).Result()
	if err != nil {
		return nil, false // miss or Redis unavailable
	}

	var profile models.PublicUser
	if err := json.Unmarshal([]byte(val), &profile); err != nil {
		return nil, false
	}
	return &profile, true
}

// Set stores a sanitized profile.
func (c *ProfileCache) Set(ctx context.Context, profile models.PublicUser) {
	data, err := json.Marshal(profile)
	if err != nil {
		return
	}
	database.RedisClient.Set(ctx, profileCacheKeyPrefix+profile.ID, data, ProfileCacheTTL)
}

// Invalidate drops the cached profile after any profile, avatar, or cover
// image update.
func (c *ProfileCache) Invalidate(ctx context.Context, userID string) {
	database.RedisClient.Del(ctx, profileCacheKeyPrefix+userID)
}
