package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AvatarEntry stores an avatar's metadata and bytes so hot avatar
// requests skip the object store entirely. Avatars are capped at 5MB, so
// whole-value caching is acceptable.
type AvatarEntry struct {
	ContentType string    `json:"content_type"`
	Filename    string    `json:"filename"`
	Data        []byte    `json:"data"`
	CachedAt    time.Time `json:"cached_at"`
}

// AvatarCache provides Redis-based caching for avatar blob metadata.
type AvatarCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAvatarCache(client *redis.Client, ttl time.Duration) *AvatarCache {
	return &AvatarCache{client: client, ttl: ttl}
}

func (c *AvatarCache) key(blobKey string) string {
	return fmt.Sprintf("avatar:%s:meta", blobKey)
}

// Get returns the cached entry for a blob key, or an error when missing
// or failed.
func (c *AvatarCache) Get(ctx context.Context, blobKey string) (*AvatarEntry, error) {
	v, err := c.client.Get(ctx, c.key(blobKey)).Bytes()
	if err != nil {
		return nil, err
	}
	var e AvatarEntry
	if err := json.Unmarshal(v, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// Set stores the entry with TTL.
func (c *AvatarCache) Set(ctx context.Context, blobKey string, e *AvatarEntry) error {
	if e.CachedAt.IsZero() {
		e.CachedAt = time.Now().UTC()
	}
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(blobKey), b, c.ttl).Err()
}

// Invalidate removes the cached entry for the blob key.
func (c *AvatarCache) Invalidate(ctx context.Context, blobKey string) error {
	return c.client.Del(ctx, c.key(blobKey)).Err()
}
