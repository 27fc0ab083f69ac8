package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const viewTTL = time.Hour

// ViewDeduper remembers which viewers already counted a view on a post.
// Key format: view:<post_id>:<viewer>
type ViewDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewViewDeduper(client *redis.Client) *ViewDeduper {
	return &ViewDeduper{client: client, ttl: viewTTL}
}

// IsDuplicate reports whether viewer already viewed postID inside the window.
// The first view is recorded atomically with SETNX so concurrent requests from
// the same viewer count once.
func (d *ViewDeduper) IsDuplicate(ctx context.Context, postID, viewer string) (bool, error) {
	set, err := d.client.SetNX(ctx, d.key(postID, viewer), "1", d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("view dedup: %w", err)
	}
	return !set, nil
}

func (d *ViewDeduper) key(postID, viewer string) string {
	return fmt.Sprintf("view:%s:%s", postID, viewer)
}
