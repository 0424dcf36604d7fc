package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"studykwork/internal/model"
)

const feedKey = "listing:feed"

// ListingCache keeps hydrated listings in redis: one key per listing plus the unfiltered feed.
type ListingCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewListingCache(client *redisv9.Client, ttl time.Duration) *ListingCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ListingCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *ListingCache) GetListing(ctx context.Context, id uint) (*model.ListingResponse, bool, error) {
	var listing model.ListingResponse
	ok, err := c.get(ctx, c.listingKey(id), &listing)
	if err != nil || !ok {
		return nil, false, err
	}
	return &listing, true, nil
}

func (c *ListingCache) SetListing(ctx context.Context, listing model.ListingResponse) error {
	return c.set(ctx, c.listingKey(listing.ID), listing)
}

func (c *ListingCache) GetFeed(ctx context.Context) ([]model.ListingResponse, bool, error) {
	var feed []model.ListingResponse
	ok, err := c.get(ctx, feedKey, &feed)
	if err != nil || !ok {
		return nil, false, err
	}
	if feed == nil {
		feed = []model.ListingResponse{}
	}
	return feed, true, nil
}

func (c *ListingCache) SetFeed(ctx context.Context, feed []model.ListingResponse) error {
	return c.set(ctx, feedKey, feed)
}

// Invalidate drops the feed and the given listing keys.
func (c *ListingCache) Invalidate(ctx context.Context, ids ...uint) error {
	keys := []string{feedKey}
	for _, id := range ids {
		keys = append(keys, c.listingKey(id))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete listing keys failed: %w", err)
	}
	return nil
}

func (c *ListingCache) get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redisv9.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s failed: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("unmarshal cached %s failed: %w", key, err)
	}
	return true, nil
}

func (c *ListingCache) set(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s failed: %w", key, err)
	}
	return nil
}

func (c *ListingCache) listingKey(id uint) string {
	return fmt.Sprintf("listing:detail:%d", id)
}
