package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	redisv9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studykwork/internal/model"
)

func newTestCache(t *testing.T) (*ListingCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redisv9.NewClient(&redisv9.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewListingCache(client, time.Minute), srv
}

func TestListingCache_ListingRoundTrip(t *testing.T) {
	c, srv := newTestCache(t)
	ctx := context.Background()

	_, ok, err := c.GetListing(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetListing(ctx, model.ListingResponse{ID: 1, Title: "Tutor", Images: []string{"/uploads/a.jpg"}}))

	got, ok, err := c.GetListing(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Tutor", got.Title)
	assert.Equal(t, []string{"/uploads/a.jpg"}, got.Images)

	assert.Equal(t, time.Minute, srv.TTL("listing:detail:1"))
}

func TestListingCache_EmptyFeedIsCached(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetFeed(ctx, []model.ListingResponse{}))

	feed, ok, err := c.GetFeed(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotNil(t, feed)
	assert.Empty(t, feed)
}

func TestListingCache_Invalidate(t *testing.T) {
	c, srv := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetFeed(ctx, []model.ListingResponse{{ID: 1}, {ID: 2}}))
	require.NoError(t, c.SetListing(ctx, model.ListingResponse{ID: 1}))
	require.NoError(t, c.SetListing(ctx, model.ListingResponse{ID: 2}))

	require.NoError(t, c.Invalidate(ctx, 1))

	assert.False(t, srv.Exists("listing:feed"))
	assert.False(t, srv.Exists("listing:detail:1"))
	assert.True(t, srv.Exists("listing:detail:2"))
}

func TestListingCache_CorruptEntry(t *testing.T) {
	c, srv := newTestCache(t)
	require.NoError(t, srv.Set("listing:detail:9", "{not json"))

	_, ok, err := c.GetListing(context.Background(), 9)
	assert.Error(t, err)
	assert.False(t, ok)
}
