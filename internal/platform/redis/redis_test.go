package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studykwork/internal/config"
)

func TestNew_Ping(t *testing.T) {
	srv := miniredis.RunT(t)

	client, err := New(context.Background(), config.RedisConfig{Addr: srv.Addr()})
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()).Err())
}

func TestNew_Unreachable(t *testing.T) {
	srv := miniredis.RunT(t)
	addr := srv.Addr()
	srv.Close()

	_, err := New(context.Background(), config.RedisConfig{Addr: addr})
	assert.Error(t, err)
}
