package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClient(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		mr := miniredis.RunT(t)

		client, err := NewRedisClient(context.Background(), Config{Addr: mr.Addr()})
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })

		require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
		got, err := mr.Get("k")
		require.NoError(t, err)
		assert.Equal(t, "v", got)
	})

	t.Run("wrong password", func(t *testing.T) {
		mr := miniredis.RunT(t)
		mr.RequireAuth("secret")

		client, err := NewRedisClient(context.Background(), Config{Addr: mr.Addr(), Password: "nope"})
		assert.Error(t, err)
		assert.Nil(t, client)
	})

	t.Run("unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := NewRedisClient(context.Background(), Config{Addr: addr})
		assert.Error(t, err)
	})
}
