package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	t.Run("bare address", func(t *testing.T) {
		c := NewRedisClient(mr.Addr())
		require.NotNil(t, c)
		defer c.Close()
		assert.NoError(t, c.Ping(context.Background()).Err())
	})

	t.Run("url", func(t *testing.T) {
		c := NewRedisClient("redis://" + mr.Addr() + "/0")
		require.NotNil(t, c)
		c.Close()
	})

	t.Run("empty disables cache", func(t *testing.T) {
		assert.Nil(t, NewRedisClient(""))
	})

	t.Run("bad url disables cache", func(t *testing.T) {
		assert.Nil(t, NewRedisClient("redis://%zz"))
	})
}
