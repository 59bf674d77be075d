package rediscache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestConnect_BadURL(t *testing.T) {
	_, err := Connect(context.Background(), "http://localhost:6379")
	require.Error(t, err)
}

func TestGet_ServerDownIsError(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	c := New(rdb, time.Minute)

	b, ok, err := c.Get(context.Background(), "abc")
	require.Error(t, err)
	require.False(t, ok)
	require.Nil(t, b)
	require.Error(t, c.Set(context.Background(), "abc", []byte("png")))
}
