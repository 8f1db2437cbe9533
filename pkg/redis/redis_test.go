package redis

import (
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/vitaboost/storefront/config"
)

func TestStore_KeysArePrefixed(t *testing.T) {
	c := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { c.Close() })

	s := NewStore(c, "vitaboost:")

	assert.Equal(t, "vitaboost:cart:abc", s.key("cart:abc"))
	assert.Equal(t, "cart:abc", NewStore(c, "").key("cart:abc"))
}

func TestInit_UnreachableServer(t *testing.T) {
	err := Init(&config.RedisConfig{Host: "127.0.0.1", Port: "1", KeyPrefix: "test:"})

	assert.Error(t, err)
	assert.Nil(t, GetClient())
	assert.NoError(t, Close())
}
