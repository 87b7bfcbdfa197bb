package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheService_SetGetExpire(t *testing.T) {
	cs := NewCacheService()
	now := time.Now()
	cs.now = func() time.Time { return now }

	cs.Set("feed:::20:0", 42, 30*time.Second)
	v, ok := cs.Get("feed:::20:0")
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	now = now.Add(31 * time.Second)
	_, ok = cs.Get("feed:::20:0")
	assert.False(t, ok)

	cs.purgeExpired()
	assert.Equal(t, 0, cs.size())
}

func TestCacheService_ZeroTTLIsNotStored(t *testing.T) {
	cs := NewCacheService()
	cs.Set("k", 1, 0)
	_, ok := cs.Get("k")
	assert.False(t, ok)
}

func TestCacheService_InvalidateFeed(t *testing.T) {
	cs := NewCacheService()
	cs.Set("feed:lost::20:0", 1, time.Minute)
	cs.Set("feed:::20:20", 2, time.Minute)
	cs.Set("user:1", 3, time.Minute)

	cs.InvalidateFeed()

	_, ok := cs.Get("feed:lost::20:0")
	assert.False(t, ok)
	_, ok = cs.Get("user:1")
	assert.True(t, ok)
}

func TestCacheService_RunStopsOnCancel(t *testing.T) {
	cs := NewCacheService()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cs.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run не завершился после отмены контекста")
	}
}
