package clients

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spacesedan/emotiflow/config"
	"github.com/spacesedan/emotiflow/internal/analysis"
	"github.com/spacesedan/emotiflow/internal/sentiment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey([]string{"i", "am", "happy"})
	b := CacheKey([]string{"i", "am", "happy"})
	c := CacheKey([]string{"i", "am", "sad"})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, VALKEY_SCORE_PREFIX))
	assert.Len(t, strings.TrimPrefix(a, VALKEY_SCORE_PREFIX), 64)
}

func TestIsConnectionError(t *testing.T) {
	assert.False(t, isConnectionError(nil))
	assert.True(t, isConnectionError(errors.New("dial tcp: connection refused")))
	assert.True(t, isConnectionError(errors.New("unexpected EOF")))
	assert.True(t, isConnectionError(errors.New("read: i/o timeout")))
	assert.False(t, isConnectionError(errors.New("WRONGTYPE Operation")))
}

func TestValkeyOptions(t *testing.T) {
	opts := valkeyOptions(config.ValkeyConfig{Address: "cache:6379", Password: "pw", CacheTTL: time.Hour})
	assert.Equal(t, []string{"cache:6379"}, opts.InitAddress)
	assert.Equal(t, "pw", opts.Password)
	assert.Nil(t, opts.TLSConfig)

	opts = valkeyOptions(config.ValkeyConfig{Address: "cache:6379", TLS: true})
	assert.NotNil(t, opts.TLSConfig)
}

func TestValkeyClient_StoreThenLookup(t *testing.T) {
	srv := newFakeValkey(t)
	vc := newTestValkeyClient(t, srv.addr())
	tokens := []string{"i", "am", "so", "happy"}

	require.NoError(t, vc.Store(context.Background(), tokens, 0.6249))

	set := srv.lastSet()
	require.NotNil(t, set)
	assert.Equal(t, CacheKey(tokens), set[1])
	assert.Equal(t, "0.6249", set[2])
	assert.Equal(t, []string{"EX", "60"}, set[3:5])

	score, ok := vc.Lookup(context.Background(), tokens)
	require.True(t, ok)
	assert.Equal(t, 0.6249, score)
}

func TestValkeyClient_LookupMiss(t *testing.T) {
	srv := newFakeValkey(t)
	vc := newTestValkeyClient(t, srv.addr())

	score, ok := vc.Lookup(context.Background(), []string{"never", "stored"})
	assert.False(t, ok)
	assert.Zero(t, score)
}

func TestValkeyClient_LookupDiscardsMalformedScore(t *testing.T) {
	srv := newFakeValkey(t)
	vc := newTestValkeyClient(t, srv.addr())
	tokens := []string{"the", "table", "is", "brown"}
	srv.set(CacheKey(tokens), "not-a-score")

	_, ok := vc.Lookup(context.Background(), tokens)
	assert.False(t, ok)
}

func TestValkeyClient_SilentServerHonoursDeadline(t *testing.T) {
	srv := newFakeValkey(t)
	vc := newTestValkeyClient(t, srv.addr())
	tokens := []string{"hello"}
	srv.silent.Store(true)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, ok := vc.Lookup(ctx, tokens)
	assert.False(t, ok)
	assert.Error(t, vc.Store(ctx, tokens, 0.5))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestValkeyClient_RecreateSwapsClient(t *testing.T) {
	srv := newFakeValkey(t)
	vc := newTestValkeyClient(t, srv.addr())
	previous := vc.current()

	vc.recreateClient(context.Background())

	assert.True(t, previous != vc.current(), "client should be replaced")
	require.NoError(t, vc.Store(context.Background(), []string{"ok"}, 0.2))
	score, ok := vc.Lookup(context.Background(), []string{"ok"})
	require.True(t, ok)
	assert.Equal(t, 0.2, score)
}

func TestValkeyClient_RecreateKeepsClientWhenUnreachable(t *testing.T) {
	srv := newFakeValkey(t)
	vc := newTestValkeyClient(t, srv.addr())
	previous := vc.current()
	srv.close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	vc.recreateClient(ctx)

	assert.True(t, previous == vc.current(), "failed recreate must keep the old client")
}

func TestValkeyClient_CachedAnalysisMatchesFresh(t *testing.T) {
	srv := newFakeValkey(t)
	vc := newTestValkeyClient(t, srv.addr())
	svc := analysis.NewService(sentiment.NewVaderScorer(), analysis.Options{
		Cache:        vc,
		CacheTimeout: time.Second,
	})

	fresh, err := svc.Analyze(context.Background(), "I am so happy and delighted")
	require.NoError(t, err)
	_, stored := srv.get(CacheKey([]string{"i", "am", "so", "happy", "and", "delighted"}))
	require.True(t, stored)

	cached, err := svc.Analyze(context.Background(), "I am so happy and delighted")
	require.NoError(t, err)
	assert.Equal(t, fresh, cached)
}
