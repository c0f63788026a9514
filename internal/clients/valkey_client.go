package clients

import (
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spacesedan/emotiflow/config"
	"github.com/valkey-io/valkey-go"
)

// ValkeyClient memoises scores per token stream. Scoring is deterministic,
// so a cached score always equals a fresh one.
type ValkeyClient struct {
	client valkey.Client
	opts   valkey.ClientOption
	ttl    time.Duration
	mu     sync.RWMutex

	recreating atomic.Bool
}

func valkeyOptions(cfg config.ValkeyConfig) valkey.ClientOption {
	opts := valkey.ClientOption{
		InitAddress:      []string{cfg.Address},
		Password:         cfg.Password,
		ConnWriteTimeout: VALKEY_WRITE_TIMEOUT,
		SelectDB:         0,
	}

	if cfg.TLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return opts
}

func connectValkey(ctx context.Context, opts valkey.ClientOption) (valkey.Client, error) {
	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("[ValkeyClient] failed to create Valkey client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, VALKEY_PING_TIMEOUT)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("[ValkeyClient] failed to ping Valkey: %w", err)
	}

	return client, nil
}

func NewValkeyClient(cfg config.ValkeyConfig) (*ValkeyClient, error) {
	opts := valkeyOptions(cfg)
	client, err := connectValkey(context.Background(), opts)
	if err != nil {
		return nil, err
	}

	slog.Info("[ValkeyClient] Successfully connected to valkey",
		slog.String("address", cfg.Address),
		slog.Duration("ttl", cfg.CacheTTL))

	return &ValkeyClient{client: client, opts: opts, ttl: cfg.CacheTTL}, nil
}

func (vc *ValkeyClient) current() valkey.Client {
	vc.mu.RLock()
	defer vc.mu.RUnlock()
	return vc.client
}

// recreateClient dials a replacement outside the lock and only holds it to
// swap clients. Concurrent callers skip while a recreate is in progress.
func (vc *ValkeyClient) recreateClient(ctx context.Context) {
	if !vc.recreating.CompareAndSwap(false, true) {
		return
	}
	defer vc.recreating.Store(false)

	slog.Warn("[ValkeyClient] Attempting to recreate Valkey client...")
	client, err := connectValkey(ctx, vc.opts)
	if err != nil {
		slog.Error("[ValkeyClient] Recreate failed, keeping previous client",
			slog.String("error", err.Error()))
		return
	}

	vc.mu.Lock()
	previous := vc.client
	vc.client = client
	vc.mu.Unlock()

	previous.Close()
	slog.Info("[ValkeyClient] Successfully reconnected to valkey")
}

func (vc *ValkeyClient) Close() {
	vc.current().Close()
}

func (vc *ValkeyClient) Ping(ctx context.Context) error {
	client := vc.current()
	return client.Do(ctx, client.B().Ping().Build()).Error()
}

// Lookup returns the cached score for tokens. Any error is treated as a miss.
func (vc *ValkeyClient) Lookup(ctx context.Context, tokens []string) (float64, bool) {
	key := CacheKey(tokens)
	res := vc.DoWithRetry(ctx, func(c valkey.Client) valkey.Completed {
		return c.B().Get().Key(key).Build()
	})

	raw, err := res.ToString()
	if err != nil {
		if !valkey.IsValkeyNil(err) {
			slog.Warn("[ValkeyClient] Lookup failed",
				slog.String("key", key),
				slog.String("error", err.Error()))
		}
		return 0, false
	}

	score, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		slog.Warn("[ValkeyClient] Discarding malformed cached score",
			slog.String("key", key),
			slog.String("value", raw))
		return 0, false
	}
	return score, true
}

func (vc *ValkeyClient) Store(ctx context.Context, tokens []string, score float64) error {
	key := CacheKey(tokens)
	value := strconv.FormatFloat(score, 'g', -1, 64)
	ttl := int64(vc.ttl / time.Second)

	res := vc.DoWithRetry(ctx, func(c valkey.Client) valkey.Completed {
		return c.B().Set().Key(key).Value(value).ExSeconds(ttl).Build()
	})
	if err := res.Error(); err != nil {
		return fmt.Errorf("[ValkeyClient] failed to store score: %w", err)
	}
	return nil
}

// DoWithRetry builds the command against the live client on every attempt
// so a recreated client is picked up. It gives up as soon as ctx is done;
// callers on the request path pass a short deadline.
func (vc *ValkeyClient) DoWithRetry(ctx context.Context, build func(valkey.Client) valkey.Completed) valkey.ValkeyResult {
	var result valkey.ValkeyResult
	for i := 0; i < VALKEY_RETRIES; i++ {
		client := vc.current()
		result = client.Do(ctx, build(client))
		err := result.Error()
		if err == nil || valkey.IsValkeyNil(err) {
			break
		}

		slog.Warn("[ValkeyClient] Do failed",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))

		if ctx.Err() != nil {
			return result
		}
		if isConnectionError(err) {
			// The replacement is dialled in the background; this call keeps
			// retrying on the current client until it is swapped.
			go vc.recreateClient(context.Background())
		}

		select {
		case <-ctx.Done():
			return result
		case <-time.After(VALKEY_RETRY_DELAY):
		}
	}

	return result
}

// CacheKey derives the cache key from the token stream.
func CacheKey(tokens []string) string {
	sum := sha256.Sum256([]byte(strings.Join(tokens, " ")))
	return VALKEY_SCORE_PREFIX + hex.EncodeToString(sum[:])
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "i/o timeout")
}
