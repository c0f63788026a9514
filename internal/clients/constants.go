package clients

import "time"

const (
	VALKEY_RETRIES       = 3
	VALKEY_RETRY_DELAY   = 250 * time.Millisecond
	VALKEY_PING_TIMEOUT  = 3 * time.Second
	VALKEY_WRITE_TIMEOUT = 5 * time.Second
	VALKEY_SCORE_PREFIX  = "emotion:score:"
)
