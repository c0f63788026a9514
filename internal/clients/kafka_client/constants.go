package kafka_client

const (
	PRODUCE_RETRIES      = 3
	FLUSH_TIMEOUT_MS     = 5000
	RECORDER_NAME        = "kafka"
	DEFAULT_CLIENT_ID    = "emotiflow-server"
	HEADER_EVENT_VERSION = "event-version"
	EVENT_VERSION        = "1"
)
