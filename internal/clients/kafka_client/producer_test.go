package kafka_client

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/spacesedan/emotiflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRecord(t *testing.T) {
	record := models.AnalysisRecord{
		ID:             "3f6c",
		Emotion:        "anger",
		Score:          -0.84,
		FormattedScore: "-0.84",
		TokenCount:     6,
		TextLength:     32,
		CreatedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	msg, err := EncodeRecord("emotion-analyses", record)
	require.NoError(t, err)

	require.NotNil(t, msg.TopicPartition.Topic)
	assert.Equal(t, "emotion-analyses", *msg.TopicPartition.Topic)
	assert.Equal(t, kafka.PartitionAny, msg.TopicPartition.Partition)
	assert.Equal(t, []byte("3f6c"), msg.Key)
	assert.Equal(t, []kafka.Header{{Key: HEADER_EVENT_VERSION, Value: []byte(EVENT_VERSION)}}, msg.Headers)

	var decoded models.AnalysisRecord
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, record, decoded)
}
