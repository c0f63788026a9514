package kafka_client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/spacesedan/emotiflow/config"
	"github.com/spacesedan/emotiflow/internal/models"
)

// Producer publishes one event per analysis to a Kafka topic.
type Producer struct {
	producer *kafka.Producer
	topic    string
	wg       sync.WaitGroup
}

func NewProducer(cfg config.EventsConfig) (*Producer, error) {
	slog.Info("[KafkaClient] Initializing Kafka Producer...",
		slog.String("broker", cfg.Broker),
		slog.String("topic", cfg.Topic))

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":   cfg.Broker,
		"client.id":           DEFAULT_CLIENT_ID,
		"security.protocol":   "PLAINTEXT",
		"api.version.request": "true",
		"enable.idempotence":  true,
		"acks":                "all",
	})
	if err != nil {
		return nil, fmt.Errorf("[KafkaClient] Failed to create producer: %w", err)
	}

	producer := &Producer{producer: p, topic: cfg.Topic}
	producer.wg.Add(1)
	go producer.watchDeliveries()

	slog.Info("[KafkaClient] Kafka Producer initialized successfully")
	return producer, nil
}

func (p *Producer) Name() string { return RECORDER_NAME }

// Record enqueues the analysis event. Delivery is reported asynchronously.
func (p *Producer) Record(ctx context.Context, record models.AnalysisRecord) error {
	msg, err := EncodeRecord(p.topic, record)
	if err != nil {
		return err
	}

	for i := 0; i < PRODUCE_RETRIES; i++ {
		if err = ctx.Err(); err != nil {
			return err
		}

		err = p.producer.Produce(msg, nil)
		if err == nil {
			return nil
		}

		slog.Warn("[KafkaClient] Failed to produce message, retrying...",
			slog.Int("attempt", i+1),
			slog.String("error", err.Error()))

		// A full local queue drains as delivery reports come back.
		p.producer.Flush(100)
	}

	return fmt.Errorf("[KafkaClient] failed to produce analysis event %s: %w", record.ID, err)
}

func (p *Producer) watchDeliveries() {
	defer p.wg.Done()

	for ev := range p.producer.Events() {
		switch e := ev.(type) {
		case *kafka.Message:
			if e.TopicPartition.Error != nil {
				slog.Error("[KafkaClient] Delivery failed",
					slog.String("key", string(e.Key)),
					slog.String("error", e.TopicPartition.Error.Error()))
			}
		case kafka.Error:
			slog.Warn("[KafkaClient] Producer error",
				slog.String("error", e.Error()))
		}
	}
}

func (p *Producer) Close() {
	slog.Info("[KafkaClient] Flushing Kafka producer before shutdown...")
	if remaining := p.producer.Flush(FLUSH_TIMEOUT_MS); remaining > 0 {
		slog.Warn("[KafkaClient] Not all messages were delivered before shutdown",
			slog.Int("remaining", remaining))
	}
	p.producer.Close()
	p.wg.Wait()
	slog.Info("[KafkaClient] Kafka producer shut down")
}

// EncodeRecord builds the Kafka message for record, keyed by record ID.
func EncodeRecord(topic string, record models.AnalysisRecord) (*kafka.Message, error) {
	value, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("[KafkaClient] failed to marshal analysis event: %w", err)
	}

	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(record.ID),
		Value:          value,
		Headers: []kafka.Header{
			{Key: HEADER_EVENT_VERSION, Value: []byte(EVENT_VERSION)},
		},
	}, nil
}
