package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/spacesedan/emotiflow/internal/models"
	"github.com/spacesedan/emotiflow/internal/utils"
)

const (
	MAX_BATCH_WRITE_SIZE = 25
	MAX_WRITE_RETRIES    = 3
	RECORD_TTL           = 24 * time.Hour
)

// BatchWriteAPI is the slice of the DynamoDB client the store needs.
type BatchWriteAPI interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

type AnalysisStore struct {
	client  BatchWriteAPI
	table   string
	backoff time.Duration
}

func NewAnalysisStore(client BatchWriteAPI, table string) *AnalysisStore {
	return &AnalysisStore{
		client:  client,
		table:   table,
		backoff: 500 * time.Millisecond,
	}
}

// BatchInsertAnalyses writes records in chunks of 25, retrying unprocessed
// items with exponential backoff.
func (s *AnalysisStore) BatchInsertAnalyses(ctx context.Context, records []models.AnalysisRecord) error {
	for _, chunk := range utils.Chunk(records, MAX_BATCH_WRITE_SIZE) {
		if err := ctx.Err(); err != nil {
			slog.Warn("[DynamoDB] context canceled")
			return err
		}

		writeRequests := make([]types.WriteRequest, 0, len(chunk))
		for _, record := range chunk {
			item, err := RecordToDynamoDBItem(record)
			if err != nil {
				return err
			}
			writeRequests = append(writeRequests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}

		if err := s.writeChunk(ctx, writeRequests); err != nil {
			return err
		}
	}

	slog.Info("[DynamoDB] Successfully stored analysis records",
		slog.Int("count", len(records)))
	return nil
}

func (s *AnalysisStore) writeChunk(ctx context.Context, writeRequests []types.WriteRequest) error {
	out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{
			s.table: writeRequests,
		},
	})
	if err != nil {
		return fmt.Errorf("[DynamoDB] Failed to batch write analysis records: %w", err)
	}

	backoff := s.backoff
	for retryCount := 0; len(out.UnprocessedItems) > 0 && retryCount < MAX_WRITE_RETRIES; retryCount++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2

		slog.Warn("[DynamoDB] Retrying unprocessed analysis records...",
			slog.Int("attempt", retryCount+1),
			slog.Int("remaining", len(out.UnprocessedItems[s.table])))

		out, err = s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: out.UnprocessedItems,
		})
		if err != nil {
			return fmt.Errorf("[DynamoDB] Retry error: %w", err)
		}
	}

	if remaining := len(out.UnprocessedItems[s.table]); remaining > 0 {
		return fmt.Errorf("[DynamoDB] %d analysis records left unprocessed after %d retries", remaining, MAX_WRITE_RETRIES)
	}
	return nil
}

// RecordToDynamoDBItem marshals a record and adds the created_at and ttl
// epoch attributes.
func RecordToDynamoDBItem(record models.AnalysisRecord) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return nil, fmt.Errorf("[DynamoDB] failed to marshal analysis record %s: %w", record.ID, err)
	}

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	item["created_at"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", createdAt.Unix())}
	item["ttl"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", createdAt.Add(RECORD_TTL).Unix())}

	return item, nil
}
