// Package history buffers analysis records and flushes them to a batch
// store on size or on a timer.
package history

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/spacesedan/emotiflow/internal/metrics"
	"github.com/spacesedan/emotiflow/internal/models"
	"github.com/spacesedan/emotiflow/internal/utils"
)

const (
	RECORDER_NAME       = "history"
	FINAL_FLUSH_TIMEOUT = 10 * time.Second
)

type Store interface {
	BatchInsertAnalyses(ctx context.Context, records []models.AnalysisRecord) error
}

type Writer struct {
	store    Store
	buffer   *utils.BatchBuffer[models.AnalysisRecord]
	interval time.Duration
	flushNow chan struct{}
}

func NewWriter(store Store, batchSize int, interval time.Duration) *Writer {
	return &Writer{
		store:    store,
		buffer:   utils.NewBatchBuffer[models.AnalysisRecord](batchSize),
		interval: interval,
		flushNow: make(chan struct{}, 1),
	}
}

func (w *Writer) Name() string { return RECORDER_NAME }

// Record buffers the record. A full buffer wakes the Run loop.
func (w *Writer) Record(_ context.Context, record models.AnalysisRecord) error {
	if w.buffer.Add(record) {
		select {
		case w.flushNow <- struct{}{}:
		default:
		}
	}
	return nil
}

// Run flushes on every tick and whenever the buffer fills, until ctx is
// done. Whatever is still buffered is flushed before Run returns.
func (w *Writer) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	slog.Info("[HistoryWriter] Started",
		slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			slog.Info("[HistoryWriter] Stopping, flushing remaining records...")
			flushCtx, cancel := context.WithTimeout(context.Background(), FINAL_FLUSH_TIMEOUT)
			w.Flush(flushCtx)
			cancel()
			return
		case <-ticker.C:
			w.Flush(ctx)
		case <-w.flushNow:
			w.Flush(ctx)
		}
	}
}

// Start runs the writer in the background. The returned stop func cancels
// the loop and blocks until the final flush has completed.
func (w *Writer) Start() (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.Run(ctx)
	}()

	return func() {
		cancel()
		wg.Wait()
	}
}

// Flush writes the buffered records. Failed batches are logged and dropped.
func (w *Writer) Flush(ctx context.Context) {
	batch := w.buffer.GetAndClear()
	if len(batch) == 0 {
		return
	}

	if err := w.store.BatchInsertAnalyses(ctx, batch); err != nil {
		metrics.HistoryFlushesTotal.WithLabelValues("error").Inc()
		slog.Error("[HistoryWriter] Failed to write analysis history",
			slog.Int("batch_size", len(batch)),
			slog.String("error", err.Error()))
		return
	}

	metrics.HistoryFlushesTotal.WithLabelValues("ok").Inc()
	slog.Debug("[HistoryWriter] Flushed analysis history",
		slog.Int("batch_size", len(batch)))
}
