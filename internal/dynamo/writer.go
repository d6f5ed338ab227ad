package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/huyaboo/saved-objects-ddb-ingestor/internal/logging"
	"github.com/huyaboo/saved-objects-ddb-ingestor/internal/retry"
	"github.com/huyaboo/saved-objects-ddb-ingestor/pkg/ingestor"
)

// BatchWriter buffers saved objects and writes them with BatchWriteItem.
// It is not safe for concurrent use.
type BatchWriter struct {
	api       API
	table     string
	batchSize int
	executor  *retry.Executor
	logger    ingestor.Logger

	buffer  []types.WriteRequest
	written int
}

// WriterOption configures a BatchWriter.
type WriterOption func(*BatchWriter)

// WithBatchSize sets how many items are sent per request.
// Values outside 1..MaxBatchSize are clamped.
func WithBatchSize(n int) WriterOption {
	return func(w *BatchWriter) {
		switch {
		case n < 1:
			w.batchSize = 1
		case n > ingestor.MaxBatchSize:
			w.batchSize = ingestor.MaxBatchSize
		default:
			w.batchSize = n
		}
	}
}

// WithExecutor sets the retry executor used to resubmit unprocessed items.
func WithExecutor(e *retry.Executor) WriterOption {
	return func(w *BatchWriter) {
		if e != nil {
			w.executor = e
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l ingestor.Logger) WriterOption {
	return func(w *BatchWriter) {
		if l != nil {
			w.logger = l
		}
	}
}

// NewBatchWriter creates a writer for the named table. Without WithExecutor,
// unprocessed items are retried ingestor.DefaultRetryMaxAttempts times.
func NewBatchWriter(api API, table string, opts ...WriterOption) *BatchWriter {
	w := &BatchWriter{
		api:       api,
		table:     table,
		batchSize: ingestor.MaxBatchSize,
		logger:    logging.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.executor == nil {
		w.executor = NewRetryExecutor(ingestor.DefaultRetryMaxAttempts, w.logger)
	}
	return w
}

// NewRetryExecutor returns the executor the writer uses by default, logging
// each resubmission at verbose level.
func NewRetryExecutor(maxRetries int, logger ingestor.Logger) *retry.Executor {
	return retry.NewExecutor(
		retry.NewDynamoDBErrorClassifier(),
		retry.NewExponentialBackoff(maxRetries),
	).WithOnRetry(func(attempt int, err error, delay time.Duration) {
		logger.Verbose("Retrying batch write (attempt %d) in %v: %v", attempt+1, delay, err)
	})
}

// Put converts item and adds it to the buffer, flushing once a full batch
// is waiting.
func (w *BatchWriter) Put(ctx context.Context, item ingestor.SavedObject) error {
	av, err := MarshalItem(item)
	if err != nil {
		return fmt.Errorf("%w: cannot convert item %v: %w", ingestor.ErrWriteFailed, item[ingestor.FieldID], err)
	}

	w.buffer = append(w.buffer, types.WriteRequest{PutRequest: &types.PutRequest{Item: av}})
	if len(w.buffer) >= w.batchSize {
		return w.Flush(ctx)
	}
	return nil
}

// Flush writes every buffered item. On error the items that were not
// acknowledged are dropped from the buffer.
func (w *BatchWriter) Flush(ctx context.Context) error {
	for len(w.buffer) > 0 {
		n := min(len(w.buffer), w.batchSize)
		batch := w.buffer[:n]
		w.buffer = w.buffer[n:]

		if err := w.writeBatch(ctx, batch); err != nil {
			w.buffer = nil
			return err
		}
	}
	w.buffer = nil
	return nil
}

// Written returns the number of items DynamoDB has acknowledged.
func (w *BatchWriter) Written() int {
	return w.written
}

// Pending returns the number of buffered items not yet sent.
func (w *BatchWriter) Pending() int {
	return len(w.buffer)
}

func (w *BatchWriter) writeBatch(ctx context.Context, batch []types.WriteRequest) error {
	pending := batch

	err := w.executor.Execute(ctx, func(ctx context.Context) error {
		out, err := w.api.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{w.table: pending},
		})
		if err != nil {
			return err
		}

		unprocessed := out.UnprocessedItems[w.table]
		w.written += len(pending) - len(unprocessed)
		if len(unprocessed) > 0 {
			w.logger.Verbose("%d of %d items unprocessed by %s", len(unprocessed), len(pending), w.table)
			pending = unprocessed
			return ingestor.ErrUnprocessedItems
		}
		pending = nil
		return nil
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ingestor.ErrUnprocessedItems):
		return fmt.Errorf("%w: %w: %d items for table %s", ingestor.ErrWriteFailed, ingestor.ErrUnprocessedItems, len(pending), w.table)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: batch write to %s: %w", ingestor.ErrWriteFailed, w.table, err)
	}
}

var _ ingestor.RecordWriter = (*BatchWriter)(nil)
