package dynamo_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huyaboo/saved-objects-ddb-ingestor/internal/dynamo"
	"github.com/huyaboo/saved-objects-ddb-ingestor/internal/dynamo/dynamotest"
	"github.com/huyaboo/saved-objects-ddb-ingestor/internal/retry"
	"github.com/huyaboo/saved-objects-ddb-ingestor/pkg/ingestor"
)

const table = "saved-objects"

func fastExecutor(attempts int) *retry.Executor {
	return retry.NewExecutor(
		retry.NewDynamoDBErrorClassifier(),
		retry.NewExponentialBackoff(attempts,
			retry.WithInitialDelay(time.Millisecond),
			retry.WithMaxDelay(time.Millisecond),
			retry.WithJitter(0),
		),
	)
}

func object(i int) ingestor.SavedObject {
	return ingestor.SavedObject{"id": fmt.Sprintf("obj-%d", i), "type": "dashboard"}
}

func TestBatchWriter_BuffersUntilFlush(t *testing.T) {
	api := dynamotest.NewFakeAPI(table)
	w := dynamo.NewBatchWriter(api, table, dynamo.WithExecutor(fastExecutor(3)))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, w.Put(ctx, object(i)))
	}
	assert.Empty(t, api.BatchSizes())
	assert.Equal(t, 3, w.Pending())

	require.NoError(t, w.Flush(ctx))
	assert.Equal(t, []int{3}, api.BatchSizes())
	assert.Equal(t, 3, w.Written())
	assert.Zero(t, w.Pending())
	assert.Len(t, api.Items(table), 3)
}

func TestBatchWriter_FlushesFullBatches(t *testing.T) {
	api := dynamotest.NewFakeAPI(table)
	w := dynamo.NewBatchWriter(api, table, dynamo.WithExecutor(fastExecutor(3)))
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		require.NoError(t, w.Put(ctx, object(i)))
	}
	require.NoError(t, w.Flush(ctx))

	assert.Equal(t, []int{25, 25, 10}, api.BatchSizes())
	assert.Equal(t, 60, w.Written())
	assert.Len(t, api.Items(table), 60)
}

func TestBatchWriter_WithBatchSizeClamps(t *testing.T) {
	api := dynamotest.NewFakeAPI(table)
	w := dynamo.NewBatchWriter(api, table, dynamo.WithBatchSize(100), dynamo.WithExecutor(fastExecutor(1)))
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		require.NoError(t, w.Put(ctx, object(i)))
	}
	require.NoError(t, w.Flush(ctx))
	assert.Equal(t, []int{25, 5}, api.BatchSizes())
}

func TestBatchWriter_ResubmitsUnprocessedItems(t *testing.T) {
	api := dynamotest.NewFakeAPI(table)
	api.Unprocess = func(call, requests int) int {
		if call == 1 {
			return 4
		}
		return 0
	}
	w := dynamo.NewBatchWriter(api, table, dynamo.WithExecutor(fastExecutor(3)))
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		require.NoError(t, w.Put(ctx, object(i)))
	}
	require.NoError(t, w.Flush(ctx))

	assert.Equal(t, []int{10, 4}, api.BatchSizes())
	assert.Equal(t, 10, w.Written())
	assert.Len(t, api.Items(table), 10)
}

func TestBatchWriter_GivesUpOnPersistentUnprocessedItems(t *testing.T) {
	api := dynamotest.NewFakeAPI(table)
	api.Unprocess = func(call, requests int) int { return 1 }
	w := dynamo.NewBatchWriter(api, table, dynamo.WithExecutor(fastExecutor(2)))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, w.Put(ctx, object(i)))
	}
	err := w.Flush(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, ingestor.ErrUnprocessedItems)
	assert.ErrorIs(t, err, ingestor.ErrWriteFailed)
	assert.Equal(t, []int{5, 1, 1}, api.BatchSizes())
	assert.Equal(t, 4, w.Written())
	assert.Zero(t, w.Pending())
}

func TestBatchWriter_RetriesThrottling(t *testing.T) {
	api := dynamotest.NewFakeAPI(table)
	api.BatchErr = func(call int) error {
		if call == 1 {
			return &types.ProvisionedThroughputExceededException{Message: aws.String("slow down")}
		}
		return nil
	}
	w := dynamo.NewBatchWriter(api, table, dynamo.WithExecutor(fastExecutor(3)))
	ctx := context.Background()

	require.NoError(t, w.Put(ctx, object(1)))
	require.NoError(t, w.Flush(ctx))
	assert.Equal(t, 1, w.Written())
	assert.Equal(t, []int{1, 1}, api.BatchSizes())
}

func TestBatchWriter_MissingTableIsFatal(t *testing.T) {
	api := dynamotest.NewFakeAPI()
	w := dynamo.NewBatchWriter(api, table, dynamo.WithExecutor(fastExecutor(3)))
	ctx := context.Background()

	require.NoError(t, w.Put(ctx, object(1)))
	err := w.Flush(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, ingestor.ErrWriteFailed)
	assert.NotErrorIs(t, err, ingestor.ErrUnprocessedItems)
	var notFound *types.ResourceNotFoundException
	assert.True(t, errors.As(err, &notFound))
	assert.Len(t, api.BatchSizes(), 1)
	assert.Zero(t, w.Written())
}

func TestBatchWriter_PutFlushesAndReportsErrors(t *testing.T) {
	api := dynamotest.NewFakeAPI()
	w := dynamo.NewBatchWriter(api, table, dynamo.WithBatchSize(2), dynamo.WithExecutor(fastExecutor(0)))
	ctx := context.Background()

	require.NoError(t, w.Put(ctx, object(1)))
	err := w.Put(ctx, object(2))
	assert.ErrorIs(t, err, ingestor.ErrWriteFailed)
}

func TestBatchWriter_CanceledContext(t *testing.T) {
	api := dynamotest.NewFakeAPI(table)
	api.Unprocess = func(call, requests int) int { return requests }
	w := dynamo.NewBatchWriter(api, table, dynamo.WithExecutor(fastExecutor(-1)))

	ctx, cancel := context.WithCancel(context.Background())
	api.BatchErr = func(call int) error {
		if call == 3 {
			cancel()
		}
		return nil
	}

	require.NoError(t, w.Put(ctx, object(1)))
	err := w.Flush(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBatchWriter_RejectsUnconvertibleItem(t *testing.T) {
	api := dynamotest.NewFakeAPI(table)
	w := dynamo.NewBatchWriter(api, table)

	err := w.Put(context.Background(), ingestor.SavedObject{"id": "x", "bad": make(chan int)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ingestor.ErrWriteFailed)
	assert.Zero(t, w.Pending())
}
