// Package retry resubmits DynamoDB work that failed for transient reasons.
//
// The batch writer uses it to drain UnprocessedItems from BatchWriteItem
// responses and to ride out throttling that outlasts the SDK's own retryer:
//
//	executor := retry.NewExecutor(
//	    retry.NewDynamoDBErrorClassifier(),
//	    retry.NewExponentialBackoff(5),
//	)
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return flushBatch(ctx)
//	})
//
// Executor instances are safe for concurrent use. WithOnRetry returns a copy.
package retry
