// Package dynamo writes saved objects to a DynamoDB table.
//
// BatchWriter buffers put requests and submits them with BatchWriteItem in
// groups of at most 25, resubmitting UnprocessedItems with backoff until the
// service has accepted every item. Table creates the target table on demand.
package dynamo
