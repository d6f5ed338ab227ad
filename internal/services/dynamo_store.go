package services

import (
	"context"
	"fmt"

	"github.com/huyaboo/saved-objects-ddb-ingestor/internal/dynamo"
	"github.com/huyaboo/saved-objects-ddb-ingestor/pkg/ingestor"
)

// Connector returns the DynamoDB API for a run.
type Connector func(ctx context.Context, cfg *ingestor.IngestConfig) (dynamo.API, error)

// ConnectDynamoDB builds a client from the AWS default configuration chain,
// applying the region and endpoint overrides of cfg.
func ConnectDynamoDB(ctx context.Context, cfg *ingestor.IngestConfig) (dynamo.API, error) {
	client, err := dynamo.NewClient(ctx, dynamo.ClientConfig{
		Region:   cfg.Region,
		Endpoint: cfg.Endpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ingestor.ErrInvalidConfig, err)
	}
	return client, nil
}

// NewDynamoWriterFactory returns a WriterFactory producing batch writers for
// the configured table. The table is created first when cfg.CreateTable is set.
func NewDynamoWriterFactory(connect Connector, logger ingestor.Logger) WriterFactory {
	return func(ctx context.Context, cfg *ingestor.IngestConfig) (ingestor.RecordWriter, error) {
		api, err := connect(ctx, cfg)
		if err != nil {
			return nil, err
		}

		if cfg.CreateTable {
			if err := dynamo.NewTable(api, cfg.TableName, logger).EnsureTable(ctx); err != nil {
				return nil, err
			}
		}

		logger.Verbose("Writing to table %s (batch size %d, max retries %d)", cfg.TableName, ingestor.MaxBatchSize, cfg.MaxRetries)
		return dynamo.NewBatchWriter(api, cfg.TableName,
			dynamo.WithLogger(logger),
			dynamo.WithExecutor(dynamo.NewRetryExecutor(cfg.MaxRetries, logger)),
		), nil
	}
}
