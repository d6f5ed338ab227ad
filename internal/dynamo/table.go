package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/huyaboo/saved-objects-ddb-ingestor/internal/logging"
	"github.com/huyaboo/saved-objects-ddb-ingestor/pkg/ingestor"
)

// DefaultTableWait bounds how long EnsureTable waits for a new table to
// become active.
const DefaultTableWait = 2 * time.Minute

// Table is a handle on a named DynamoDB table.
type Table struct {
	api    API
	name   string
	wait   time.Duration
	logger ingestor.Logger
}

// NewTable returns a handle on the named table.
func NewTable(api API, name string, logger ingestor.Logger) *Table {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Table{api: api, name: name, wait: DefaultTableWait, logger: logger}
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Describe reports whether the table exists, returning its status when it does.
func (t *Table) Describe(ctx context.Context) (bool, types.TableStatus, error) {
	out, err := t.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(t.name)})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return false, "", nil
		}
		return false, "", fmt.Errorf("%w: describe table %s: %w", ingestor.ErrWriteFailed, t.name, err)
	}
	if out.Table == nil {
		return true, "", nil
	}
	return true, out.Table.TableStatus, nil
}

// EnsureTable creates the table with a string hash key "id" and on-demand
// billing unless it already exists, then waits until it is active.
func (t *Table) EnsureTable(ctx context.Context) error {
	exists, status, err := t.Describe(ctx)
	if err != nil {
		return err
	}
	if exists && status == types.TableStatusActive {
		t.logger.Verbose("Table %s already exists", t.name)
		return nil
	}

	if !exists {
		t.logger.Info("Creating table %s", t.name)
		_, err := t.api.CreateTable(ctx, &dynamodb.CreateTableInput{
			TableName: aws.String(t.name),
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String(ingestor.FieldID), AttributeType: types.ScalarAttributeTypeS},
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String(ingestor.FieldID), KeyType: types.KeyTypeHash},
			},
			BillingMode: types.BillingModePayPerRequest,
		})
		if err != nil {
			var inUse *types.ResourceInUseException
			if !errors.As(err, &inUse) {
				return fmt.Errorf("%w: create table %s: %w", ingestor.ErrWriteFailed, t.name, err)
			}
		}
	}

	waiter := dynamodb.NewTableExistsWaiter(t.api, func(o *dynamodb.TableExistsWaiterOptions) {
		o.MinDelay = 100 * time.Millisecond
		o.MaxDelay = 5 * time.Second
	})
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(t.name)}, t.wait); err != nil {
		return fmt.Errorf("%w: table %s did not become active: %w", ingestor.ErrWriteFailed, t.name, err)
	}
	t.logger.Verbose("Table %s is active", t.name)
	return nil
}
