// Package dynamotest provides an in-memory stand-in for the DynamoDB API.
package dynamotest

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// FakeAPI keeps items in memory keyed by table and "id" attribute.
// Hooks let tests inject failures and unprocessed items.
type FakeAPI struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue
	calls  []int

	// BatchErr, when set, is returned for the call with the given 1-based index.
	BatchErr func(call int) error

	// Unprocess, when set, returns how many trailing requests of the call
	// are reported back as unprocessed.
	Unprocess func(call int, requests int) int
}

// NewFakeAPI returns a fake with the named tables already created.
func NewFakeAPI(tables ...string) *FakeAPI {
	f := &FakeAPI{tables: make(map[string]map[string]map[string]types.AttributeValue)}
	for _, t := range tables {
		f.tables[t] = make(map[string]map[string]types.AttributeValue)
	}
	return f
}

// BatchWriteItem stores every put request. Requests for unknown tables fail
// with ResourceNotFoundException.
func (f *FakeAPI) BatchWriteItem(_ context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := 0
	for _, reqs := range in.RequestItems {
		total += len(reqs)
	}
	if total > 25 {
		return nil, fmt.Errorf("too many items in batch: %d", total)
	}
	f.calls = append(f.calls, total)
	call := len(f.calls)

	if f.BatchErr != nil {
		if err := f.BatchErr(call); err != nil {
			return nil, err
		}
	}

	out := &dynamodb.BatchWriteItemOutput{UnprocessedItems: map[string][]types.WriteRequest{}}
	for name, reqs := range in.RequestItems {
		table, ok := f.tables[name]
		if !ok {
			return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found")}
		}

		skip := 0
		if f.Unprocess != nil {
			skip = min(f.Unprocess(call, len(reqs)), len(reqs))
		}
		keep := reqs[:len(reqs)-skip]
		if skip > 0 {
			out.UnprocessedItems[name] = reqs[len(reqs)-skip:]
		}

		for _, r := range keep {
			if r.PutRequest == nil {
				continue
			}
			id, ok := r.PutRequest.Item["id"].(*types.AttributeValueMemberS)
			if !ok {
				return nil, fmt.Errorf("item is missing string key id")
			}
			table[id.Value] = r.PutRequest.Item
		}
	}
	return out, nil
}

// DescribeTable reports known tables as ACTIVE.
func (f *FakeAPI) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := aws.ToString(in.TableName)
	table, ok := f.tables[name]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("Requested resource not found: Table: " + name + " not found")}
	}
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{
		TableName:   aws.String(name),
		TableStatus: types.TableStatusActive,
		ItemCount:   aws.Int64(int64(len(table))),
	}}, nil
}

// CreateTable registers an empty table.
func (f *FakeAPI) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	name := aws.ToString(in.TableName)
	if _, ok := f.tables[name]; ok {
		return nil, &types.ResourceInUseException{Message: aws.String("Table already exists: " + name)}
	}
	f.tables[name] = make(map[string]map[string]types.AttributeValue)
	return &dynamodb.CreateTableOutput{TableDescription: &types.TableDescription{
		TableName:   aws.String(name),
		TableStatus: types.TableStatusCreating,
	}}, nil
}

// Items returns a copy of the items stored in table, keyed by id.
func (f *FakeAPI) Items(table string) map[string]map[string]types.AttributeValue {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]map[string]types.AttributeValue, len(f.tables[table]))
	for k, v := range f.tables[table] {
		out[k] = v
	}
	return out
}

// BatchSizes returns the number of requests in each BatchWriteItem call.
func (f *FakeAPI) BatchSizes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.calls...)
}

// HasTable reports whether table exists.
func (f *FakeAPI) HasTable(table string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.tables[table]
	return ok
}
