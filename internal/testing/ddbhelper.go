package testing

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"

	"github.com/huyaboo/saved-objects-ddb-ingestor/internal/dynamo"
	"github.com/huyaboo/saved-objects-ddb-ingestor/internal/logging"
	"github.com/huyaboo/saved-objects-ddb-ingestor/internal/testinfra"
	"github.com/huyaboo/saved-objects-ddb-ingestor/pkg/ingestor"
)

// EndpointEnv names an existing DynamoDB endpoint to test against instead of
// starting a container.
const EndpointEnv = "INGESTOR_TEST_ENDPOINT"

var (
	testContainerOnce     sync.Once
	testContainerEndpoint string
	testContainerErr      error
)

func getOrStartTestContainer() (string, error) {
	testContainerOnce.Do(func() {
		container, err := testinfra.StartDynamoDBLocal(context.Background())
		if err != nil {
			testContainerErr = err
			return
		}
		testContainerEndpoint = container.Endpoint
	})
	return testContainerEndpoint, testContainerErr
}

// GetTestEndpoint returns the DynamoDB endpoint for integration tests.
// Priority: INGESTOR_TEST_ENDPOINT env var > auto-started testcontainer > skip test.
func GetTestEndpoint(t *testing.T) string {
	t.Helper()

	if endpoint := os.Getenv(EndpointEnv); endpoint != "" {
		return endpoint
	}

	endpoint, err := getOrStartTestContainer()
	if err != nil {
		t.Skipf("%s not set and Docker unavailable: %v", EndpointEnv, err)
	}
	return endpoint
}

// SkipIfShort skips the test if running in short mode (-short flag).
func SkipIfShort(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
}

// RequireDynamoDB combines SkipIfShort and GetTestEndpoint.
func RequireDynamoDB(t *testing.T) string {
	t.Helper()

	SkipIfShort(t)
	return GetTestEndpoint(t)
}

// NewTestClient returns a client for endpoint using static dummy credentials,
// which DynamoDB Local accepts.
func NewTestClient(t *testing.T, endpoint string) *dynamodb.Client {
	t.Helper()

	t.Setenv("AWS_ACCESS_KEY_ID", "local")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "local")
	t.Setenv("AWS_REGION", "us-east-1")

	client, err := dynamo.NewClient(context.Background(), dynamo.ClientConfig{Endpoint: endpoint})
	if err != nil {
		t.Fatalf("create dynamodb client: %v", err)
	}
	return client
}

// CreateTestTable creates a uniquely named table and deletes it when the test ends.
func CreateTestTable(t *testing.T, client *dynamodb.Client) string {
	t.Helper()

	name := "ingestor-test-" + uuid.NewString()[:8]
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := dynamo.NewTable(client, name, logging.NewNullLogger()).EnsureTable(ctx); err != nil {
		t.Fatalf("create table %s: %v", name, err)
	}

	t.Cleanup(func() {
		_, _ = client.DeleteTable(context.Background(), &dynamodb.DeleteTableInput{TableName: aws.String(name)})
	})
	return name
}

// ScanAll returns every item of table as saved objects.
func ScanAll(t *testing.T, client *dynamodb.Client, table string) []ingestor.SavedObject {
	t.Helper()

	var objects []ingestor.SavedObject
	paginator := dynamodb.NewScanPaginator(client, &dynamodb.ScanInput{TableName: aws.String(table)})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(context.Background())
		if err != nil {
			t.Fatalf("scan %s: %v", table, err)
		}
		for _, item := range page.Items {
			obj, err := dynamo.UnmarshalItem(item)
			if err != nil {
				t.Fatalf("unmarshal item: %v", err)
			}
			objects = append(objects, obj)
		}
	}
	return objects
}
