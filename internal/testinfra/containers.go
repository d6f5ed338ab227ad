package testinfra

import (
	"context"
	"fmt"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	DynamoDBLocalImage = "amazon/dynamodb-local:2.5.2"

	dynamoDBLocalPort = "8000/tcp"
)

type DynamoDBContainer struct {
	testcontainers.Container
	Endpoint string
}

// StartDynamoDBLocal runs an in-memory DynamoDB Local and returns its HTTP endpoint.
func StartDynamoDBLocal(ctx context.Context) (*DynamoDBContainer, error) {
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        DynamoDBLocalImage,
			ExposedPorts: []string{dynamoDBLocalPort},
			Cmd:          []string{"-jar", "DynamoDBLocal.jar", "-inMemory", "-sharedDb"},
			WaitingFor: wait.ForListeningPort(dynamoDBLocalPort).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("start dynamodb local: %w", err)
	}

	endpoint, err := ctr.PortEndpoint(ctx, dynamoDBLocalPort, "http")
	if err != nil {
		ctr.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get endpoint: %w", err)
	}

	return &DynamoDBContainer{Container: ctr, Endpoint: endpoint}, nil
}
