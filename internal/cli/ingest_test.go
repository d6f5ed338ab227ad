package cli

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huyaboo/saved-objects-ddb-ingestor/internal/dynamo"
	"github.com/huyaboo/saved-objects-ddb-ingestor/internal/dynamo/dynamotest"
	"github.com/huyaboo/saved-objects-ddb-ingestor/pkg/ingestor"
)

func TestIngest_EndToEnd(t *testing.T) {
	isolateEnv(t)
	api := dynamotest.NewFakeAPI(ingestor.DefaultTableName)
	useFakeDynamoDB(t, api)
	path := writeFile(t, "sample.ndjson", `{"id":"a","attributes":{"title":"T","references":[{"id":"r"}]},"updated_at":"2020-01-01T00:00:00.000Z"}`+"\n")

	stdout, _, err := executeRoot(t, "3", path)
	require.NoError(t, err)
	assert.Equal(t, "Finished inserting 3 records.\n", stdout)

	items := api.Items(ingestor.DefaultTableName)
	require.Len(t, items, 3)

	refs := map[string]bool{}
	for id, item := range items {
		assert.True(t, strings.HasPrefix(id, "a") && id != "a", id)

		obj, err := dynamo.UnmarshalItem(item)
		require.NoError(t, err)
		attrs := obj["attributes"].(map[string]any)
		assert.NotEqual(t, "T", attrs["title"])
		assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}Z$`, obj["updated_at"])

		ref := attrs["references"].([]any)[0].(map[string]any)["id"].(string)
		assert.True(t, strings.HasPrefix(ref, "r") && ref != "r", ref)
		refs[ref] = true
	}
	assert.Len(t, refs, 3)
}

func TestIngest_SingleRecordKeepsOriginalFields(t *testing.T) {
	isolateEnv(t)
	api := dynamotest.NewFakeAPI(ingestor.DefaultTableName)
	useFakeDynamoDB(t, api)
	path := writeFile(t, "one.json", `{"id":"a","attributes":{"title":"T"},"updated_at":"2020-01-01T00:00:00.000Z"}`)

	stdout, _, err := executeRoot(t, "1", path, "false", "false")
	require.NoError(t, err)
	assert.Equal(t, "Finished inserting 1 records.\n", stdout)

	items := api.Items(ingestor.DefaultTableName)
	require.Contains(t, items, "a")
	obj, err := dynamo.UnmarshalItem(items["a"])
	require.NoError(t, err)
	assert.Equal(t, "T", obj["attributes"].(map[string]any)["title"])
	assert.Equal(t, "2020-01-01T00:00:00.000Z", obj["updated_at"])
}

func TestIngest_ZeroRecords(t *testing.T) {
	isolateEnv(t)
	api := dynamotest.NewFakeAPI(ingestor.DefaultTableName)
	useFakeDynamoDB(t, api)
	path := writeFile(t, "one.json", `{"id":"a"}`)

	stdout, _, err := executeRoot(t, "0", path)
	require.NoError(t, err)
	assert.Equal(t, "Finished inserting 0 records.\n", stdout)
	assert.Empty(t, api.BatchSizes())
}

func TestIngest_MissingDefaultFile(t *testing.T) {
	isolateEnv(t)
	useFakeDynamoDB(t, dynamotest.NewFakeAPI(ingestor.DefaultTableName))

	stdout, _, err := executeRoot(t)
	require.Error(t, err)
	assert.Empty(t, stdout)
	assert.Equal(t, ingestor.ExitTemplateError, ingestor.ExitCodeForError(err))
	assert.Contains(t, err.Error(), ingestor.DefaultTemplatePath)
}

func TestIngest_MissingTable(t *testing.T) {
	isolateEnv(t)
	useFakeDynamoDB(t, dynamotest.NewFakeAPI())
	path := writeFile(t, "one.json", `{"id":"a"}`)

	stdout, _, err := executeRoot(t, "2", path)
	require.Error(t, err)
	assert.Empty(t, stdout)
	assert.Equal(t, ingestor.ExitWriteError, ingestor.ExitCodeForError(err))
}

func TestIngest_CreateTable(t *testing.T) {
	isolateEnv(t)
	api := dynamotest.NewFakeAPI()
	useFakeDynamoDB(t, api)
	path := writeFile(t, "one.json", `{"id":"a"}`)

	stdout, _, err := executeRoot(t, "2", path, "--table", "fresh", "--create-table")
	require.NoError(t, err)
	assert.Equal(t, "Finished inserting 2 records.\n", stdout)
	assert.Len(t, api.Items("fresh"), 2)
}

func TestIngest_MissingExplicitConfigIsError(t *testing.T) {
	isolateEnv(t)
	path := writeFile(t, "one.json", `{"id":"a"}`)

	_, _, err := executeRoot(t, "1", path, "--config", "/nonexistent/ingestor.yaml")
	require.Error(t, err)
	assert.Equal(t, ingestor.ExitConfigError, ingestor.ExitCodeForError(err))
}

func TestIngest_NegativeMaxRetriesIsConfigError(t *testing.T) {
	isolateEnv(t)
	path := writeFile(t, "one.json", `{"id":"a"}`)

	_, _, err := executeRoot(t, "1", path, "--max-retries", "-2")
	require.Error(t, err)
	assert.Equal(t, ingestor.ExitConfigError, ingestor.ExitCodeForError(err))
}

func TestIngest_Precedence(t *testing.T) {
	configYAML := `table: from-file
region: file-region
endpoint: http://file:8000
create_table: true
max_retries: 7
timeout: 90s
`

	t.Run("config file over defaults", func(t *testing.T) {
		isolateEnv(t)
		seen := useFakeDynamoDB(t, dynamotest.NewFakeAPI("from-file"))
		cfgPath := writeFile(t, "ingestor.yaml", configYAML)
		path := writeFile(t, "one.json", `{"id":"a"}`)

		_, _, err := executeRoot(t, "1", path, "--config", cfgPath)
		require.NoError(t, err)
		assert.Equal(t, "from-file", seen.TableName)
		assert.Equal(t, "file-region", seen.Region)
		assert.Equal(t, "http://file:8000", seen.Endpoint)
		assert.True(t, seen.CreateTable)
		assert.Equal(t, 7, seen.MaxRetries)
		assert.Equal(t, 90*time.Second, seen.Timeout)
	})

	t.Run("environment over config file", func(t *testing.T) {
		isolateEnv(t)
		t.Setenv(envTable, "from-env")
		t.Setenv(envRegion, "env-region")
		t.Setenv(envEndpoint, "localhost:9000")
		seen := useFakeDynamoDB(t, dynamotest.NewFakeAPI("from-env"))
		cfgPath := writeFile(t, "ingestor.yaml", configYAML)
		path := writeFile(t, "one.json", `{"id":"a"}`)

		_, _, err := executeRoot(t, "1", path, "--config", cfgPath)
		require.NoError(t, err)
		assert.Equal(t, "from-env", seen.TableName)
		assert.Equal(t, "env-region", seen.Region)
		assert.Equal(t, "localhost:9000", seen.Endpoint)
	})

	t.Run("flags over environment", func(t *testing.T) {
		isolateEnv(t)
		t.Setenv(envTable, "from-env")
		seen := useFakeDynamoDB(t, dynamotest.NewFakeAPI("from-flag"))
		cfgPath := writeFile(t, "ingestor.yaml", configYAML)
		path := writeFile(t, "one.json", `{"id":"a"}`)

		_, _, err := executeRoot(t, "1", path, "--config", cfgPath,
			"--table", "from-flag", "--region", "flag-region", "--max-retries", "1",
			"--timeout", "5s", "--create-table=false")
		require.NoError(t, err)
		assert.Equal(t, "from-flag", seen.TableName)
		assert.Equal(t, "flag-region", seen.Region)
		assert.Equal(t, "http://file:8000", seen.Endpoint)
		assert.False(t, seen.CreateTable)
		assert.Equal(t, 1, seen.MaxRetries)
		assert.Equal(t, 5*time.Second, seen.Timeout)
	})

	t.Run("defaults", func(t *testing.T) {
		isolateEnv(t)
		seen := useFakeDynamoDB(t, dynamotest.NewFakeAPI(ingestor.DefaultTableName))
		path := writeFile(t, "one.json", `{"id":"a"}`)

		_, _, err := executeRoot(t, "1", path)
		require.NoError(t, err)
		assert.Equal(t, ingestor.DefaultTableName, seen.TableName)
		assert.Empty(t, seen.Region)
		assert.Empty(t, seen.Endpoint)
		assert.False(t, seen.CreateTable)
		assert.Equal(t, ingestor.DefaultRetryMaxAttempts, seen.MaxRetries)
		assert.Zero(t, seen.Timeout)

		ctx, cancel := newRunContext(context.Background(), seen.Timeout)
		defer cancel()
		_, hasDeadline := ctx.Deadline()
		assert.False(t, hasDeadline, "runs without --timeout must not get a deadline")
	})
}

func TestNewRunContext(t *testing.T) {
	ctx, cancel := newRunContext(context.Background(), 0)
	defer cancel()
	_, hasDeadline := ctx.Deadline()
	assert.False(t, hasDeadline)

	bounded, cancelBounded := newRunContext(context.Background(), time.Minute)
	defer cancelBounded()
	deadline, hasDeadline := bounded.Deadline()
	require.True(t, hasDeadline)
	assert.WithinDuration(t, time.Now().Add(time.Minute), deadline, 5*time.Second)
}

func TestIngest_InvalidTimeoutInConfig(t *testing.T) {
	isolateEnv(t)
	cfgPath := writeFile(t, "ingestor.yaml", "timeout: soon\n")
	path := writeFile(t, "one.json", `{"id":"a"}`)

	_, _, err := executeRoot(t, "1", path, "--config", cfgPath)
	require.Error(t, err)
	assert.Equal(t, ingestor.ExitConfigError, ingestor.ExitCodeForError(err))
}

func TestIngest_DotEnvIsLoaded(t *testing.T) {
	isolateEnv(t)
	seen := useFakeDynamoDB(t, dynamotest.NewFakeAPI("dotenv-table"))
	path := writeFile(t, "one.json", `{"id":"a"}`)

	// godotenv never overrides variables that are already set
	require.NoError(t, os.Unsetenv(envTable))
	require.NoError(t, os.WriteFile(".env", []byte(envTable+"=dotenv-table\n"), 0644))

	_, _, err := executeRoot(t, "1", path)
	require.NoError(t, err)
	assert.Equal(t, "dotenv-table", seen.TableName)
}
