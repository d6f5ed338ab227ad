package ingestor

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess       = 0  // Ingestion completed successfully
	ExitGeneralError  = 1  // Unknown or unclassified error
	ExitUsageError    = 2  // CLI usage error (invalid argument values, unknown flags)
	ExitPanic         = 3  // Internal panic (unexpected crash)
	ExitConfigError   = 10 // Invalid configuration
	ExitTemplateError = 11 // Template file missing or malformed
	ExitWriteError    = 12 // DynamoDB write failed
)

// Defaults for the positional arguments.
const (
	DefaultNumRecords       = 10
	DefaultTemplatePath     = "sample_saved_objects.ndjson"
	DefaultReplaceTimestamp = true
	DefaultReplaceTitle     = true
)

const (
	// DefaultTableName is the DynamoDB table written to when neither a flag,
	// the environment nor ingestor.yaml names one.
	DefaultTableName = "saved-objects"

	// DefaultTimeout bounds a whole ingestion run. Zero means no deadline.
	DefaultTimeout time.Duration = 0

	// MaxBatchSize is the maximum number of put requests DynamoDB accepts
	// in a single BatchWriteItem call.
	MaxBatchSize = 25

	// MaxTemplateLineBytes is the longest NDJSON line the loader accepts.
	MaxTemplateLineBytes = 4 << 20

	// NDJSONExtension selects line-delimited parsing in the loader.
	NDJSONExtension = ".ndjson"

	// TimestampLayout renders updated_at with millisecond precision in UTC.
	TimestampLayout = "2006-01-02T15:04:05.000Z"
)

const (
	// DefaultRetryInitialDelay is the delay before the first resubmission of unprocessed items.
	DefaultRetryInitialDelay = 50 * time.Millisecond

	// DefaultRetryMaxDelay caps the delay between resubmissions.
	DefaultRetryMaxDelay = 20 * time.Second

	// DefaultRetryMaxAttempts is the default number of resubmissions of unprocessed items.
	DefaultRetryMaxAttempts = 5
)

// Saved object field names recognised by the transformer.
const (
	FieldID         = "id"
	FieldAttributes = "attributes"
	FieldTitle      = "title"
	FieldReferences = "references"
	FieldUpdatedAt  = "updated_at"
)
