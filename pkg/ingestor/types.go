package ingestor

import (
	"errors"
	"fmt"
	"time"
)

// SavedObject is one decoded saved object document.
// Keys are kept exactly as they appear in the template file.
type SavedObject = map[string]any

// IngestConfig contains all parameters needed for an ingestion run.
type IngestConfig struct {
	// NumRecords is how many copies of every template are written.
	NumRecords int

	// TemplatePath is the JSON or NDJSON file holding the template saved objects.
	TemplatePath string

	// ReplaceTimestamp rewrites updated_at with the current UTC time.
	ReplaceTimestamp bool

	// ReplaceTitle rewrites attributes.title with a random phrase.
	ReplaceTitle bool

	// TableName is the target DynamoDB table.
	TableName string

	// Region and Endpoint override the AWS SDK defaults when set.
	Region   string
	Endpoint string

	// CreateTable creates the table when it does not exist yet.
	CreateTable bool

	// MaxRetries bounds resubmission of unprocessed batch items.
	MaxRetries int

	// Timeout is the global timeout for the entire run
	Timeout time.Duration

	// Verbose enables detailed logging
	Verbose bool
}

// Validate checks if the IngestConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *IngestConfig) Validate() error {
	var errs []error

	if c.NumRecords < 0 {
		errs = append(errs, fmt.Errorf("number of records cannot be negative (got %d): %w", c.NumRecords, ErrInvalidConfig))
	}

	if c.TemplatePath == "" {
		errs = append(errs, fmt.Errorf("saved objects file path is required: %w", ErrInvalidConfig))
	}

	if c.TableName == "" {
		errs = append(errs, fmt.Errorf("table name is required: %w", ErrInvalidConfig))
	}

	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max retries cannot be negative: %w", ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// AppendIDs reports whether identifiers need a random suffix, which is the
// case whenever more than one record will be written in total.
func (c *IngestConfig) AppendIDs(templates int) bool {
	return c.NumRecords*templates > 1
}

// IngestResult summarises a completed run.
type IngestResult struct {
	Iterations int
	Templates  int
	Written    int
}
