package ingestor

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	_, err := svc.Ingest(ctx, cfg)
//	if errors.Is(err, ingestor.ErrTemplateLoad) {
//	    // Template file is missing or malformed
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrTemplateLoad indicates the saved objects file could not be read or parsed.
	ErrTemplateLoad = errors.New("failed to load saved objects")

	// ErrWriteFailed indicates DynamoDB rejected a write.
	ErrWriteFailed = errors.New("write failed")

	// ErrUnprocessedItems indicates DynamoDB kept returning unprocessed items
	// after every resubmission attempt.
	ErrUnprocessedItems = errors.New("unprocessed items remain")
)

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitConfigError
	case errors.Is(err, ErrTemplateLoad):
		return ExitTemplateError
	case errors.Is(err, ErrWriteFailed), errors.Is(err, ErrUnprocessedItems):
		return ExitWriteError
	}

	if isUsageError(err.Error()) {
		return ExitUsageError
	}

	return ExitGeneralError
}

// usagePatterns are the message fragments cobra and the argument parser
// produce for command-line misuse.
var usagePatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"invalid argument",
	"flag needs an argument",
	"accepts at most",
}

func isUsageError(msg string) bool {
	for _, p := range usagePatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
